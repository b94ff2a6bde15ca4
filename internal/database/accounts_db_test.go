package database

import (
	"errors"
	"testing"
)

// setupTestStore initializes an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close test store: %v", err)
		}
	})
	return store
}

func TestCreateAndGetAccount(t *testing.T) {
	store := setupTestStore(t)

	created, err := store.CreateAccount("Alice", "password123")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("CreateAccount() returned account with ID 0")
	}
	if created.Username != "Alice" {
		t.Errorf("CreateAccount() username = %q, want Alice", created.Username)
	}
	if created.PasswordHash == "password123" {
		t.Error("password was stored in plaintext")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreateAccount() CreatedAt is zero")
	}

	t.Run("lookup by id", func(t *testing.T) {
		got, err := store.AccountByID(created.ID)
		if err != nil {
			t.Fatalf("AccountByID() error = %v", err)
		}
		if got.Username != created.Username {
			t.Errorf("AccountByID() username = %q, want %q", got.Username, created.Username)
		}
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		got, err := store.AccountByUsername("aLiCe")
		if err != nil {
			t.Fatalf("AccountByUsername() error = %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("AccountByUsername() id = %d, want %d", got.ID, created.ID)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		if _, err := store.AccountByUsername("nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("AccountByUsername() error = %v, want ErrNotFound", err)
		}
	})
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.CreateAccount("alice", "password123"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	for _, username := range []string{"alice", "ALICE"} {
		if _, err := store.CreateAccount(username, "other"); !errors.Is(err, ErrDuplicateUsername) {
			t.Errorf("CreateAccount(%q) error = %v, want ErrDuplicateUsername", username, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	store := setupTestStore(t)

	created, err := store.CreateAccount("alice", "password123")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		got, err := store.Authenticate("Alice", "password123")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("Authenticate() id = %d, want %d", got.ID, created.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := store.Authenticate("alice", "nope"); !errors.Is(err, ErrBadPassword) {
			t.Errorf("Authenticate() error = %v, want ErrBadPassword", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		if _, err := store.Authenticate("nobody", "password123"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Authenticate() error = %v, want ErrNotFound", err)
		}
	})
}
