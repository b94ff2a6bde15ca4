package database

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/rebellion-web/app/internal/models"
)

var (
	// ErrDuplicateUsername is returned when a username (case-insensitively)
	// already has an account.
	ErrDuplicateUsername = errors.New("username is taken")
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("no such account")
	// ErrBadPassword is returned when the password does not match the hash.
	ErrBadPassword = errors.New("incorrect password")
)

// CreateAccount hashes the password with bcrypt and inserts a new account.
func (s *Store) CreateAccount(username, password string) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec("INSERT INTO accounts(username, password_hash) VALUES(?, ?)", username, string(hashedPassword))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	// Re-read so database defaults (created_at) are populated.
	return s.AccountByID(id)
}

// AccountByUsername retrieves an account by username, case-insensitively.
func (s *Store) AccountByUsername(username string) (*models.Account, error) {
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM accounts WHERE LOWER(username) = LOWER(?)", username)
	return scanAccount(row)
}

// AccountByID retrieves an account by its id.
func (s *Store) AccountByID(id int64) (*models.Account, error) {
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM accounts WHERE id = ?", id)
	return scanAccount(row)
}

// Authenticate looks an account up and verifies its password. Returns
// ErrNotFound for an unknown username and ErrBadPassword for a mismatch.
func (s *Store) Authenticate(username, password string) (*models.Account, error) {
	account, err := s.AccountByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return nil, err
	}
	return account, nil
}

// VerifyPassword compares a stored bcrypt hash with a plaintext password.
func VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrBadPassword
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
