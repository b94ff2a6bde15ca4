package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Heartbeat != 25*time.Second {
		t.Errorf("Heartbeat = %v, want 25s", cfg.Heartbeat)
	}
	if cfg.ChannelBuffer != 32 {
		t.Errorf("ChannelBuffer = %d, want 32", cfg.ChannelBuffer)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.Heartbeat != 5*time.Second {
		t.Errorf("Heartbeat = %v, want 5s", cfg.Heartbeat)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadRolesDefaultCatalog(t *testing.T) {
	catalog, err := LoadRoles("")
	if err != nil {
		t.Fatalf("LoadRoles() error = %v", err)
	}
	if len(catalog.Roles) < catalog.RolesPerGame {
		t.Errorf("default catalog has %d roles for %d per game", len(catalog.Roles), catalog.RolesPerGame)
	}
	if len(catalog.Names()) != len(catalog.Roles) {
		t.Errorf("Names() length mismatch")
	}
}

func TestLoadRolesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	content := `
min_players: 3
max_players: 8
roles_per_game: 2
roles:
  - name: alpha
    description: first
  - name: beta
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	catalog, err := LoadRoles(path)
	if err != nil {
		t.Fatalf("LoadRoles() error = %v", err)
	}
	if catalog.MinPlayers != 3 || catalog.MaxPlayers != 8 {
		t.Errorf("limits = %d..%d, want 3..8", catalog.MinPlayers, catalog.MaxPlayers)
	}
	want := []string{"alpha", "beta"}
	got := catalog.Names()
	if len(got) != len(want) || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLoadRolesRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate role", "min_players: 2\nmax_players: 4\nroles_per_game: 1\nroles: [{name: a}, {name: a}]"},
		{"too few roles", "min_players: 2\nmax_players: 4\nroles_per_game: 5\nroles: [{name: a}]"},
		{"bad limits", "min_players: 4\nmax_players: 2\nroles_per_game: 1\nroles: [{name: a}]"},
		{"empty role name", "min_players: 2\nmax_players: 4\nroles_per_game: 1\nroles: [{name: \"\"}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "roles.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}
			if _, err := LoadRoles(path); err == nil {
				t.Error("LoadRoles() accepted an invalid catalog")
			}
		})
	}
}
