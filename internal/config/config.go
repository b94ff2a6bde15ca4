// Package config loads server configuration from the environment and the
// optional role-catalog YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, populated from environment variables.
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"lobby.db"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	RolesPath      string        `env:"ROLES_CONFIG"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	Heartbeat      time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"25s"`
	ChannelBuffer  int           `env:"CHANNEL_BUFFER" envDefault:"32"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Role is one selectable role in the catalog.
type Role struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// RoleCatalog describes the roles available to proposals together with the
// group-size limits the engine enforces.
type RoleCatalog struct {
	MinPlayers   int    `yaml:"min_players"`
	MaxPlayers   int    `yaml:"max_players"`
	RolesPerGame int    `yaml:"roles_per_game"`
	Roles        []Role `yaml:"roles"`
}

// Names returns the role names in catalog order.
func (c RoleCatalog) Names() []string {
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		names = append(names, r.Name)
	}
	return names
}

// DefaultCatalog is the built-in role catalog used when no file is given.
func DefaultCatalog() RoleCatalog {
	return RoleCatalog{
		MinPlayers:   2,
		MaxPlayers:   6,
		RolesPerGame: 5,
		Roles: []Role{
			{Name: "banker"},
			{Name: "director"},
			{Name: "guerrilla"},
			{Name: "politician"},
			{Name: "peacekeeper"},
			{Name: "capitalist"},
			{Name: "anarchist"},
			{Name: "farmer"},
		},
	}
}

// LoadRoles reads a role catalog from a YAML file, or returns the default
// catalog when path is empty.
func LoadRoles(path string) (RoleCatalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RoleCatalog{}, fmt.Errorf("read roles config: %w", err)
	}

	var catalog RoleCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return RoleCatalog{}, fmt.Errorf("parse roles config: %w", err)
	}

	if err := catalog.validate(); err != nil {
		return RoleCatalog{}, fmt.Errorf("roles config %s: %w", path, err)
	}
	return catalog, nil
}

func (c RoleCatalog) validate() error {
	if c.MinPlayers < 1 || c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("invalid player limits %d..%d", c.MinPlayers, c.MaxPlayers)
	}
	if c.RolesPerGame < 1 {
		return fmt.Errorf("roles_per_game must be positive, got %d", c.RolesPerGame)
	}
	if len(c.Roles) < c.RolesPerGame {
		return fmt.Errorf("catalog has %d roles, need at least %d", len(c.Roles), c.RolesPerGame)
	}
	seen := make(map[string]bool)
	for _, r := range c.Roles {
		if r.Name == "" {
			return fmt.Errorf("role with empty name")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate role %q", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}
