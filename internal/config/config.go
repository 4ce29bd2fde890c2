package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// DefaultJWTSecret is only fit for local development.
const DefaultJWTSecret = "joinus-dev-secret-change-me"


type Config struct {
	Port           int      `env:"PORT"                   envDefault:"3001"`
	DataDir        string   `env:"JOINUS_DATA_DIR"        envDefault:"data"`
	FormPaths      []string `env:"JOINUS_FORM_PATHS"      envDefault:"public/form.json" envSeparator:","`
	Store          string   `env:"JOINUS_STORE"           envDefault:"json"`
	MaxUploadMB    int64    `env:"JOINUS_MAX_UPLOAD_MB"   envDefault:"32"`
	AllowedOrigins []string `env:"JOINUS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	AdminPass      string   `env:"JOINUS_ADMIN_PASS"`
	JWTSecret      string   `env:"JOINUS_JWT_SECRET"      envDefault:"joinus-dev-secret-change-me"`
	GelfAddr       string   `env:"JOINUS_GELF_ADDR"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 32
	}
	paths := c.FormPaths[:0]
	for _, p := range c.FormPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	c.FormPaths = paths
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) SubmissionsFile() string {
	return filepath.Join(c.DataDir, "submissions.json")
}

func (c *Config) SQLiteFile() string {
	return filepath.Join(c.DataDir, "submissions.db")
}

func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// AuthEnabled reports whether admin endpoints require a token.
func (c *Config) AuthEnabled() bool {
	return c.AdminPass != ""
}

// InsecureJWTSecret reports whether admin tokens are signed with the
// well-known default secret while admin auth is on.
func (c *Config) InsecureJWTSecret() bool {
	return c.AuthEnabled() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret)
}
