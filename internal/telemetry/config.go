package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ConfigFileName is the telemetry state file inside the LocalMCP home directory.
const ConfigFileName = "telemetry.json"

// Config is the user's telemetry choice. It is stored apart from the main config so
// project config files never carry an install ID.
type Config struct {
	Enabled      bool   `json:"enabled"`
	ConsentAsked bool   `json:"consent_asked"`
	AnonymousID  string `json:"anonymous_id"`
}

// Store reads and writes Config in one directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store for dir, usually ~/.localmcp.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path is the config file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ConfigFileName)
}

// Load returns the stored config, or a disabled one with a fresh anonymous ID.
func (s *Store) Load() (*Config, error) {
	cfg := &Config{}
	data, err := afero.ReadFile(s.fs, s.Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read telemetry config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse telemetry config: %w", err)
		}
	}
	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.NewString()
	}
	return cfg, nil
}

// Save writes cfg with owner-only permissions.
func (s *Store) Save(cfg *Config) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal telemetry config: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write telemetry config: %w", err)
	}
	return nil
}

// Enable turns telemetry on and records that the user chose.
func (c *Config) Enable() {
	c.Enabled = true
	c.ConsentAsked = true
}

// Disable turns telemetry off and records that the user chose.
func (c *Config) Disable() {
	c.Enabled = false
	c.ConsentAsked = true
}

// NeedsConsent reports whether the user has never been asked.
func (c *Config) NeedsConsent() bool {
	return !c.ConsentAsked
}

// IsEnabled reports whether events may be sent.
func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled
}
