package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"pglens/internal/models"
)

// ConfigRepository persists the connection list as a JSON document.
type ConfigRepository struct {
	path     string
	validate *validator.Validate
}

func NewConfigRepository(path string) *ConfigRepository {
	return &ConfigRepository{
		path:     path,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (r *ConfigRepository) Path() string {
	return r.path
}

// Read loads and validates the config file. A missing file yields an empty
// config.
func (r *ConfigRepository) Read() (*models.AppConfig, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &models.AppConfig{Connections: []models.ConnectionConfigFile{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg models.AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", r.path, err)
	}
	if cfg.Connections == nil {
		cfg.Connections = []models.ConnectionConfigFile{}
	}
	for i := range cfg.Connections {
		cfg.Connections[i].Normalize()
	}

	if err := r.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", r.path, err)
	}
	return &cfg, nil
}

// Validate checks struct constraints and id uniqueness.
func (r *ConfigRepository) Validate(cfg *models.AppConfig) error {
	if err := r.validate.Struct(cfg); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Connections))
	for _, c := range cfg.Connections {
		if seen[c.ID] {
			return fmt.Errorf("duplicate connection id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// ValidateConnection checks a single connection entry.
func (r *ConfigRepository) ValidateConnection(c *models.ConnectionConfigFile) error {
	return r.validate.Struct(c)
}

// Write stores cfg, replacing the file atomically.
func (r *ConfigRepository) Write(cfg *models.AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}
