package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DataDir string `toml:"DataDir"`
	// Backend selects the key-value store: "leveldb", "bolt" or "memory".
	Backend string `toml:"Backend"`
	Env     string `toml:"Env"`
	// LogFile, when set, routes structured logs to a rotated file instead of
	// stdout.
	LogFile string `toml:"LogFile"`
	// StaleAfterSlots is the freshness window applied to refreshed records.
	StaleAfterSlots uint64 `toml:"StaleAfterSlots"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./pool-data"
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case "":
		cfg.Backend = "leveldb"
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
	if cfg.StaleAfterSlots == 0 {
		cfg.StaleAfterSlots = 1
	}
	return nil
}

// DatabasePath is the backend-specific location under DataDir.
func (cfg *Config) DatabasePath() string {
	if cfg.Backend == "bolt" {
		return filepath.Join(cfg.DataDir, "records.db")
	}
	return filepath.Join(cfg.DataDir, "records")
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:         "./pool-data",
		Backend:         "leveldb",
		Env:             "local",
		StaleAfterSlots: 1,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
