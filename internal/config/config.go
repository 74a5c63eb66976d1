// Package config loads the YAML configuration file of the sfdb CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownDatabase is returned by Database for a name the file does not define.
var ErrUnknownDatabase = errors.New("config: unknown database")

// Config is the top-level configuration loaded from file.
type Config struct {
	Databases map[string]DatabaseConfig `yaml:"databases"`
	Backup    BackupConfig              `yaml:"backup"`
	Log       LogConfig                 `yaml:"log"`
}

// DatabaseConfig describes one database file.
type DatabaseConfig struct {
	Path         string `yaml:"path"`
	MaxRecordNum uint32 `yaml:"max_record_num"`
	RecordLen    uint32 `yaml:"record_len"`
	Sync         bool   `yaml:"sync"`
	Overwrite    bool   `yaml:"overwrite"`
}

// BackupConfig selects where backups are stored.
type BackupConfig struct {
	// Target is one of "local", "s3" or "minio".
	Target string      `yaml:"target"`
	Codec  string      `yaml:"codec"`
	Local  LocalConfig `yaml:"local"`
	S3     S3Config    `yaml:"s3"`
	MinIO  MinIOConfig `yaml:"minio"`
}

// LocalConfig defines a local backup directory.
type LocalConfig struct {
	Dir string `yaml:"dir"`
}

// S3Config defines an S3 backup location. Credentials come from the
// default AWS credential chain.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// MinIOConfig defines a MinIO backup location.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// LogConfig defines CLI logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Databases: map[string]DatabaseConfig{},
		Backup: BackupConfig{
			Target: "local",
			Codec:  "none",
			Local:  LocalConfig{Dir: "backups"},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file. Environment variables in the
// file are expanded. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	path, err := expandUserPath(path)
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Databases == nil {
		cfg.Databases = map[string]DatabaseConfig{}
	}
	for name, db := range cfg.Databases {
		if db.Path, err = expandUserPath(db.Path); err != nil {
			return Config{}, err
		}
		cfg.Databases[name] = db
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be checked lazily.
func (c Config) Validate() error {
	for _, name := range c.DatabaseNames() {
		if c.Databases[name].Path == "" {
			return fmt.Errorf("config: database %q: path is required", name)
		}
	}
	switch c.Backup.Target {
	case "", "local", "s3", "minio":
	default:
		return fmt.Errorf("config: unknown backup target %q", c.Backup.Target)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// DatabaseNames returns the configured database names in sorted order.
func (c Config) DatabaseNames() []string {
	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Database returns the named database entry.
func (c Config) Database(name string) (DatabaseConfig, error) {
	db, ok := c.Databases[name]
	if !ok {
		return DatabaseConfig{}, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}
	return db, nil
}

func expandUserPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
