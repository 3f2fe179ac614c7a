package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string `mapstructure:"ENV"`
	DBPath         string `mapstructure:"DB_PATH"`
	BackupDir      string `mapstructure:"BACKUP_DIR"`
	BackupEnabled  bool   `mapstructure:"BACKUP_ENABLED"`
	AttachmentsDir string `mapstructure:"ATTACHMENTS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PATH", "gaitdoc.db")
	v.SetDefault("BACKUP_DIR", "")
	v.SetDefault("BACKUP_ENABLED", true)
	v.SetDefault("ATTACHMENTS_DIR", "attachments")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("DB_PATH")
	v.BindEnv("BACKUP_DIR")
	v.BindEnv("BACKUP_ENABLED")
	v.BindEnv("ATTACHMENTS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("DB_PATH must not be empty")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ResolvedBackupDir returns the backup directory, defaulting to a "backups"
// directory next to the database file when unset.
func (c *Config) ResolvedBackupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}
