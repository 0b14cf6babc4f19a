package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "STUDYTRACK"
	appDir    = ".mathmodeling"
)

type Config struct {
	DataDir      string `mapstructure:"data_dir"`
	ProgressFile string `mapstructure:"progress_file"`
	SettingsFile string `mapstructure:"settings_file"`
	LogDir       string `mapstructure:"log_dir"`
	LogLevel     string `mapstructure:"log_level"`
	Catalog      string `mapstructure:"catalog"`
	Verbose      bool   `mapstructure:"verbose"`
}

// NewViper returns a viper instance with defaults rooted at home and
// STUDYTRACK_* environment overrides enabled.
func NewViper(home string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("progress_file", "")
	v.SetDefault("settings_file", filepath.Join(home, appDir, "config.json"))
	v.SetDefault("log_dir", filepath.Join(home, appDir, "logs"))
	v.SetDefault("log_level", "info")
	v.SetDefault("catalog", "")
	v.SetDefault("verbose", false)
	return v
}

// Load decodes v into a Config and fills derived paths.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, errors.New("data_dir must not be empty")
	}
	if cfg.ProgressFile == "" {
		cfg.ProgressFile = filepath.Join(cfg.DataDir, "progress.json")
	}
	return &cfg, nil
}

// HomeDir falls back to the working directory when no home is available.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}
