package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/mtreilly/dirsnap/dirsnap"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Dirsnap DirsnapConfig `mapstructure:"dirsnap"`
}

// DirsnapConfig stores dirsnap specific configurations.
type DirsnapConfig struct {
	Walk             bool   `mapstructure:"walk"`
	SnapshotDir      string `mapstructure:"snapshotDir"`
	IgnoreFile       string `mapstructure:"ignoreFile"`
	IncludeIdentical bool   `mapstructure:"includeIdentical"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("dirsnap.walk", true)
	viper.SetDefault("dirsnap.snapshotDir", internal.DefaultSnapshotDir)
	viper.SetDefault("dirsnap.ignoreFile", internal.DefaultIgnoreFile)
	viper.SetDefault("dirsnap.includeIdentical", false)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. dirsnap.snapshotDir becomes DIRSNAP_SNAPSHOTDIR

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
