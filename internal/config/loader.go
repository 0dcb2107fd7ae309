package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. VMSIM_MACHINE_ID.
const EnvPrefix = "VMSIM"

// NewViper returns a viper instance with defaults and environment support.
// Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (if configPath is not empty)
// 3. Environment variables (VMSIM_ prefix)
func LoadConfig(configPath string) (*Config, error) {
	return Load(NewViper(), configPath)
}

// Load reads configPath (if set) into v, unmarshals and validates.
// Flags bound to v take precedence over every other source.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		if err := loadMainConfig(v, configPath); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = configPath

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return nil
}

// SaveExampleConfig saves an example configuration file
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	for key, value := range generateExampleConfig() {
		v.Set(key, value)
	}

	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}

	return nil
}

// generateExampleConfig generates example configuration values for the
// first machine of a three-machine run on one host.
func generateExampleConfig() map[string]interface{} {
	return map[string]interface{}{
		"machine.id":        1,
		"machine.host":      "127.0.0.1",
		"machine.port":      50051,
		"machine.peers":     []string{"50052", "50053"},
		"machine.peer_host": "localhost",

		"simulation.min_clock_rate": 1,
		"simulation.max_clock_rate": 6,
		"simulation.action_range":   10,

		"network.delivery_timeout": "1s",
		"network.max_cached_conns": 16,

		"log.dir":               "logs",
		"log.echo":              true,
		"log.delivery_failures": true,

		"archive.backend": "none",
	}
}
