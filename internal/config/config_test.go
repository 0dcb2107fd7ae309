package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 1, config.Machine.ID)
	assert.Equal(t, "127.0.0.1:50051", config.ListenAddress())
	assert.Empty(t, config.Machine.Peers)
	assert.Equal(t, 1, config.Simulation.MinClockRate)
	assert.Equal(t, 6, config.Simulation.MaxClockRate)
	assert.Equal(t, 10, config.Simulation.ActionRange)
	assert.Equal(t, time.Second, config.Network.DeliveryTimeout)
	assert.True(t, config.Log.DeliveryFailures)
	assert.Equal(t, "none", config.Archive.Backend)
	assert.Empty(t, config.GetConfigPath())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	mainConfigContent := `
[machine]
id = 2
host = "127.0.0.1"
port = 50052
peers = ["50051", "10.0.0.3:50053"]

[simulation]
min_clock_rate = 2
max_clock_rate = 4
seed = 42

[network]
delivery_timeout = "250ms"

[log]
dir = "trial1"
echo = true
delivery_failures = false

[archive]
backend = "pebble"
path = "archive"
`
	mainConfigPath := filepath.Join(tempDir, "vmsim.toml")
	require.NoError(t, os.WriteFile(mainConfigPath, []byte(mainConfigContent), 0644))

	config, err := LoadConfig(mainConfigPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, mainConfigPath, config.GetConfigPath())
	assert.Equal(t, 2, config.Machine.ID)
	assert.Equal(t, "127.0.0.1:50052", config.ListenAddress())
	assert.Equal(t, int64(42), config.Simulation.Seed)
	assert.Equal(t, 250*time.Millisecond, config.Network.DeliveryTimeout)
	assert.Equal(t, "trial1", config.Log.Dir)
	assert.True(t, config.Log.Echo)
	assert.False(t, config.Log.DeliveryFailures)
	assert.Equal(t, "pebble", config.Archive.Backend)

	peers, err := config.PeerAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:50051", "10.0.0.3:50053"}, peers)

	vmCfg, err := config.VMConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, vmCfg.MachineID)
	assert.Equal(t, 2, vmCfg.MinClockRate)
	assert.Equal(t, 4, vmCfg.MaxClockRate)
	assert.NoError(t, vmCfg.Validate())

	assert.Equal(t, 250*time.Millisecond, config.ClientConfig().Timeout)
	assert.NoError(t, config.ServerConfig().Validate())
	assert.Equal(t, "trial1", config.EventLogConfig().Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("VMSIM_MACHINE_ID", "3")
	t.Setenv("VMSIM_MACHINE_PORT", "50053")
	t.Setenv("VMSIM_SIMULATION_MAX_CLOCK_RATE", "9")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 3, config.Machine.ID)
	assert.Equal(t, 50053, config.Machine.Port)
	assert.Equal(t, 9, config.Simulation.MaxClockRate)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		config, err := LoadConfig("")
		require.NoError(t, err)
		return config
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative id", func(c *Config) { c.Machine.ID = -1 }, "machine.id"},
		{"empty host", func(c *Config) { c.Machine.Host = "" }, "machine.host"},
		{"port out of range", func(c *Config) { c.Machine.Port = 70000 }, "machine.port"},
		{"bad peer", func(c *Config) { c.Machine.Peers = []string{"not-an-address"} }, "machine.peers"},
		{"bad peer port", func(c *Config) { c.Machine.Peers = []string{"0"} }, "machine.peers"},
		{"zero min rate", func(c *Config) { c.Simulation.MinClockRate = 0 }, "simulation.min_clock_rate"},
		{"max below min", func(c *Config) { c.Simulation.MaxClockRate = 0 }, "simulation.max_clock_rate"},
		{"small action range", func(c *Config) { c.Simulation.ActionRange = 2 }, "simulation.action_range"},
		{"zero timeout", func(c *Config) { c.Network.DeliveryTimeout = 0 }, "network.delivery_timeout"},
		{"zero conns", func(c *Config) { c.Network.MaxCachedConns = 0 }, "network.max_cached_conns"},
		{"unknown archive", func(c *Config) { c.Archive.Backend = "nudb" }, "archive"},
		{"archive without path", func(c *Config) { c.Archive.Backend = "sqlite" }, "archive"},
		{"leveldb without path", func(c *Config) { c.Archive.Backend = "leveldb" }, "archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := ValidateConfig(config)
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, SaveExampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1, config.Machine.ID)

	peers, err := config.PeerAddresses()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:50052", "localhost:50053"}, peers)
}
