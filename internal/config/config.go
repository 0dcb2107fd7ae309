// Package config loads the configuration of a simulated machine from
// defaults, an optional TOML file, VMSIM_ environment variables and flags.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/LeJamon/goLamportSim/internal/eventlog"
	"github.com/LeJamon/goLamportSim/internal/network"
	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/LeJamon/goLamportSim/internal/vm"
)

// Config represents the complete vmsim configuration
type Config struct {
	Machine    MachineConfig    `toml:"machine" mapstructure:"machine"`
	Simulation SimulationConfig `toml:"simulation" mapstructure:"simulation"`
	Network    NetworkConfig    `toml:"network" mapstructure:"network"`
	Log        LogConfig        `toml:"log" mapstructure:"log"`
	Archive    archive.Config   `toml:"archive" mapstructure:"archive"`

	configPath string `toml:"-" mapstructure:"-"`
}

// MachineConfig identifies this process and its peers.
type MachineConfig struct {
	ID   int    `toml:"id" mapstructure:"id"`
	Host string `toml:"host" mapstructure:"host"`
	Port int    `toml:"port" mapstructure:"port"`

	// Peers are "host:port" addresses or bare ports, which are resolved
	// against PeerHost.
	Peers    []string `toml:"peers" mapstructure:"peers"`
	PeerHost string   `toml:"peer_host" mapstructure:"peer_host"`
}

// SimulationConfig holds the randomness and pacing knobs.
type SimulationConfig struct {
	MinClockRate int `toml:"min_clock_rate" mapstructure:"min_clock_rate"`
	MaxClockRate int `toml:"max_clock_rate" mapstructure:"max_clock_rate"`
	ActionRange  int `toml:"action_range" mapstructure:"action_range"`

	// Seed makes a run reproducible; 0 draws from the wall clock.
	Seed int64 `toml:"seed" mapstructure:"seed"`
}

// NetworkConfig holds delivery server and client settings.
type NetworkConfig struct {
	DeliveryTimeout time.Duration `toml:"delivery_timeout" mapstructure:"delivery_timeout"`
	MaxCachedConns  int           `toml:"max_cached_conns" mapstructure:"max_cached_conns"`
	MaxRecvMsgSize  int           `toml:"max_recv_msg_size" mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize  int           `toml:"max_send_msg_size" mapstructure:"max_send_msg_size"`
}

// LogConfig controls the event log.
type LogConfig struct {
	Dir  string `toml:"dir" mapstructure:"dir"`
	Echo bool   `toml:"echo" mapstructure:"echo"`

	// DeliveryFailures writes failed sends to the event log.
	DeliveryFailures bool `toml:"delivery_failures" mapstructure:"delivery_failures"`
}

// GetConfigPath returns the path of the file the config was read from, if any.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ListenAddress returns host:port for the delivery server.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.Machine.Host, strconv.Itoa(c.Machine.Port))
}

// PeerAddresses returns the peers as host:port addresses, in order.
func (c *Config) PeerAddresses() ([]string, error) {
	out := make([]string, 0, len(c.Machine.Peers))
	for _, p := range c.Machine.Peers {
		addr, err := normalizePeer(p, c.Machine.PeerHost)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func normalizePeer(peer, defaultHost string) (string, error) {
	if port, err := strconv.Atoi(peer); err == nil {
		if port <= 0 || port > 65535 {
			return "", &ConfigError{Field: "machine.peers", Reason: fmt.Sprintf("port %d out of range", port)}
		}
		return net.JoinHostPort(defaultHost, peer), nil
	}
	if _, _, err := net.SplitHostPort(peer); err != nil {
		return "", &ConfigError{Field: "machine.peers", Reason: fmt.Sprintf("invalid peer %q: %v", peer, err)}
	}
	return peer, nil
}

// VMConfig converts the configuration into a machine description.
func (c *Config) VMConfig() (vm.Config, error) {
	peers, err := c.PeerAddresses()
	if err != nil {
		return vm.Config{}, err
	}
	return vm.Config{
		MachineID:    c.Machine.ID,
		Address:      c.ListenAddress(),
		Peers:        peers,
		MinClockRate: c.Simulation.MinClockRate,
		MaxClockRate: c.Simulation.MaxClockRate,
		ActionRange:  c.Simulation.ActionRange,
	}, nil
}

// ServerConfig returns the delivery server settings.
func (c *Config) ServerConfig() *network.ServerConfig {
	return &network.ServerConfig{
		Address:        c.ListenAddress(),
		MaxRecvMsgSize: c.Network.MaxRecvMsgSize,
		MaxSendMsgSize: c.Network.MaxSendMsgSize,
	}
}

// ClientConfig returns the delivery client settings.
func (c *Config) ClientConfig() *network.ClientConfig {
	return &network.ClientConfig{
		Timeout:        c.Network.DeliveryTimeout,
		MaxCachedConns: c.Network.MaxCachedConns,
	}
}

// EventLogConfig returns the event log settings.
func (c *Config) EventLogConfig() eventlog.Config {
	return eventlog.Config{
		Dir:  c.Log.Dir,
		Echo: c.Log.Echo,
	}
}
