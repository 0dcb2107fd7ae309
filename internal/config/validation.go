package config

import (
	"fmt"
)

// ConfigError names the offending field of an invalid configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateMachine(&config.Machine); err != nil {
		return err
	}
	if _, err := config.PeerAddresses(); err != nil {
		return err
	}
	if err := validateSimulation(&config.Simulation); err != nil {
		return err
	}
	if err := validateNetwork(&config.Network); err != nil {
		return err
	}
	if err := config.Archive.Validate(); err != nil {
		return &ConfigError{Field: "archive", Reason: err.Error()}
	}
	return nil
}

func validateMachine(m *MachineConfig) error {
	if m.ID < 0 {
		return &ConfigError{Field: "machine.id", Reason: "must not be negative"}
	}
	if m.Host == "" {
		return &ConfigError{Field: "machine.host", Reason: "is required"}
	}
	// Port 0 asks the OS for a free port.
	if m.Port < 0 || m.Port > 65535 {
		return &ConfigError{Field: "machine.port", Reason: fmt.Sprintf("%d out of range", m.Port)}
	}
	return nil
}

func validateSimulation(s *SimulationConfig) error {
	if s.MinClockRate <= 0 {
		return &ConfigError{Field: "simulation.min_clock_rate", Reason: "must be positive"}
	}
	if s.MaxClockRate < s.MinClockRate {
		return &ConfigError{Field: "simulation.max_clock_rate", Reason: "must not be below min_clock_rate"}
	}
	if s.ActionRange < 3 {
		return &ConfigError{Field: "simulation.action_range", Reason: "must be at least 3"}
	}
	return nil
}

func validateNetwork(n *NetworkConfig) error {
	if n.DeliveryTimeout <= 0 {
		return &ConfigError{Field: "network.delivery_timeout", Reason: "must be positive"}
	}
	if n.MaxCachedConns <= 0 {
		return &ConfigError{Field: "network.max_cached_conns", Reason: "must be positive"}
	}
	if n.MaxRecvMsgSize <= 0 {
		return &ConfigError{Field: "network.max_recv_msg_size", Reason: "must be positive"}
	}
	if n.MaxSendMsgSize <= 0 {
		return &ConfigError{Field: "network.max_send_msg_size", Reason: "must be positive"}
	}
	return nil
}
