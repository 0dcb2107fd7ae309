package vm

import (
	"errors"
	"fmt"
)

const (
	// DefaultMinClockRate and DefaultMaxClockRate bound the random
	// ticks-per-second drawn for each machine.
	DefaultMinClockRate = 1
	DefaultMaxClockRate = 6

	// DefaultActionRange is the size of the uniform draw that selects a
	// local action. Outcomes 1..3 are sends; the rest are internal events.
	DefaultActionRange = 10

	minActionRange = 3
)

// Config describes one machine. It is immutable once the machine is built.
type Config struct {
	MachineID int
	Address   string
	Peers     []string

	MinClockRate int
	MaxClockRate int
	ActionRange  int
}

// DefaultConfig returns a Config with the default rate and action ranges.
func DefaultConfig(machineID int, address string, peers ...string) Config {
	return Config{
		MachineID:    machineID,
		Address:      address,
		Peers:        peers,
		MinClockRate: DefaultMinClockRate,
		MaxClockRate: DefaultMaxClockRate,
		ActionRange:  DefaultActionRange,
	}
}

// Validate checks the machine configuration.
func (c *Config) Validate() error {
	if c.MachineID < 0 {
		return errors.New("machine id must not be negative")
	}
	if c.Address == "" {
		return errors.New("listen address is required")
	}
	if c.MinClockRate <= 0 {
		return fmt.Errorf("min clock rate must be positive, got %d", c.MinClockRate)
	}
	if c.MaxClockRate < c.MinClockRate {
		return fmt.Errorf("max clock rate %d is below min clock rate %d", c.MaxClockRate, c.MinClockRate)
	}
	if c.ActionRange < minActionRange {
		return fmt.Errorf("action range must be at least %d, got %d", minActionRange, c.ActionRange)
	}
	for i, p := range c.Peers {
		if p == "" {
			return fmt.Errorf("peer %d has an empty address", i)
		}
	}
	return nil
}
