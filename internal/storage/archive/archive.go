// Package archive stores a queryable copy of every event a machine logs.
// Backends register themselves by name; the text event log remains the
// primary artifact.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrClosed is returned by operations on a closed archive.
	ErrClosed = errors.New("archive is closed")

	// ErrUnknownBackend is returned by Open for an unregistered backend.
	ErrUnknownBackend = errors.New("unknown archive backend")
)

// BackendNone disables archiving.
const BackendNone = "none"

// Record is one archived event.
type Record struct {
	MachineID   int       `codec:"machine_id"`
	Seq         uint64    `codec:"seq"`
	WallTime    time.Time `codec:"wall_time"`
	Description string    `codec:"description"`
}

// Archive persists records and reads them back in sequence order.
type Archive interface {
	Store(ctx context.Context, rec Record) error
	Records(ctx context.Context, machineID int) ([]Record, error)

	// LastSeq returns the highest stored sequence number for machineID,
	// or 0 if none. A reopened event log continues after it.
	LastSeq(ctx context.Context, machineID int) (uint64, error)

	Close() error
}

// Config selects and locates an archive backend.
type Config struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// Validate checks that the backend is known and has a path if it needs one.
func (c *Config) Validate() error {
	if c.Backend == "" || c.Backend == BackendNone {
		return nil
	}
	if !IsBackendAvailable(c.Backend) {
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
	if c.Backend != BackendMemory && c.Path == "" {
		return fmt.Errorf("archive backend %s requires a path", c.Backend)
	}
	return nil
}

// Factory creates an archive from its configuration.
type Factory func(cfg *Config) (Archive, error)

var (
	backendMu        sync.RWMutex
	backendFactories = make(map[string]Factory)
)

// RegisterBackend registers a backend factory with the given name.
func RegisterBackend(name string, factory Factory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendFactories[name] = factory
}

// IsBackendAvailable checks if a backend with the given name is registered.
func IsBackendAvailable(name string) bool {
	backendMu.RLock()
	_, ok := backendFactories[name]
	backendMu.RUnlock()
	return ok
}

// AvailableBackends returns the registered backend names, sorted.
func AvailableBackends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the archive described by cfg. It returns a nil Archive and
// no error when archiving is disabled.
func Open(cfg *Config) (Archive, error) {
	if cfg == nil || cfg.Backend == "" || cfg.Backend == BackendNone {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backendMu.RLock()
	factory := backendFactories[cfg.Backend]
	backendMu.RUnlock()

	a, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", cfg.Backend, err)
	}
	return a, nil
}
