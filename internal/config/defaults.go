package config

import (
	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/LeJamon/goLamportSim/internal/vm"
	"github.com/spf13/viper"
)

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Machine defaults
	v.SetDefault("machine.id", 1)
	v.SetDefault("machine.host", "127.0.0.1")
	v.SetDefault("machine.port", 50051)
	v.SetDefault("machine.peers", []string{})
	v.SetDefault("machine.peer_host", "localhost")

	// Simulation defaults
	v.SetDefault("simulation.min_clock_rate", vm.DefaultMinClockRate)
	v.SetDefault("simulation.max_clock_rate", vm.DefaultMaxClockRate)
	v.SetDefault("simulation.action_range", vm.DefaultActionRange)
	v.SetDefault("simulation.seed", 0)

	// Network defaults
	v.SetDefault("network.delivery_timeout", "1s")
	v.SetDefault("network.max_cached_conns", 16)
	v.SetDefault("network.max_recv_msg_size", 64*1024)
	v.SetDefault("network.max_send_msg_size", 64*1024)

	// Event log defaults
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.echo", false)
	v.SetDefault("log.delivery_failures", true)

	// Archive defaults
	v.SetDefault("archive.backend", archive.BackendNone)
	v.SetDefault("archive.path", "")
}
