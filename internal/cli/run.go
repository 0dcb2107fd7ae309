package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeJamon/goLamportSim/internal/config"
	"github.com/LeJamon/goLamportSim/internal/eventlog"
	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/LeJamon/goLamportSim/internal/vm"
	"github.com/spf13/cobra"
)

// runCmd starts a single machine
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulated machine",
	Long: `Start one simulated machine which:
- serves message deliveries from its peers over gRPC
- runs the paced scheduling loop at a randomly drawn clock rate
- appends every event to <log-dir>/machine_<id>.log

The machine runs until interrupted (SIGINT/SIGTERM).`,
	Example: `  vmsim run --id 1 --port 50051 --peer 50052 --peer 50053
  vmsim run --conf machine2.toml --log-dir logs/trial1`,
	RunE: runMachine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.Int("id", 1, "machine id")
	flags.String("host", "127.0.0.1", "address to bind to")
	flags.IntP("port", "p", 50051, "port to listen on")
	flags.StringSlice("peer", nil, "peer address or port (repeatable, order matters)")
	flags.String("log-dir", "logs", "directory for the event log")
	flags.Int64("seed", 0, "random seed (0 uses the wall clock)")
	flags.String("archive", "none", "event archive backend (none, memory, pebble, leveldb, sqlite)")
	flags.String("archive-path", "", "event archive location")

	for key, flag := range map[string]string{
		"machine.id":      "id",
		"machine.host":    "host",
		"machine.port":    "port",
		"machine.peers":   "peer",
		"log.dir":         "log-dir",
		"simulation.seed": "seed",
		"archive.backend": "archive",
		"archive.path":    "archive-path",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func runMachine(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}

	vmCfg, err := cfg.VMConfig()
	if err != nil {
		return err
	}

	arch, err := archive.Open(&cfg.Archive)
	if err != nil {
		return err
	}
	var logOpts []eventlog.Option
	if arch != nil {
		logOpts = append(logOpts, eventlog.WithArchive(arch))
	}

	opts := []vm.Option{
		vm.WithServerConfig(cfg.ServerConfig()),
		vm.WithClientConfig(cfg.ClientConfig()),
		vm.WithEventLogConfig(cfg.EventLogConfig(), logOpts...),
		vm.WithLogFailures(cfg.Log.DeliveryFailures),
		vm.WithDebug(debug),
	}
	if cfg.Simulation.Seed != 0 {
		opts = append(opts, vm.WithSeed(cfg.Simulation.Seed))
	}

	machine, err := vm.New(vmCfg, opts...)
	if err != nil {
		if arch != nil {
			_ = arch.Close()
		}
		return err
	}

	if !quiet {
		log.Printf("Starting vmsim machine %d", machine.ID())
		log.Printf("  - Listen address: %s", vmCfg.Address)
		log.Printf("  - Peers:          %v", machine.Peers())
		log.Printf("  - Clock rate:     %d ticks/sec", machine.ClockRate())
		log.Printf("  - Event log:      %s/%s", cfg.Log.Dir, eventlog.FileName(machine.ID()))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	defer close(done)
	go handleSignals(sigs, done, cancel, machine)

	if err := machine.Run(ctx); err != nil {
		return err
	}
	log.Printf("Machine %d stopped at logical clock %d with %d queued messages",
		machine.ID(), machine.ClockTime(), machine.QueueLen())
	return nil
}

// handleSignals cancels the run on the first signal and forces the
// delivery server down on the second.
func handleSignals(sigs <-chan os.Signal, done <-chan struct{}, cancel context.CancelFunc, machine *vm.Machine) {
	select {
	case sig := <-sigs:
		log.Printf("Received %v, stopping machine %d (signal again to force)", sig, machine.ID())
		cancel()
	case <-done:
		return
	}

	select {
	case sig := <-sigs:
		log.Printf("Received %v, forcing machine %d down", sig, machine.ID())
		machine.StopNow()
	case <-done:
	}
}
