// Package vm runs a simulated machine: a Lamport clock, an inbound queue, a
// delivery endpoint and the paced scheduling loop that ties them together.
package vm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeJamon/goLamportSim/internal/clock"
	"github.com/LeJamon/goLamportSim/internal/eventlog"
	"github.com/LeJamon/goLamportSim/internal/network"
	"github.com/LeJamon/goLamportSim/internal/queue"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -destination=mock_deliverer_test.go -package=vm . Deliverer

// Deliverer sends a message to a peer address.
type Deliverer interface {
	DeliverTo(ctx context.Context, peer string, msg network.Message) (network.Ack, error)
}

// Rand is the randomness a machine draws from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Machine is one simulated process.
type Machine struct {
	cfg  Config
	rate int

	clock  clock.Clock
	inbox  *queue.Queue[network.Message]
	events *eventlog.Log
	rng    Rand

	deliverer Deliverer
	client    *network.Client // set when the machine owns its deliverer

	server     *network.Server
	serverCfg  *network.ServerConfig
	clientCfg  *network.ClientConfig
	logCfg     eventlog.Config
	logOpts    []eventlog.Option
	forcedRate int

	logFailures bool
	debug       bool

	// started is set once Run has bound the server and written the
	// opening line; only then does Close write the closing one.
	started atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Machine.
type Option func(*Machine)

// WithRand sets the source for the clock-rate draw and action selection.
func WithRand(r Rand) Option {
	return func(m *Machine) {
		m.rng = r
	}
}

// WithSeed seeds a private math/rand source.
func WithSeed(seed int64) Option {
	return func(m *Machine) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// WithDeliverer replaces the gRPC client used for outbound messages.
func WithDeliverer(d Deliverer) Option {
	return func(m *Machine) {
		m.deliverer = d
	}
}

// WithEventLog uses an already opened event log. The machine closes it.
func WithEventLog(l *eventlog.Log) Option {
	return func(m *Machine) {
		m.events = l
	}
}

// WithEventLogConfig sets where the machine opens its event log.
func WithEventLogConfig(cfg eventlog.Config, opts ...eventlog.Option) Option {
	return func(m *Machine) {
		m.logCfg = cfg
		m.logOpts = opts
	}
}

// WithServerConfig overrides the delivery server configuration. The
// address is always taken from Config.Address.
func WithServerConfig(cfg *network.ServerConfig) Option {
	return func(m *Machine) {
		m.serverCfg = cfg
	}
}

// WithClientConfig overrides the delivery client configuration.
func WithClientConfig(cfg *network.ClientConfig) Option {
	return func(m *Machine) {
		m.clientCfg = cfg
	}
}

// WithClockRate fixes the clock rate instead of drawing it.
func WithClockRate(rate int) Option {
	return func(m *Machine) {
		m.forcedRate = rate
	}
}

// WithLogFailures controls whether failed deliveries are written to the
// event log in addition to the process log.
func WithLogFailures(enabled bool) Option {
	return func(m *Machine) {
		m.logFailures = enabled
	}
}

// WithDebug enables per-delivery process logging.
func WithDebug(enabled bool) Option {
	return func(m *Machine) {
		m.debug = enabled
	}
}

// New builds a machine. The clock rate is drawn once, here.
func New(cfg Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config: %w", err)
	}

	m := &Machine{
		cfg:         cfg,
		inbox:       queue.New[network.Message](),
		logFailures: true,
	}
	m.cfg.Peers = append([]string(nil), cfg.Peers...)
	for _, opt := range opts {
		opt(m)
	}

	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.forcedRate > 0 {
		m.rate = m.forcedRate
	} else {
		m.rate = cfg.MinClockRate + m.rng.Intn(cfg.MaxClockRate-cfg.MinClockRate+1)
	}

	serverCfg := network.DefaultServerConfig()
	if m.serverCfg != nil {
		copied := *m.serverCfg
		serverCfg = &copied
	}
	serverCfg.Address = cfg.Address
	server, err := network.NewServer(serverCfg, m, network.WithDebugLogging(m.debug))
	if err != nil {
		return nil, fmt.Errorf("create delivery server: %w", err)
	}
	m.server = server

	if m.deliverer == nil {
		client, err := network.NewClient(m.clientCfg)
		if err != nil {
			return nil, fmt.Errorf("create delivery client: %w", err)
		}
		m.client = client
		m.deliverer = client
	}

	if m.events == nil {
		events, err := eventlog.Open(m.logCfg, cfg.MachineID, m.logOpts...)
		if err != nil {
			if m.client != nil {
				_ = m.client.Close()
			}
			return nil, err
		}
		m.events = events
	}

	return m, nil
}

// ID returns the machine id.
func (m *Machine) ID() int { return m.cfg.MachineID }

// ClockRate returns the fixed ticks-per-second of this machine.
func (m *Machine) ClockRate() int { return m.rate }

// ClockTime returns the current logical clock value.
func (m *Machine) ClockTime() uint64 { return m.clock.Time() }

// QueueLen returns the current inbound backlog.
func (m *Machine) QueueLen() int { return m.inbox.Len() }

// Peers returns a copy of the peer addresses.
func (m *Machine) Peers() []string { return append([]string(nil), m.cfg.Peers...) }

// Address returns the bound server address, or the configured one before
// the server is listening.
func (m *Machine) Address() string {
	if addr := m.server.Address(); addr != "" {
		return addr
	}
	return m.cfg.Address
}

// Receive implements network.Receiver. It only enqueues; the clock is
// advanced later by the loop when the message is drained.
func (m *Machine) Receive(msg network.Message) network.Ack {
	m.inbox.Enqueue(msg)
	return network.Ack{
		MachineID: int64(m.cfg.MachineID),
		Timestamp: m.clock.Time(),
	}
}

// Step runs one iteration of the scheduling loop without pacing. A queued
// message always takes priority and at most one is drained per step.
func (m *Machine) Step(ctx context.Context) Action {
	if msg, ok := m.inbox.TryDequeue(); ok {
		t := m.clock.Merge(msg.Timestamp)
		m.record("Processed message from Machine %d | Logical Clock: %d | Length of Queue: %d",
			msg.SenderID, t, m.inbox.Len())
		return ActionProcess
	}

	action := chooseAction(m.rng.Intn(m.cfg.ActionRange)+1, len(m.cfg.Peers))
	switch action {
	case ActionSendFirst:
		m.send(ctx, m.cfg.Peers[0])
	case ActionSendSecond:
		m.send(ctx, m.cfg.Peers[1])
	case ActionSendAll:
		for _, peer := range m.cfg.Peers {
			m.send(ctx, peer)
		}
	default:
		t := m.clock.Tick()
		m.record("Internal Event | Logical Clock: %d", t)
	}
	return action
}

// send ticks, then attempts delivery. The tick stands even if delivery fails.
func (m *Machine) send(ctx context.Context, peer string) {
	t := m.clock.Tick()
	msg := network.Message{SenderID: int64(m.cfg.MachineID), Timestamp: t}

	ack, err := m.deliverer.DeliverTo(ctx, peer, msg)
	if err != nil {
		log.Printf("vm %d: failed to send message to Machine %s: %v", m.cfg.MachineID, peer, err)
		if m.logFailures {
			m.record("Failed to send message to Machine %s | Logical Clock: %d", peer, t)
		}
		return
	}

	if m.debug {
		log.Printf("vm %d: %s acked by machine %d at %d", m.cfg.MachineID, msg, ack.MachineID, ack.Timestamp)
	}
	m.record("Sent message to Machine %s | Logical Clock: %d", peer, t)
}

func (m *Machine) record(format string, args ...any) {
	if err := m.events.Appendf(format, args...); err != nil {
		log.Printf("vm %d: event log: %v", m.cfg.MachineID, err)
	}
}

// Pause returns how long to sleep after an iteration that took elapsed so
// that the loop converges to rate iterations per second. Never negative.
func Pause(rate int, elapsed time.Duration) time.Duration {
	if rate <= 0 {
		return 0
	}
	period := time.Second / time.Duration(rate)
	if elapsed >= period {
		return 0
	}
	return period - elapsed
}

// RunSteps runs exactly n paced iterations, without serving deliveries.
func (m *Machine) RunSteps(ctx context.Context, n int) error {
	return m.loop(ctx, n)
}

// loop runs paced iterations until ctx is done, or n times when n >= 0.
func (m *Machine) loop(ctx context.Context, n int) error {
	for i := 0; n < 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		m.Step(ctx)
		if err := sleep(ctx, Pause(m.rate, time.Since(start))); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run binds the delivery server and then runs it alongside the scheduling
// loop until ctx is cancelled or the server is stopped with StopNow. A bind
// failure is returned before the loop starts. Run closes the machine on
// return and yields nil on cancellation.
func (m *Machine) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.Join(err, m.Close())
	}()

	if err := m.server.Listen(); err != nil {
		return fmt.Errorf("machine %d: listen on %s: %w", m.cfg.MachineID, m.cfg.Address, err)
	}

	log.Printf("vm %d: running at %d ticks/sec on %s, peers %v", m.cfg.MachineID, m.rate, m.Address(), m.cfg.Peers)
	m.record("Started with clock speed %d", m.rate)
	m.started.Store(true)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := new(errgroup.Group)
	g.Go(func() error {
		// The loop ends with the server, however it was stopped.
		defer cancel()
		return m.server.Serve()
	})
	g.Go(func() error {
		defer m.server.Stop()
		if err := m.loop(runCtx, -1); err != nil && runCtx.Err() == nil {
			return err
		}
		return nil
	})
	return g.Wait()
}

// StopNow stops the delivery server without waiting for in-flight
// deliveries, which also ends Run. It is meant for a forced shutdown after
// a graceful one was requested through Run's context.
func (m *Machine) StopNow() {
	m.server.StopNow()
}

// Close stops the server, writes the final line if the machine was started
// and releases the event log and the owned client. Safe to call more than
// once.
func (m *Machine) Close() error {
	m.closeOnce.Do(func() {
		m.server.Stop()
		if m.started.Load() {
			m.record("Stopped | Logical Clock: %d | Length of Queue: %d", m.clock.Time(), m.inbox.Len())
		}

		var errs []error
		if err := m.events.Close(); err != nil {
			errs = append(errs, err)
		}
		if m.client != nil {
			if err := m.client.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}
