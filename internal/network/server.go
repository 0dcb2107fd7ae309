package network

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var (
	// ErrServerRunning is returned when Listen or Start is called twice.
	ErrServerRunning = errors.New("server is already running")

	// ErrNotListening is returned by Serve before Listen succeeded.
	ErrNotListening = errors.New("server is not listening")
)

// Receiver accepts delivered messages on behalf of a machine.
// Receive must not block; it enqueues the message and reports the
// receiver's identity and current clock.
type Receiver interface {
	Receive(msg Message) Ack
}

// Server represents the gRPC delivery server of one machine.
type Server struct {
	mu sync.RWMutex

	// grpcServer is the underlying gRPC server
	grpcServer *grpc.Server

	// receiver is the owning machine
	receiver Receiver

	// config holds the server configuration
	config *ServerConfig

	// listener is the network listener
	listener net.Listener

	// running indicates if the server is currently running
	running bool

	debug bool
}

// ServerOption is a function that configures a Server.
type ServerOption func(*Server)

// WithDebugLogging logs every delivery through the unary interceptor.
func WithDebugLogging(enabled bool) ServerOption {
	return func(s *Server) {
		s.debug = enabled
	}
}

// NewServer creates a new delivery server with the given configuration.
func NewServer(cfg *ServerConfig, receiver Receiver, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	server := &Server{
		receiver: receiver,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(server)
	}

	grpcOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.UnaryInterceptor(server.unaryInterceptor()),
	}
	if cfg.MaxConcurrentStreams > 0 {
		grpcOpts = append(grpcOpts, grpc.MaxConcurrentStreams(cfg.MaxConcurrentStreams))
	}

	server.grpcServer = grpc.NewServer(grpcOpts...)
	server.grpcServer.RegisterService(&deliveryServiceDesc, server)

	return server, nil
}

// Deliver implements DeliveryServer.
func (s *Server) Deliver(ctx context.Context, msg *Message) (*Ack, error) {
	if s.receiver == nil {
		return nil, status.Error(codes.Unavailable, "receiver not available")
	}
	if msg == nil {
		return nil, status.Error(codes.InvalidArgument, "empty message")
	}

	ack := s.receiver.Receive(*msg)
	return &ack, nil
}

// Listen binds the configured address. Bind failures are returned here so
// that a machine can abort at startup.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.listener != nil {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = listener
	s.running = true
	return nil
}

// Serve accepts connections on the bound listener. It blocks until the
// server is stopped and returns nil after Stop or StopNow.
func (s *Server) Serve() error {
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()

	if listener == nil {
		return ErrNotListening
	}
	if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Start starts the server and begins accepting connections.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// StartAsync starts the server in a goroutine and returns immediately.
// Returns an error if the server is already running or fails to bind.
func (s *Server) StartAsync() error {
	if err := s.Listen(); err != nil {
		return err
	}

	go func() {
		if err := s.Serve(); err != nil {
			log.Printf("network: serve %s: %v", s.config.Address, err)
		}
	}()

	return nil
}

// Stop gracefully stops the server.
// It stops accepting new connections and waits for in-flight deliveries.
func (s *Server) Stop() {
	listener, ok := s.markStopped()
	if !ok {
		return
	}

	s.grpcServer.GracefulStop()
	// Serve may never have taken ownership of the listener.
	_ = listener.Close()
}

// StopNow immediately stops the server without waiting for deliveries.
// It also cuts short a Stop that is still draining.
func (s *Server) StopNow() {
	listener, _ := s.markStopped()

	s.grpcServer.Stop()
	if listener != nil {
		_ = listener.Close()
	}
}

// markStopped clears the running flag and returns the bound listener.
// gRPC is drained outside the lock.
func (s *Server) markStopped() (net.Listener, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, false
	}
	s.running = false
	return s.listener, true
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on.
// Returns empty string if the server is not bound.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if s.debug {
			from := "unknown"
			if p, ok := peer.FromContext(ctx); ok {
				from = p.Addr.String()
			}
			log.Printf("network: %s from %s %v took %s err=%v", info.FullMethod, from, req, time.Since(start), err)
		}
		return resp, err
	}
}
