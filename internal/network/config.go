// Package network implements the gRPC endpoint through which simulated
// machines deliver timestamped messages to one another.
package network

import (
	"fmt"
	"net"
	"time"
)

// ServerConfig holds configuration for the delivery server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., "127.0.0.1:50051")
	Address string

	// MaxRecvMsgSize is the maximum message size in bytes the server can receive.
	MaxRecvMsgSize int

	// MaxSendMsgSize is the maximum message size in bytes the server can send.
	MaxSendMsgSize int

	// MaxConcurrentStreams bounds the number of in-flight deliveries per
	// peer connection. Zero leaves the gRPC default.
	MaxConcurrentStreams uint32
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:        "127.0.0.1:50051",
		MaxRecvMsgSize: 64 * 1024,
		MaxSendMsgSize: 64 * 1024,
	}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}

	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}

	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("max_recv_msg_size must be positive")
	}

	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("max_send_msg_size must be positive")
	}

	return nil
}

// ClientConfig holds configuration for outbound deliveries.
type ClientConfig struct {
	// Timeout bounds a single delivery attempt, dial included.
	Timeout time.Duration

	// MaxCachedConns is the number of peer connections kept open.
	MaxCachedConns int
}

// DefaultClientConfig returns a ClientConfig with default values.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:        time.Second,
		MaxCachedConns: 16,
	}
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("delivery timeout must be positive")
	}
	if c.MaxCachedConns <= 0 {
		return fmt.Errorf("max_cached_conns must be positive")
	}
	return nil
}
