package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrClientClosed is returned by DeliverTo after Close.
var ErrClientClosed = errors.New("client is closed")

// Client delivers messages to peer machines. Connections are dialed lazily
// and kept in an LRU; evicted connections are closed.
type Client struct {
	mu     sync.Mutex
	config *ClientConfig
	conns  *lru.Cache[string, *grpc.ClientConn]
	closed bool
}

// NewClient creates a client with the given configuration.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conns, err := lru.NewWithEvict[string, *grpc.ClientConn](cfg.MaxCachedConns, func(_ string, conn *grpc.ClientConn) {
		_ = conn.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("create connection cache: %w", err)
	}

	return &Client{
		config: cfg,
		conns:  conns,
	}, nil
}

// DeliverTo sends msg to the machine listening at peer and returns its Ack.
// The attempt is bounded by the configured timeout; any failure is returned
// as a *DeliveryError.
func (c *Client) DeliverTo(ctx context.Context, peer string, msg Message) (Ack, error) {
	conn, err := c.conn(peer)
	if err != nil {
		return Ack{}, &DeliveryError{Peer: peer, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var ack Ack
	if err := conn.Invoke(ctx, deliverMethod, &msg, &ack); err != nil {
		return Ack{}, &DeliveryError{Peer: peer, Err: err}
	}
	return ack, nil
}

// Close closes every cached peer connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.conns.Purge()
	return nil
}

func (c *Client) conn(peer string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if conn, ok := c.conns.Get(peer); ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(peer,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, err
	}
	c.conns.Add(peer, conn)
	return conn, nil
}
