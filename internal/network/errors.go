package network

import (
	"errors"
	"fmt"
)

// ErrDelivery matches every *DeliveryError through errors.Is.
var ErrDelivery = errors.New("delivery failed")

// DeliveryError reports that a message could not reach a peer: the peer was
// unreachable, the attempt timed out, or the transport failed.
type DeliveryError struct {
	Peer string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Peer, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is reports ErrDelivery as a match so callers need not know the peer.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}
