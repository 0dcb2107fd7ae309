// Package clock implements the Lamport logical clock owned by a simulated machine.
package clock

import "sync/atomic"

// Clock is a Lamport logical clock.
//
// The zero value is a clock at time 0, ready to use. Tick and Merge must only
// be called by the owning scheduling loop; Time may be read from any goroutine.
type Clock struct {
	time atomic.Uint64
}

// Tick registers a local event (internal or send) and returns the new time.
func (c *Clock) Tick() uint64 {
	return c.time.Add(1)
}

// Merge applies the receive rule: time = max(time, received) + 1.
func (c *Clock) Merge(received uint64) uint64 {
	next := max(c.time.Load(), received) + 1
	c.time.Store(next)
	return next
}

// Time returns the current clock value.
func (c *Clock) Time() uint64 {
	return c.time.Load()
}

// Set forces the clock to v. Used to seed scenarios in tests.
func (c *Clock) Set(v uint64) {
	c.time.Store(v)
}
