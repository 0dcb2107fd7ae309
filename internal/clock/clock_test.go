package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickFromZero(t *testing.T) {
	var c Clock
	assert.Equal(t, uint64(0), c.Time())
	assert.Equal(t, uint64(1), c.Tick())
	assert.Equal(t, uint64(1), c.Time())
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		start    uint64
		received uint64
		expected uint64
	}{
		{"received lower", 5, 3, 6},
		{"received higher", 5, 10, 11},
		{"received equal", 5, 5, 6},
		{"both zero", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Clock
			c.Set(tt.start)
			assert.Equal(t, tt.expected, c.Merge(tt.received))
			assert.Equal(t, tt.expected, c.Time())
		})
	}
}

func TestClockNeverDecreases(t *testing.T) {
	var c Clock
	prev := c.Time()
	for i, r := range []uint64{0, 7, 2, 2, 30, 1} {
		var got uint64
		if i%2 == 0 {
			got = c.Tick()
		} else {
			got = c.Merge(r)
		}
		assert.Greater(t, got, prev)
		prev = got
	}
}
