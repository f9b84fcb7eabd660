package replication

import (
	"math/rand"
	"time"

	"github.com/chriku/roomplan/internal/protocol"
)

// Config holds the election timing of a StateMachine.
type Config struct {
	// Self is the local node.
	Self protocol.NodeID

	// ElectionTimeout is how long a candidate waits for a contesting OK
	// before asking for votes.
	ElectionTimeout time.Duration

	// VoteTimeout is how long votes are collected. A log handoff from the
	// donor must make progress within the same period.
	VoteTimeout time.Duration

	// DiscoveryTimeout is how long a starting node waits for a leader to
	// answer its CATCH_UP before starting an election.
	DiscoveryTimeout time.Duration

	// StandDownMin and StandDownMax bound the random delay before a node
	// that stood down restarts its election.
	StandDownMin time.Duration
	StandDownMax time.Duration

	// Jitter returns the stand-down delay. Nil picks uniformly from
	// [StandDownMin, StandDownMax).
	Jitter func() time.Duration
}

// DefaultConfig returns the default timing for node self.
func DefaultConfig(self protocol.NodeID) Config {
	return Config{
		Self:             self,
		ElectionTimeout:  3 * time.Second,
		VoteTimeout:      3 * time.Second,
		DiscoveryTimeout: 4 * time.Second,
		StandDownMin:     500 * time.Millisecond,
		StandDownMax:     1500 * time.Millisecond,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig(c.Self)
	if c.ElectionTimeout <= 0 {
		c.ElectionTimeout = d.ElectionTimeout
	}
	if c.VoteTimeout <= 0 {
		c.VoteTimeout = d.VoteTimeout
	}
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = d.DiscoveryTimeout
	}
	if c.StandDownMin < 0 {
		c.StandDownMin = 0
	}
	if c.StandDownMax < c.StandDownMin {
		c.StandDownMax = c.StandDownMin
	}
	if c.Jitter == nil {
		lo, hi := c.StandDownMin, c.StandDownMax
		c.Jitter = func() time.Duration {
			if hi <= lo {
				return lo
			}
			return lo + time.Duration(rand.Int63n(int64(hi-lo)))
		}
	}
}
