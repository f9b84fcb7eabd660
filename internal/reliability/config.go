package reliability

import (
	"time"

	"github.com/chriku/roomplan/internal/protocol"
)

// Config holds the timing of a Layer.
type Config struct {
	// Self is the local node.
	Self protocol.NodeID

	// RetryInterval is the delay between re-sends to a peer that has not
	// acknowledged a message.
	RetryInterval time.Duration

	// HeartbeatInterval is the period of PING messages.
	HeartbeatInterval time.Duration

	// SweepInterval is the period of the liveness sweep.
	SweepInterval time.Duration

	// LivenessTimeout is how long a peer may stay silent before it is
	// demoted from the active set.
	LivenessTimeout time.Duration

	// DedupWindow is how long a finalized message id is remembered.
	DedupWindow time.Duration
}

// DefaultConfig returns the default timing for node self.
func DefaultConfig(self protocol.NodeID) Config {
	return Config{
		Self:              self,
		RetryInterval:     3 * time.Second,
		HeartbeatInterval: 2 * time.Second,
		SweepInterval:     1 * time.Second,
		LivenessTimeout:   7 * time.Second,
		DedupWindow:       60 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig(c.Self)
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = d.LivenessTimeout
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = d.DedupWindow
	}
}
