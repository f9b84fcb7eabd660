package config

import "time"

// Multicast defaults used by existing deployments.
const (
	DefaultMulticastAddress = "224.0.0.124"
	DefaultMulticastPort    = 41234
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:       "",
			Nickname: "",
		},
		Multicast: MulticastConfig{
			Address:   DefaultMulticastAddress,
			Port:      DefaultMulticastPort,
			Interface: "",
			TTL:       1,
			Loopback:  true,
		},
		Reliability: ReliabilityConfig{
			RetryInterval:     3 * time.Second,
			HeartbeatInterval: 2 * time.Second,
			SweepInterval:     1 * time.Second,
			LivenessTimeout:   7 * time.Second,
			DedupWindow:       60 * time.Second,
		},
		Election: ElectionConfig{
			ElectionTimeout:  3 * time.Second,
			VoteTimeout:      3 * time.Second,
			DiscoveryTimeout: 4 * time.Second,
			StandDownMin:     500 * time.Millisecond,
			StandDownMax:     1500 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Booking: BookingConfig{
			SlotDate: "2026-03-11",
			Users:    nil,
			Rooms:    nil,
		},
	}
}
