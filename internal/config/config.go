// Package config provides configuration parsing and management for roomplan nodes.
package config

import "time"

// Config holds the complete node configuration.
type Config struct {
	Node        NodeConfig        `yaml:"node"`
	Multicast   MulticastConfig   `yaml:"multicast"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Election    ElectionConfig    `yaml:"election"`
	Logging     LogConfig         `yaml:"logging"`
	Booking     BookingConfig     `yaml:"booking"`
}

// NodeConfig holds the node identity. An empty ID is replaced by a random
// one at startup.
type NodeConfig struct {
	ID       string `yaml:"id"`
	Nickname string `yaml:"nickname"`
}

// MulticastConfig holds the multicast group the node joins.
type MulticastConfig struct {
	Address   string `yaml:"address"`
	Port      int    `yaml:"port"`
	Interface string `yaml:"interface"`
	TTL       int    `yaml:"ttl"`
	Loopback  bool   `yaml:"loopback"`
}

// ReliabilityConfig holds retry and failure detector timing.
type ReliabilityConfig struct {
	RetryInterval     time.Duration `yaml:"retryInterval"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	SweepInterval     time.Duration `yaml:"sweepInterval"`
	LivenessTimeout   time.Duration `yaml:"livenessTimeout"`
	DedupWindow       time.Duration `yaml:"dedupWindow"`
}

// ElectionConfig holds leader election timing.
type ElectionConfig struct {
	ElectionTimeout  time.Duration `yaml:"electionTimeout"`
	VoteTimeout      time.Duration `yaml:"voteTimeout"`
	DiscoveryTimeout time.Duration `yaml:"discoveryTimeout"`
	StandDownMin     time.Duration `yaml:"standDownMin"`
	StandDownMax     time.Duration `yaml:"standDownMax"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// BookingConfig holds the rooms and users every node knows about. All
// nodes of a cluster must share the same directory.
type BookingConfig struct {
	SlotDate string       `yaml:"slotDate"`
	Users    []string     `yaml:"users"`
	Rooms    []RoomConfig `yaml:"rooms"`
}

// RoomConfig describes a bookable room.
type RoomConfig struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}
