package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of validation errors.
// An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error

	errs = append(errs, validateMulticastConfig(&config.Multicast)...)
	errs = append(errs, validateReliabilityConfig(&config.Reliability)...)
	errs = append(errs, validateElectionConfig(&config.Election)...)
	errs = append(errs, validateLogConfig(&config.Logging)...)
	errs = append(errs, validateBookingConfig(&config.Booking)...)

	return errs
}

// validateMulticastConfig validates the multicast group settings.
func validateMulticastConfig(config *MulticastConfig) []error {
	var errs []error

	ip := net.ParseIP(config.Address)
	if ip == nil || ip.To4() == nil {
		errs = append(errs, ValidationError{
			Field:   "multicast.address",
			Message: "must be an IPv4 address",
		})
	} else if !ip.IsMulticast() {
		errs = append(errs, ValidationError{
			Field:   "multicast.address",
			Message: fmt.Sprintf("%s is not a multicast address", config.Address),
		})
	}

	if config.Port <= 0 || config.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "multicast.port",
			Message: "must be between 1 and 65535",
		})
	}

	if config.TTL < 0 || config.TTL > 255 {
		errs = append(errs, ValidationError{
			Field:   "multicast.ttl",
			Message: "must be between 0 and 255",
		})
	}

	return errs
}

// validateReliabilityConfig validates failure detector timing.
func validateReliabilityConfig(config *ReliabilityConfig) []error {
	var errs []error

	errs = appendPositive(errs, "reliability.retryInterval", config.RetryInterval)
	errs = appendPositive(errs, "reliability.heartbeatInterval", config.HeartbeatInterval)
	errs = appendPositive(errs, "reliability.sweepInterval", config.SweepInterval)
	errs = appendPositive(errs, "reliability.livenessTimeout", config.LivenessTimeout)
	errs = appendPositive(errs, "reliability.dedupWindow", config.DedupWindow)

	// A peer must get at least one heartbeat through before it is declared dead.
	if config.HeartbeatInterval > 0 && config.LivenessTimeout <= config.HeartbeatInterval {
		errs = append(errs, ValidationError{
			Field:   "reliability.livenessTimeout",
			Message: "must be greater than heartbeatInterval",
		})
	}

	return errs
}

// validateElectionConfig validates election timing.
func validateElectionConfig(config *ElectionConfig) []error {
	var errs []error

	errs = appendPositive(errs, "election.electionTimeout", config.ElectionTimeout)
	errs = appendPositive(errs, "election.voteTimeout", config.VoteTimeout)
	errs = appendPositive(errs, "election.discoveryTimeout", config.DiscoveryTimeout)

	if config.StandDownMin < 0 {
		errs = append(errs, ValidationError{
			Field:   "election.standDownMin",
			Message: "must be non-negative",
		})
	}
	if config.StandDownMax < config.StandDownMin {
		errs = append(errs, ValidationError{
			Field:   "election.standDownMax",
			Message: "must not be less than standDownMin",
		})
	}

	return errs
}

// validateLogConfig validates logging configuration.
func validateLogConfig(config *LogConfig) []error {
	var errs []error

	// Validate log level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if config.Level != "" && !validLevels[strings.ToLower(config.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be debug, info, warn, or error",
		})
	}

	// Validate log format
	validFormats := map[string]bool{"text": true, "json": true}
	if config.Format != "" && !validFormats[strings.ToLower(config.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be text or json",
		})
	}

	// Validate output
	if config.Output != "" && config.Output != "stdout" && config.Output != "stderr" {
		dir := filepath.Dir(config.Output)
		if !filepath.IsAbs(config.Output) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: "must be stdout, stderr, or an absolute file path",
			})
		} else if _, err := os.Stat(dir); os.IsNotExist(err) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: fmt.Sprintf("directory %s does not exist", dir),
			})
		}
	}

	return errs
}

// validateBookingConfig validates the room and user directory.
func validateBookingConfig(config *BookingConfig) []error {
	var errs []error

	if _, err := ParseSlotDate(config.SlotDate); err != nil {
		errs = append(errs, ValidationError{
			Field:   "booking.slotDate",
			Message: err.Error(),
		})
	}

	seenRooms := make(map[string]bool)
	for i, room := range config.Rooms {
		field := fmt.Sprintf("booking.rooms[%d]", i)
		if room.Name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "is required"})
			continue
		}
		if seenRooms[room.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate room %q", room.Name)})
		}
		seenRooms[room.Name] = true
		if room.Capacity < 0 {
			errs = append(errs, ValidationError{Field: field + ".capacity", Message: "must be non-negative"})
		}
	}

	seenUsers := make(map[string]bool)
	for i, user := range config.Users {
		if user == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("booking.users[%d]", i), Message: "must not be empty"})
			continue
		}
		if seenUsers[user] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("booking.users[%d]", i), Message: fmt.Sprintf("duplicate user %q", user)})
		}
		seenUsers[user] = true
	}

	return errs
}

// ParseSlotDate parses the booking day in YYYY-MM-DD form, in local time.
func ParseSlotDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func appendPositive(errs []error, field string, d time.Duration) []error {
	if d <= 0 {
		errs = append(errs, ValidationError{Field: field, Message: "must be positive"})
	}
	return errs
}
