// Package config provides configuration parsing and management for roomplan nodes.
//
// # Overview
//
// The config package handles loading, parsing, and validating node
// configuration from YAML files, .env files and environment variables. It
// supports:
//
//   - YAML configuration files (a small subset: maps, lists, inline arrays)
//   - ${VAR} and ${VAR:-default} substitution inside the file
//   - .env files, loaded with godotenv without overriding the environment
//   - Environment variable overrides
//   - Default values for all settings
//   - Configuration validation
//
// # Configuration Structure
//
//	type Config struct {
//	    Node        NodeConfig        // Identity
//	    Multicast   MulticastConfig   // Group address and socket options
//	    Reliability ReliabilityConfig // Retry, heartbeat and liveness timing
//	    Election    ElectionConfig    // Election, vote and stand-down timing
//	    Logging     LogConfig         // Logging settings
//	    Booking     BookingConfig     // Rooms and users
//	}
//
// # Loading Configuration
//
//	cfg, err := config.Load("/etc/roomplan/node.yaml", ".env")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
//	    ...
//	}
//
// # Example
//
//	node:
//	  nickname: "front-desk"
//	multicast:
//	  address: "224.0.0.124"
//	  port: 41234
//	reliability:
//	  retryInterval: 3s
//	  livenessTimeout: 7s
//	election:
//	  electionTimeout: 3s
//	booking:
//	  slotDate: "2026-03-11"
//	  users: [alice, bob]
//	  rooms:
//	    - name: "Aquarium"
//	      capacity: 8
//
// # Environment Variables
//
//	ROOMPLAN_NODE_ID        Node identity (also its election priority)
//	ROOMPLAN_NODE_NICKNAME  Display name
//	MULTICAST_ADDRESS       Group address
//	MULTICAST_PORT          Group port
//	MULTICAST_INTERFACE     Interface name to join the group on
//	ROOMPLAN_LOG_LEVEL      Log level
package config
