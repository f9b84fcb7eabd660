package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage information to the given writer.
func printUsage(w io.Writer) {
	fmt.Fprint(w, `roomplan - Replicated room booking over UDP multicast

Usage:
  roomplan <command> [options]

Commands:
  serve       Join the cluster and open the booking console
  config      Configuration management
  version     Show version information

Use "roomplan <command> -h" for more information about a command.
`)
}

// printServeUsage prints the serve command usage.
func printServeUsage(w io.Writer) {
	fmt.Fprint(w, `Join the cluster and open the booking console

Usage:
  roomplan serve [options]

Options:
  -config string
        Path to configuration file
  -env string
        Path to .env file (default ".env")
  -id string
        Node ID (overrides config, default random)
  -nickname string
        Display name of the node (overrides config)
  -log-level string
        Log level: debug, info, warn, error (overrides config)
  -no-console
        Run without the interactive console until interrupted
  -h, -help
        Show this help message

Environment Variables:
  ROOMPLAN_NODE_ID         Override node ID
  ROOMPLAN_NODE_NICKNAME   Override node nickname
  MULTICAST_ADDRESS        Override multicast group address
  MULTICAST_PORT           Override multicast port
  MULTICAST_INTERFACE      Override multicast interface
  ROOMPLAN_LOG_LEVEL       Override log level
`)
}

// printConfigUsage prints the config command usage.
func printConfigUsage(w io.Writer) {
	fmt.Fprint(w, `Configuration management

Usage:
  roomplan config <subcommand> [options]

Subcommands:
  validate    Validate a configuration file
  init        Print the default configuration
  show        Show the effective configuration

Use "roomplan config <subcommand> -h" for more information.
`)
}

// printVersionUsage prints the version command usage.
func printVersionUsage(w io.Writer) {
	fmt.Fprint(w, `Show version information

Usage:
  roomplan version [options]

Options:
  -short
        Show only version number
  -h, -help
        Show this help message
`)
}

// printConsoleHelp prints the console commands.
func printConsoleHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  book <slot> <room> <user>   Book a room for the hour slot (0-23)
  cancel <bookingId>          Cancel a booking
  list <room>                 List the bookings of a room
  free [slot]                 List rooms free at the slot (default: now)
  rooms                       List rooms
  users                       List users
  status                      Show replication status
  nodes                       Show known nodes
  log                         Show the delivered operation log
  help                        Show this help
  quit                        Leave the cluster
`)
}
