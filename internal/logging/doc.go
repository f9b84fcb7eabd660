// Package logging provides structured logging for roomplan nodes.
//
// # Overview
//
// The logging package provides a structured logging interface with support for:
//
//   - Multiple log levels (debug, info, warn, error)
//   - Text and JSON output formats
//   - Node and component tagging, so interleaved output of several nodes
//     sharing a terminal stays readable
//   - Field-based contextual logging
//
// # Creating a Logger
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "/var/log/roomplan/node.log",
//	})
//
// Or use defaults:
//
//	logger := logging.NewDefault() // Info level, text format, stdout
//
// For testing, use a no-op logger:
//
//	logger := logging.NewNop()
//
// # Structured Logging
//
//	logger.Info("operation delivered",
//	    "seq", 12,
//	    "op", "5c1e0b0e-...",
//	    "kind", "BOOK_ROOM",
//	)
//
// # Tagging
//
//	nodeLogger := logger.WithNode("node-a").WithComponent("reliability")
//	nodeLogger.Info("peer back online", "peer", "node-c")
//
// Text output:
//
//	2026-03-11T10:30:00.123Z [info] (node-a) reliability: peer back online peer=node-c
package logging
