package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chriku/roomplan/internal/config"
)

// configCmd handles the config command.
func configCmd(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stdout)
		return 0
	}

	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		return configValidateCmd(args[1:])
	case "init":
		return configInitCmd(args[1:])
	case "show":
		return configShowCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Run 'roomplan config help' for usage.")
		return 1
	}
}

// configValidateCmd handles the config validate subcommand.
func configValidateCmd(args []string) int {
	fs := flag.NewFlagSet("config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configFile := fs.String("config", "", "Path to configuration file")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println("Validate configuration file")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  roomplan config validate [options]")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -config string")
		fmt.Println("        Path to configuration file (required)")
		return 0
	}

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		return 1
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	if !reportValidation(cfg) {
		return 1
	}

	fmt.Println("Configuration is valid")
	return 0
}

// reportValidation prints validation errors and reports whether cfg is valid.
func reportValidation(cfg *config.Config) bool {
	errs := config.ValidateConfig(cfg)
	if len(errs) == 0 {
		return true
	}
	fmt.Fprintln(os.Stderr, "Configuration errors:")
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  - %s\n", e)
	}
	return false
}

// configInitCmd handles the config init subcommand.
func configInitCmd(args []string) int {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println("Generate default configuration")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  roomplan config init")
		fmt.Println()
		fmt.Println("Outputs default configuration to stdout in YAML format.")
		return 0
	}

	fmt.Print(marshalConfigToYAML(config.DefaultConfig()))
	return 0
}

// configShowCmd handles the config show subcommand.
func configShowCmd(args []string) int {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configFile := fs.String("config", "", "Path to configuration file")
	envFile := fs.String("env", ".env", "Path to .env file")
	format := fs.String("format", "yaml", "Output format (yaml, json)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println("Show effective configuration")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  roomplan config show [options]")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -config string")
		fmt.Println("        Path to configuration file")
		fmt.Println("  -env string")
		fmt.Println("        Path to .env file (default \".env\")")
		fmt.Println("  -format string")
		fmt.Println("        Output format: yaml, json (default \"yaml\")")
		return 0
	}

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	switch strings.ToLower(*format) {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal config: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	default:
		fmt.Print(marshalConfigToYAML(cfg))
	}

	return 0
}

// marshalConfigToYAML renders cfg in the format LoadConfig reads.
func marshalConfigToYAML(cfg *config.Config) string {
	var sb strings.Builder

	sb.WriteString("# roomplan node configuration\n")
	sb.WriteString("# Generated by: roomplan config init\n\n")

	sb.WriteString("node:\n")
	sb.WriteString(fmt.Sprintf("  id: %q\n", cfg.Node.ID))
	sb.WriteString(fmt.Sprintf("  nickname: %q\n", cfg.Node.Nickname))
	sb.WriteString("\n")

	sb.WriteString("multicast:\n")
	sb.WriteString(fmt.Sprintf("  address: %q\n", cfg.Multicast.Address))
	sb.WriteString(fmt.Sprintf("  port: %d\n", cfg.Multicast.Port))
	sb.WriteString(fmt.Sprintf("  interface: %q\n", cfg.Multicast.Interface))
	sb.WriteString(fmt.Sprintf("  ttl: %d\n", cfg.Multicast.TTL))
	sb.WriteString(fmt.Sprintf("  loopback: %t\n", cfg.Multicast.Loopback))
	sb.WriteString("\n")

	sb.WriteString("reliability:\n")
	sb.WriteString(fmt.Sprintf("  retryInterval: %s\n", formatDuration(cfg.Reliability.RetryInterval)))
	sb.WriteString(fmt.Sprintf("  heartbeatInterval: %s\n", formatDuration(cfg.Reliability.HeartbeatInterval)))
	sb.WriteString(fmt.Sprintf("  sweepInterval: %s\n", formatDuration(cfg.Reliability.SweepInterval)))
	sb.WriteString(fmt.Sprintf("  livenessTimeout: %s\n", formatDuration(cfg.Reliability.LivenessTimeout)))
	sb.WriteString(fmt.Sprintf("  dedupWindow: %s\n", formatDuration(cfg.Reliability.DedupWindow)))
	sb.WriteString("\n")

	sb.WriteString("election:\n")
	sb.WriteString(fmt.Sprintf("  electionTimeout: %s\n", formatDuration(cfg.Election.ElectionTimeout)))
	sb.WriteString(fmt.Sprintf("  voteTimeout: %s\n", formatDuration(cfg.Election.VoteTimeout)))
	sb.WriteString(fmt.Sprintf("  discoveryTimeout: %s\n", formatDuration(cfg.Election.DiscoveryTimeout)))
	sb.WriteString(fmt.Sprintf("  standDownMin: %s\n", formatDuration(cfg.Election.StandDownMin)))
	sb.WriteString(fmt.Sprintf("  standDownMax: %s\n", formatDuration(cfg.Election.StandDownMax)))
	sb.WriteString("\n")

	sb.WriteString("logging:\n")
	sb.WriteString(fmt.Sprintf("  level: %q\n", cfg.Logging.Level))
	sb.WriteString(fmt.Sprintf("  format: %q\n", cfg.Logging.Format))
	sb.WriteString(fmt.Sprintf("  output: %q\n", cfg.Logging.Output))
	sb.WriteString("\n")

	sb.WriteString("booking:\n")
	sb.WriteString(fmt.Sprintf("  slotDate: %q\n", cfg.Booking.SlotDate))
	if len(cfg.Booking.Users) > 0 {
		sb.WriteString("  users:\n")
		for _, u := range cfg.Booking.Users {
			sb.WriteString(fmt.Sprintf("    - %s\n", u))
		}
	}
	if len(cfg.Booking.Rooms) > 0 {
		sb.WriteString("  rooms:\n")
		for _, r := range cfg.Booking.Rooms {
			sb.WriteString(fmt.Sprintf("    - name: %q\n", r.Name))
			sb.WriteString(fmt.Sprintf("      capacity: %d\n", r.Capacity))
		}
	}

	return sb.String()
}

// formatDuration formats a duration for YAML output.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d/time.Millisecond)
}
