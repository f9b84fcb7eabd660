package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chriku/roomplan/internal/config"
	"github.com/chriku/roomplan/internal/node"
)

// serveCmd handles the serve command.
func serveCmd(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configFile := fs.String("config", "", "Path to configuration file")
	envFile := fs.String("env", ".env", "Path to .env file")
	nodeID := fs.String("id", "", "Node ID")
	nickname := fs.String("nickname", "", "Node nickname")
	logLevel := fs.String("log-level", "", "Log level")
	noConsole := fs.Bool("no-console", false, "Run without the interactive console")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printServeUsage(os.Stdout)
		return 0
	}

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *nodeID != "" {
		if cfg.Node.Nickname == cfg.Node.ID {
			cfg.Node.Nickname = *nodeID
		}
		cfg.Node.ID = *nodeID
	}
	if *nickname != "" {
		cfg.Node.Nickname = *nickname
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if !reportValidation(cfg) {
		return 1
	}

	n, err := node.New(cfg, node.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create node: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := n.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start node: %v\n", err)
		return 1
	}
	defer func() {
		if err := n.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping node: %v\n", err)
		}
	}()

	if *noConsole {
		<-ctx.Done()
		return 0
	}

	fmt.Printf("roomplan node %s joined %s:%d\n", n.Nickname(), cfg.Multicast.Address, cfg.Multicast.Port)
	fmt.Println("Type 'help' for commands.")
	newConsole(n, os.Stdout).run(ctx, os.Stdin)
	return 0
}
