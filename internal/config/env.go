package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Environment variables that override the configuration file.
const (
	EnvNodeID             = "ROOMPLAN_NODE_ID"
	EnvNodeNickname       = "ROOMPLAN_NODE_NICKNAME"
	EnvMulticastAddress   = "MULTICAST_ADDRESS"
	EnvMulticastPort      = "MULTICAST_PORT"
	EnvMulticastInterface = "MULTICAST_INTERFACE"
	EnvLogLevel           = "ROOMPLAN_LOG_LEVEL"
)

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are left untouched. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides configuration values from environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvNodeID); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv(EnvNodeNickname); v != "" {
		cfg.Node.Nickname = v
	}
	if v := os.Getenv(EnvMulticastAddress); v != "" {
		cfg.Multicast.Address = v
	}
	if v := os.Getenv(EnvMulticastPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: EnvMulticastPort, Message: "must be a number"}
		}
		cfg.Multicast.Port = port
	}
	if v := os.Getenv(EnvMulticastInterface); v != "" {
		cfg.Multicast.Interface = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// ResolveNodeID assigns a random node ID when none is configured and
// defaults the nickname to the ID.
func ResolveNodeID(cfg *Config) {
	if cfg.Node.ID == "" {
		cfg.Node.ID = uuid.NewString()
	}
	if cfg.Node.Nickname == "" {
		cfg.Node.Nickname = cfg.Node.ID
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if any), then the .env file, then environment variables.
func Load(path, dotEnvPath string) (*Config, error) {
	if err := LoadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	ResolveNodeID(cfg)
	return cfg, nil
}
