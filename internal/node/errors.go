package node

import "errors"

// Node errors.
var (
	// ErrStopped is returned when using a node that is not running.
	ErrStopped = errors.New("node: stopped")

	// ErrAlreadyStarted is returned by Start on a running node.
	ErrAlreadyStarted = errors.New("node: already started")

	// ErrNoConfig is returned by New without a configuration.
	ErrNoConfig = errors.New("node: no configuration")
)
