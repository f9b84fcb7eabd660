package reliability

import "errors"

// Reliability errors.
var (
	// ErrNoReceiver is returned by Start when no Receiver is installed.
	ErrNoReceiver = errors.New("reliability: no receiver")

	// ErrNotRunning is returned when broadcasting on a stopped layer.
	ErrNotRunning = errors.New("reliability: not running")
)
