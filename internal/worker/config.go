package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the telemetry recording queue.
type Config struct {
	// Workers is the number of goroutines draining the queue.
	// Default: 2
	Workers int

	// QueueSize is the task buffer capacity. When the buffer is full new
	// tasks are dropped (and counted), never blocked on.
	// Default: 256
	QueueSize int

	// TaskTimeout is the maximum time a single recording task may run.
	// Default: 10 seconds
	TaskTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for queued tasks to drain
	// during graceful shutdown. After this timeout, remaining tasks are lost.
	// Default: 15 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		QueueSize:       256,
		TaskTimeout:     10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Workers > 64 {
		return fmt.Errorf("workers too high (max 64), got %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize)
	}
	if c.TaskTimeout < time.Second {
		return fmt.Errorf("task timeout must be at least 1 second, got %v", c.TaskTimeout)
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	return nil
}
