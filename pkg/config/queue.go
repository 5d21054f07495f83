package config

import "time"

// QueueConfig controls the orchestrator's concurrency and timing (spec.md §5).
type QueueConfig struct {
	// MaxConcurrentSandboxes is the global concurrency cap on active sandboxes
	// across all agents (spec.md §5, default 4).
	MaxConcurrentSandboxes int `yaml:"max_concurrent_sandboxes"`

	// PollInterval is the base delay between runContinuous iterations when
	// no stopping condition has fired yet.
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollIntervalJitter is the random jitter added to PollInterval.
	PollIntervalJitter time.Duration `yaml:"poll_interval_jitter"`

	// IterationTimeout is the default wall-clock cap for one full iteration
	// (spec.md §4.1 opts.timeoutMs, default 180s).
	IterationTimeout time.Duration `yaml:"iteration_timeout"`

	// MaxConsecutiveFailures pauses an agent once its failure streak reaches
	// this count (spec.md §4.1, §7).
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxConcurrentSandboxes: 4,
		PollInterval:           2 * time.Second,
		PollIntervalJitter:     500 * time.Millisecond,
		IterationTimeout:       180 * time.Second,
		MaxConsecutiveFailures: 5,
	}
}
