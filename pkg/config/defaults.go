package config

// Defaults contains system-wide default values applied when an operation's
// opts don't specify their own (spec.md §4.1).
type Defaults struct {
	// MinIterations is runContinuous's default floor before convergence can
	// stop the loop (spec.md §4.1 opts.minIterations, default 3).
	MinIterations int `yaml:"min_iterations,omitempty" validate:"omitempty,min=1"`

	// DiscoveryMode is the default for newly created agents when their
	// instructions don't imply one way or the other.
	DiscoveryMode bool `yaml:"discovery_mode,omitempty"`

	// StopOnConvergence is runContinuous's default (spec.md §4.1, default true).
	StopOnConvergence bool `yaml:"stop_on_convergence,omitempty"`
}

// DefaultDefaults returns the built-in system defaults.
func DefaultDefaults() *Defaults {
	return &Defaults{
		MinIterations:     3,
		DiscoveryMode:     false,
		StopOnConvergence: true,
	}
}
