package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateSandbox(); err != nil {
		return fmt.Errorf("sandbox validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	if err := v.validateTemplates(); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q.MaxConcurrentSandboxes < 1 {
		return NewValidationError("queue", "", "max_concurrent_sandboxes", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if q.IterationTimeout <= 0 {
		return NewValidationError("queue", "", "iteration_timeout", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if q.MaxConsecutiveFailures < 1 {
		return NewValidationError("queue", "", "max_consecutive_failures", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateSandbox() error {
	s := v.cfg.Sandbox
	if s.ScannerTimeout <= 0 {
		return NewValidationError("sandbox", "", "scanner_timeout", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if s.ExecutorTimeout <= 0 {
		return NewValidationError("sandbox", "", "executor_timeout", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if s.StdoutByteCap <= 0 {
		return NewValidationError("sandbox", "", "stdout_byte_cap", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if s.BaseDir == "" {
		return NewValidationError("sandbox", "", "base_dir", fmt.Errorf("%w", ErrMissingRequiredField))
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if p.Endpoint == "" {
			return NewValidationError("llm_provider", name, "endpoint", fmt.Errorf("%w", ErrMissingRequiredField))
		}
		if p.Model == "" {
			return NewValidationError("llm_provider", name, "model", fmt.Errorf("%w", ErrMissingRequiredField))
		}
		if p.MaxTokens < 256 {
			return NewValidationError("llm_provider", name, "max_tokens", fmt.Errorf("%w: must be >= 256", ErrInvalidValue))
		}
	}
	return nil
}

func (v *Validator) validateTemplates() error {
	for _, tag := range TemplateTags {
		if _, err := v.cfg.TemplateRegistry.Get(tag); err != nil {
			return NewValidationError("template", tag, "", err)
		}
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d.MinIterations < 1 {
		return NewValidationError("defaults", "", "min_iterations", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}
