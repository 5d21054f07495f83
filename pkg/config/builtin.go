package config

import "sync"

// BuiltinConfig holds all built-in configuration data: the default
// execution-template parameters and the queue, sandbox, defaults and
// retention settings. It has no built-in LLM provider; every provider
// comes from the user YAML. User YAML overrides these; it never needs to
// repeat them.
type BuiltinConfig struct {
	Templates map[string]TemplateParamsConfig
	Queue     *QueueConfig
	Sandbox   *SandboxConfig
	Defaults  *Defaults
	Retention *RetentionConfig
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Templates: DefaultTemplateParams(),
		Queue:     DefaultQueueConfig(),
		Sandbox:   DefaultSandboxConfig(),
		Defaults:  DefaultDefaults(),
		Retention: DefaultRetentionConfig(),
	}
}
