package config

// Config is the umbrella configuration object returned by Initialize() and
// used throughout the application.
type Config struct {
	configDir string

	Defaults   *Defaults
	Queue      *QueueConfig
	Sandbox    *SandboxConfig
	Retention  *RetentionConfig
	Slack      *SlackConfig
	Graduation *GraduationConfig
	MarketData *MarketDataConfig

	LLMProviderRegistry *LLMProviderRegistry
	TemplateRegistry    *TemplateRegistry
}

// ConfigStats contains statistics about loaded configuration, surfaced on a
// health/status endpoint.
type ConfigStats struct {
	LLMProviders int
	Templates    int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		LLMProviders: c.LLMProviderRegistry.Len(),
		Templates:    len(c.TemplateRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// GetTemplateParams retrieves the resolved parameters for a template tag.
func (c *Config) GetTemplateParams(tag string) (*TemplateParamsConfig, error) {
	return c.TemplateRegistry.Get(tag)
}
