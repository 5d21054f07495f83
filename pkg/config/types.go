package config

// StratlabYAMLConfig represents the complete stratlab.yaml file structure.
type StratlabYAMLConfig struct {
	System       *SystemYAMLConfig              `yaml:"system"`
	LLMProviders map[string]LLMProviderConfig    `yaml:"llm_providers"`
	Templates    map[string]TemplateParamsConfig `yaml:"templates"`
	Queue        *QueueConfig                    `yaml:"queue"`
	Sandbox      *SandboxConfig                  `yaml:"sandbox"`
	Defaults     *Defaults                       `yaml:"defaults"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	Slack       *SlackYAMLConfig       `yaml:"slack"`
	Retention   *RetentionConfig       `yaml:"retention"`
	Graduation  *GraduationYAMLConfig  `yaml:"graduation"`
	MarketData  *MarketDataYAMLConfig  `yaml:"market_data"`
}

// SlackYAMLConfig holds Slack notification settings for activity-log fan-out.
type SlackYAMLConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// GraduationYAMLConfig optionally overrides the built-in graduation predicate
// (spec.md §4.9) with a CEL expression evaluated against GraduationMetrics.
type GraduationYAMLConfig struct {
	PolicyExpr string `yaml:"policy_expr,omitempty"`
}

// MarketDataYAMLConfig points at the read-only historical data store (spec.md §6).
type MarketDataYAMLConfig struct {
	DSN string `yaml:"dsn,omitempty"`
	// LocalBindAddr is the 127.0.0.1 address the sandboxed scanner/executor
	// process is given read-only access to the data store through (§4.4).
	LocalBindAddr string `yaml:"local_bind_addr,omitempty"`
}

// TemplateParamsConfig carries the tunable parameters for one execution
// template (spec.md §4.6), keyed by template tag in the YAML map.
type TemplateParamsConfig struct {
	StopLossPct    float64 `yaml:"stop_loss_pct,omitempty"`
	TakeProfitPct  float64 `yaml:"take_profit_pct,omitempty"`
	MaxHoldDays    int     `yaml:"max_hold_days,omitempty"`
	TimeOffsetMins int     `yaml:"time_offset_mins,omitempty"`
	ATRMultiplier  float64 `yaml:"atr_multiplier,omitempty"`
	TrailBars      int     `yaml:"trail_bars,omitempty"`
}
