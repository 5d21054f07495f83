package config

// SlackConfig holds resolved Slack notification settings for activity-log
// fan-out (graduation, pause-on-failure-streak events).
type SlackConfig struct {
	Enabled  bool
	TokenEnv string
	Channel  string
}

// GraduationConfig holds the resolved graduation-policy override.
// PolicyExpr, when non-empty, is a CEL expression evaluated against
// convergence.GraduationMetrics; an empty PolicyExpr means "use the
// built-in Go predicate from spec.md §4.9".
type GraduationConfig struct {
	PolicyExpr string
}

// MarketDataConfig holds resolved historical-data-store settings.
type MarketDataConfig struct {
	DSN           string
	LocalBindAddr string
}

func resolveSlackConfig(sys *SystemYAMLConfig) *SlackConfig {
	cfg := &SlackConfig{TokenEnv: "SLACK_BOT_TOKEN"}
	if sys == nil || sys.Slack == nil {
		return cfg
	}
	if sys.Slack.Enabled != nil {
		cfg.Enabled = *sys.Slack.Enabled
	}
	if sys.Slack.TokenEnv != "" {
		cfg.TokenEnv = sys.Slack.TokenEnv
	}
	cfg.Channel = sys.Slack.Channel
	return cfg
}

func resolveGraduationConfig(sys *SystemYAMLConfig) *GraduationConfig {
	if sys == nil || sys.Graduation == nil {
		return &GraduationConfig{}
	}
	return &GraduationConfig{PolicyExpr: sys.Graduation.PolicyExpr}
}

func resolveMarketDataConfig(sys *SystemYAMLConfig) *MarketDataConfig {
	cfg := &MarketDataConfig{LocalBindAddr: "127.0.0.1:0"}
	if sys == nil || sys.MarketData == nil {
		return cfg
	}
	if sys.MarketData.DSN != "" {
		cfg.DSN = sys.MarketData.DSN
	}
	if sys.MarketData.LocalBindAddr != "" {
		cfg.LocalBindAddr = sys.MarketData.LocalBindAddr
	}
	return cfg
}
