package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSlackConfig_NilSystemUsesDefaults(t *testing.T) {
	cfg := resolveSlackConfig(nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "SLACK_BOT_TOKEN", cfg.TokenEnv)
}

func TestResolveSlackConfig_UserOverride(t *testing.T) {
	enabled := true
	cfg := resolveSlackConfig(&SystemYAMLConfig{
		Slack: &SlackYAMLConfig{Enabled: &enabled, TokenEnv: "CUSTOM_TOKEN", Channel: "#trading-agents"},
	})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "CUSTOM_TOKEN", cfg.TokenEnv)
	assert.Equal(t, "#trading-agents", cfg.Channel)
}

func TestResolveGraduationConfig_EmptyMeansUseBuiltinPredicate(t *testing.T) {
	cfg := resolveGraduationConfig(nil)
	assert.Empty(t, cfg.PolicyExpr)
}

func TestResolveGraduationConfig_CELOverride(t *testing.T) {
	cfg := resolveGraduationConfig(&SystemYAMLConfig{
		Graduation: &GraduationYAMLConfig{PolicyExpr: "metrics.win_rate > 0.55"},
	})
	assert.Equal(t, "metrics.win_rate > 0.55", cfg.PolicyExpr)
}

func TestResolveMarketDataConfig_DefaultBindAddr(t *testing.T) {
	cfg := resolveMarketDataConfig(nil)
	assert.Equal(t, "127.0.0.1:0", cfg.LocalBindAddr)
	assert.Empty(t, cfg.DSN)
}

func TestResolveMarketDataConfig_UserOverride(t *testing.T) {
	cfg := resolveMarketDataConfig(&SystemYAMLConfig{
		MarketData: &MarketDataYAMLConfig{DSN: "postgres://bars", LocalBindAddr: "127.0.0.1:9100"},
	})
	assert.Equal(t, "postgres://bars", cfg.DSN)
	assert.Equal(t, "127.0.0.1:9100", cfg.LocalBindAddr)
}
