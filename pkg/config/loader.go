package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load stratlab.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined configuration
//  5. Build in-memory registries
//  6. Apply default values
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"llm_providers", stats.LLMProviders,
		"templates", stats.Templates)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadStratlabYAML()
	if err != nil {
		return nil, NewLoadError("stratlab.yaml", err)
	}

	builtin := GetBuiltinConfig()

	templateParams := mergeTemplateParams(builtin.Templates, yamlCfg.Templates)
	llmProviders := mergeLLMProviders(map[string]LLMProviderConfig{}, yamlCfg.LLMProviders)

	templateRegistry := NewTemplateRegistry(templateParams)
	llmProviderRegistry := NewLLMProviderRegistry(llmProviders)

	queueCfg := DefaultQueueConfig()
	if yamlCfg.Queue != nil {
		if err := mergo.Merge(queueCfg, yamlCfg.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	sandboxCfg := DefaultSandboxConfig()
	if yamlCfg.Sandbox != nil {
		if err := mergo.Merge(sandboxCfg, yamlCfg.Sandbox, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge sandbox config: %w", err)
		}
	}

	defaultsCfg := DefaultDefaults()
	if yamlCfg.Defaults != nil {
		if err := mergo.Merge(defaultsCfg, yamlCfg.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge defaults: %w", err)
		}
	}

	retentionCfg := DefaultRetentionConfig()
	if yamlCfg.System != nil && yamlCfg.System.Retention != nil {
		if err := mergo.Merge(retentionCfg, yamlCfg.System.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	return &Config{
		configDir:           configDir,
		Defaults:            defaultsCfg,
		Queue:               queueCfg,
		Sandbox:             sandboxCfg,
		Retention:           retentionCfg,
		Slack:               resolveSlackConfig(yamlCfg.System),
		Graduation:          resolveGraduationConfig(yamlCfg.System),
		MarketData:          resolveMarketDataConfig(yamlCfg.System),
		LLMProviderRegistry: llmProviderRegistry,
		TemplateRegistry:    templateRegistry,
	}, nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadStratlabYAML() (*StratlabYAMLConfig, error) {
	var cfg StratlabYAMLConfig
	cfg.LLMProviders = make(map[string]LLMProviderConfig)
	cfg.Templates = make(map[string]TemplateParamsConfig)

	if err := l.loadYAML("stratlab.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
