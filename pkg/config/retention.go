package config

import "time"

// RetentionConfig controls activity-log retention behavior.
type RetentionConfig struct {
	// ActivityLogRetentionDays is how many days to keep activity_log rows
	// before a cleanup pass deletes them. Agents, iterations, knowledge and
	// strategy versions are never auto-deleted (spec.md §3 ownership rules).
	ActivityLogRetentionDays int `yaml:"activity_log_retention_days"`

	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		ActivityLogRetentionDays: 180,
		CleanupInterval:          24 * time.Hour,
	}
}
