package slack

import (
	"context"
	"log/slog"
	"time"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// GraduationInput carries the data for a graduation notification (spec.md
// §4.9 — an agent crossing learning -> paper_trading, or paper_trading ->
// live_trading, by the built-in gate, a CEL policy override, or a forced
// bypass).
type GraduationInput struct {
	AgentID     string
	AgentName   string
	FromStatus  string
	ToStatus    string
	Forced      bool
	WinRate     float64
	Sharpe      float64
	TotalReturn float64
	Fingerprint string
}

// PausedInput carries the data for a failure-streak pause notification
// (spec.md §4.1 — an agent's consecutive iteration failures reached the
// configured ceiling).
type PausedInput struct {
	AgentID             string
	AgentName           string
	ConsecutiveFailures int
	LastFailReason      string
	Fingerprint         string
}

// Service handles Slack notification delivery for agent lifecycle events.
// Nil-safe: all methods are no-ops when service is nil.
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NotifyGraduated posts a graduation announcement, deduplicating against
// an existing message for the same fingerprint so a restarted orchestrator
// never double-posts the same transition. Fail-open: errors are logged,
// never returned.
func (s *Service) NotifyGraduated(ctx context.Context, input GraduationInput) {
	if s == nil {
		return
	}

	if input.Fingerprint != "" {
		if existing, err := s.client.FindMessageByFingerprint(ctx, input.Fingerprint); err != nil {
			s.logger.Warn("failed to check for existing graduation message",
				"agent_id", input.AgentID, "error", err)
		} else if existing != "" {
			return
		}
	}

	blocks := BuildGraduationMessage(input, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("failed to send graduation notification",
			"agent_id", input.AgentID, "error", err)
	}
}

// NotifyPaused posts a failure-streak pause announcement. Fail-open:
// errors are logged, never returned.
func (s *Service) NotifyPaused(ctx context.Context, input PausedInput) {
	if s == nil {
		return
	}

	blocks := BuildPausedMessage(input, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("failed to send pause notification",
			"agent_id", input.AgentID, "error", err)
	}
}
