// Package app wires together the persistence, domain, and orchestration
// packages into one ready-to-use object shared by cmd/stratlab and
// pkg/api, mirroring the construction order of the teacher's cmd/tarsy
// main.go (config -> database -> repos -> services -> orchestrator).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stratlab/stratlab/pkg/backtest"
	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/convergence"
	"github.com/stratlab/stratlab/pkg/database"
	"github.com/stratlab/stratlab/pkg/knowledge"
	"github.com/stratlab/stratlab/pkg/llmclient"
	"github.com/stratlab/stratlab/pkg/market"
	"github.com/stratlab/stratlab/pkg/orchestrator"
	"github.com/stratlab/stratlab/pkg/promptctx"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/sandbox"
	"github.com/stratlab/stratlab/pkg/services"
	"github.com/stratlab/stratlab/pkg/slack"
)

// App is every collaborator the CLI and HTTP surfaces call into. Nothing
// outside this package constructs these pieces directly.
type App struct {
	Config *config.Config
	DB     *database.Client

	Agents     *services.AgentService
	Activity   *services.ActivityLogService
	Knowledge  *services.KnowledgeService
	Versions   *services.StrategyVersionService
	Reviews    *services.IterationReviewService
	Graduation *services.GraduationService

	Iterations *repo.IterationRepo

	Orchestrator *orchestrator.Orchestrator
	MarketServer *market.LocalServer
}

// Bootstrap loads configuration, connects to the database (applying
// migrations), and wires every service and the orchestrator. The caller
// owns the returned App's lifetime and must call Close.
func Bootstrap(ctx context.Context, configDir, llmProviderName string) (*App, error) {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("initialize configuration: %w", err)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	agentRepo := repo.NewAgentRepo(dbClient.DB())
	iterationRepo := repo.NewIterationRepo(dbClient.DB())
	knowledgeRepo := repo.NewKnowledgeRepo(dbClient.DB())
	versionRepo := repo.NewStrategyVersionRepo(dbClient.DB())
	activityRepo := repo.NewActivityLogRepo(dbClient.DB())

	agentSvc := services.NewAgentService(agentRepo)
	activitySvc := services.NewActivityLogService(activityRepo)
	knowledgeSvc := services.NewKnowledgeService(knowledgeRepo)
	versionSvc := services.NewStrategyVersionService(versionRepo)
	reviewSvc := services.NewIterationReviewService(iterationRepo, activitySvc)

	provider, err := cfg.GetLLMProvider(llmProviderName)
	if err != nil {
		return nil, fmt.Errorf("resolve LLM provider %q: %w", llmProviderName, err)
	}
	transport := llmclient.NewHTTPTransport(provider.RequestTimeout)
	llmClient := llmclient.New(transport, provider)

	marketClient := market.NewClient(dbClient.DB())
	marketServer, err := market.NewLocalServer(marketClient, cfg.MarketData.LocalBindAddr)
	if err != nil {
		return nil, fmt.Errorf("start local market data server: %w", err)
	}
	marketServer.Start()

	sbox := sandbox.New(cfg.Sandbox.BaseDir)
	evaluator := backtest.New(marketClient, sbox, *cfg.Sandbox, "")
	extractor := knowledge.New(knowledgeRepo)
	detector, err := convergence.New(iterationRepo, knowledgeRepo, cfg.Graduation.PolicyExpr)
	if err != nil {
		return nil, fmt.Errorf("build convergence detector: %w", err)
	}
	assembler := promptctx.New(iterationRepo, knowledgeRepo)

	var slackSvc *slack.Service
	if cfg.Slack.Enabled {
		slackSvc = slack.NewService(slack.ServiceConfig{
			Token:   envOrEmpty(cfg.Slack.TokenEnv),
			Channel: cfg.Slack.Channel,
		})
	}

	graduationSvc := services.NewGraduationService(agentSvc, activitySvc, detector, slackSvc)

	orch := orchestrator.New(orchestrator.Deps{
		Agents:         agentSvc,
		Activity:       activitySvc,
		Iterations:     iterationRepo,
		Knowledge:      knowledgeRepo,
		Prompts:        assembler,
		LLM:            llmClient,
		Sandbox:        sbox,
		Evaluator:      evaluator,
		Extractor:      extractor,
		Detector:       detector,
		Templates:      cfg.TemplateRegistry,
		SandboxCfg:     *cfg.Sandbox,
		QueueCfg:       *cfg.Queue,
		MarketDataAddr: marketServer.Addr(),
		Slack:          slackSvc,
	})

	slog.Info("stratlab bootstrapped",
		"llm_provider", llmProviderName,
		"market_data_addr", marketServer.Addr(),
		"slack_enabled", cfg.Slack.Enabled)

	return &App{
		Config:       cfg,
		DB:           dbClient,
		Agents:       agentSvc,
		Activity:     activitySvc,
		Knowledge:    knowledgeSvc,
		Versions:     versionSvc,
		Reviews:      reviewSvc,
		Graduation:   graduationSvc,
		Iterations:   iterationRepo,
		Orchestrator: orch,
		MarketServer: marketServer,
	}, nil
}

func envOrEmpty(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Close releases every resource Bootstrap opened.
func (a *App) Close(ctx context.Context) error {
	if a.MarketServer != nil {
		if err := a.MarketServer.Stop(ctx); err != nil {
			slog.Warn("error stopping local market data server", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
