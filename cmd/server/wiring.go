package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/testgen-ai/internal/adapter/ai"
	"github.com/arturoeanton/testgen-ai/internal/adapter/store"
	"github.com/arturoeanton/testgen-ai/internal/adapter/vcs"
	"github.com/arturoeanton/testgen-ai/internal/mcp"
	"github.com/arturoeanton/testgen-ai/internal/port"
	"github.com/arturoeanton/testgen-ai/internal/service"
	"github.com/arturoeanton/testgen-ai/pkg/config"
)

// services is the fully wired application.
type services struct {
	cfg        *config.Config
	store      port.Store
	github     port.RemoteRepository
	repos      *service.RepoService
	sync       *service.SyncService
	generation *service.GenerationService
	prs        *service.PullRequestService
	templates  *service.TemplateService
	close      func() error
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.StoreBackend = v
	}
	if v, _ := cmd.Flags().GetString("ai-provider"); v != "" {
		cfg.AIProvider = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (port.Store, func() error, error) {
	if cfg.StoreBackend != config.StorePostgres {
		return store.NewMemoryStore(), func() error { return nil }, nil
	}

	pg, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return pg, pg.Close, nil
}

// aiProviders returns the summary and code models. They are the same
// provider unless the backend is configured with two models.
func aiProviders(cfg *config.Config) (summary, code port.AIProvider) {
	if cfg.AIProvider == config.ProviderGemini {
		summary = ai.NewGeminiProvider(ai.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiSummaryModel,
			Endpoint: cfg.GeminiEndpoint,
		}, cfg.AITimeout())
		if cfg.GeminiCodeModel == cfg.GeminiSummaryModel {
			return summary, summary
		}
		code = ai.NewGeminiProvider(ai.GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiCodeModel,
			Endpoint: cfg.GeminiEndpoint,
		}, cfg.AITimeout())
		return summary, code
	}

	ollama := ai.NewOllamaProvider(ai.OllamaEndpointConfig{
		BaseURL: cfg.OllamaChatURL,
		Model:   cfg.OllamaChatModel,
		Token:   cfg.OllamaChatToken,
	}, cfg.AITimeout())
	return ollama, ollama
}

func wire(ctx context.Context, cfg *config.Config) (*services, error) {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	github, err := vcs.NewGitHubProvider(cfg.GitHubAPIURL, cfg.GitHubTimeout())
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("github client: %w", err)
	}

	summaryAI, codeAI := aiProviders(cfg)
	writer := ai.NewTestWriter(summaryAI, codeAI)

	generation := service.NewGenerationService(st, github, writer, cfg.DefaultFramework)

	slog.Info("services wired",
		"store", cfg.StoreBackend,
		"ai", cfg.ModelName(),
		"github", cfg.GitHubAPIURL,
	)
	return &services{
		cfg:        cfg,
		store:      st,
		github:     github,
		repos:      service.NewRepoService(st, github),
		sync:       service.NewSyncService(st, github),
		generation: generation,
		prs:        service.NewPullRequestService(st, github, generation),
		templates:  service.NewTemplateService(st),
		close:      closeStore,
	}, nil
}

// mcpServer exposes the wired services as MCP tools.
func (s *services) mcpServer() *mcp.Server {
	return mcp.NewServer(mcp.Services{
		Repos:      s.repos,
		Sync:       s.sync,
		Generation: s.generation,
		PRs:        s.prs,
		Templates:  s.templates,
	}, s.cfg.MCPPort)
}
