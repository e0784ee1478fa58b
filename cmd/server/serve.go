package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/testgen-ai/internal/handler"
	"github.com/arturoeanton/testgen-ai/internal/middleware"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}

		svcs, err := wire(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svcs.close()

		if cfg.MCPEnabled {
			mcpServer := svcs.mcpServer()
			go func() {
				if err := mcpServer.Start(cmd.Context()); err != nil {
					slog.Error("MCP server error", "error", err)
				}
			}()
		}

		app := newApp(svcs)
		slog.Info("🌐 Fiber listening", "port", cfg.Port, "app", cfg.AppName)
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCMD.Flags().String("port", "", "listen port, overrides PORT")
	rootCMD.AddCommand(serveCMD)
}

// newApp builds the fiber application with every route mounted under /api.
func newApp(svcs *services) *fiber.App {
	cfg := svcs.cfg
	app := fiber.New(fiber.Config{
		AppName:   cfg.AppName,
		Immutable: true,
		// generation calls wait on the LLM
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AITimeout() + 30*time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	}))
	app.Use(middleware.AuditMiddleware(middleware.NewSlogAuditWriter(nil)))

	api := app.Group("/api")
	handler.NewHealthHandler(cfg.AppName, cfg.StoreBackend, cfg.ModelName()).Register(api)
	handler.NewRepoHandler(svcs.repos).Register(api)
	handler.NewFileHandler(svcs.sync).Register(api)
	handler.NewTestCaseHandler(svcs.generation, svcs.prs).Register(api)
	handler.NewTemplateHandler(svcs.templates).Register(api)
	handler.NewGitHubHandler(svcs.github).Register(api)
	return app
}
