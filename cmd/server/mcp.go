package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var mcpCMD = &cobra.Command{
	Use:   "mcp",
	Short: "serve the MCP tools",
	Long: `Serves the repository, generation and pull request tools over the Model
Context Protocol. The stdio transport serves a single client on stdin/stdout;
the http transport listens on MCP_PORT.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		if transport == "stdio" {
			// stdout carries the protocol
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svcs, err := wire(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svcs.close()

		srv := svcs.mcpServer()
		switch transport {
		case "stdio":
			return srv.RunStdio(cmd.Context())
		case "http":
			return srv.Start(cmd.Context())
		default:
			return fmt.Errorf("unknown transport %q", transport)
		}
	},
}

func init() {
	mcpCMD.Flags().String("transport", "stdio", "MCP transport (stdio|http)")
	rootCMD.AddCommand(mcpCMD)
}
