package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

var rootCMD = &cobra.Command{
	Use:   "testgen",
	Short: "testgen",
	Long:  `TestGen AI: syncs GitHub repositories, generates tests with an LLM and opens pull requests`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load() // silently ignore if .env doesn't exist
	},
	SilenceUsage: true,
}

func init() {
	rootCMD.PersistentFlags().String("store", "", "store backend (memory|postgres), overrides STORE_BACKEND")
	rootCMD.PersistentFlags().String("ai-provider", "", "LLM backend (ollama|gemini), overrides AI_PROVIDER")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCMD.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
