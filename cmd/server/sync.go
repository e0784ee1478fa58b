package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var syncCMD = &cobra.Command{
	Use:   "sync [repository-id...]",
	Short: "import repositories and sync their file trees",
	Long: `Imports the repositories visible to --token (when given) and then syncs
the file tree of every named repository, or of every known repository when
none are named. Only useful with a durable store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svcs, err := wire(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svcs.close()

		ctx := cmd.Context()
		if token, _ := cmd.Flags().GetString("token"); token != "" {
			res, err := svcs.repos.ImportRepositories(ctx, token)
			if err != nil {
				return fmt.Errorf("import repositories: %w", err)
			}
			slog.Info(res.Message)
		}

		ids := args
		if len(ids) == 0 {
			repos, err := svcs.repos.ListRepositories(ctx)
			if err != nil {
				return fmt.Errorf("list repositories: %w", err)
			}
			for _, r := range repos {
				ids = append(ids, r.ID)
			}
		}

		var failed int
		for _, id := range ids {
			res, err := svcs.sync.SyncFiles(ctx, id)
			if err != nil {
				slog.Error("sync failed", "repo_id", id, "error", err)
				failed++
				continue
			}
			slog.Info(res.Message, "repo_id", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d repositories failed to sync", failed, len(ids))
		}
		return nil
	},
}

func init() {
	syncCMD.Flags().String("token", "", "GitHub access token used to import repositories")
	rootCMD.AddCommand(syncCMD)
}
