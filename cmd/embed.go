package main

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/deeptech-ai/talent-cli/internal/embedjob"
	"github.com/deeptech-ai/talent-cli/internal/search"
)

var (
	embedBatchSize int
	embedExpertID  string
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Refresh stale expert embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if embedExpertID != "" {
			if _, err := env.Search.RefreshExpert(ctx, embedExpertID); err != nil {
				if errors.Is(err, search.ErrNoContent) {
					return eris.Errorf("expert %s has no embeddable content", embedExpertID)
				}
				return eris.Wrap(err, "refresh expert")
			}
			fmt.Printf("embedding refreshed for %s\n", embedExpertID)
			return nil
		}

		batchSize := embedBatchSize
		if batchSize <= 0 {
			batchSize = cfg.Embed.BatchSize
		}

		summary, err := env.Runner.Run(ctx, batchSize)
		if err != nil {
			return eris.Wrap(err, "run embedding batch")
		}

		printSummary(summary)
		return nil
	},
}

func printSummary(s embedjob.Summary) {
	fmt.Printf("processed: %d\nupdated:   %d\nskipped:   %d\nerrored:   %d\n",
		s.Processed, s.Updated, s.Skipped, s.Errored)
}

func init() {
	embedCmd.Flags().IntVar(&embedBatchSize, "batch-size", 0, "max experts per batch (default from config)")
	embedCmd.Flags().StringVar(&embedExpertID, "expert", "", "refresh a single expert by ID")
	rootCmd.AddCommand(embedCmd)
}
