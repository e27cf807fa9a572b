package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deeptech-ai/talent-cli/internal/db"
	"github.com/deeptech-ai/talent-cli/internal/model"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

var expertsCmd = &cobra.Command{
	Use:   "experts",
	Short: "Manage expert profiles",
}

var (
	expertsListStatus string
	expertsListDomain string
	expertsListLimit  int
)

var expertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		experts, err := st.ListExperts(ctx, store.ExpertFilter{
			VettingStatus: model.VettingStatus(expertsListStatus),
			Domain:        expertsListDomain,
			Limit:         expertsListLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list experts")
		}

		for _, e := range experts {
			staleness := "embedded"
			if e.Stale() {
				staleness = "stale"
			}
			fmt.Printf("%-36s  %-24s %-9s %-9s %s\n",
				e.ID, e.Name, e.VettingStatus, staleness, strings.Join(e.Domains, ", "))
		}
		fmt.Printf("\n%d experts\n", len(experts))
		return nil
	},
}

var expertsImportFile string

var expertsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import experts from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(expertsImportFile)
		if err != nil {
			return eris.Wrap(err, "read import file")
		}
		var experts []model.Expert
		if err := json.Unmarshal(data, &experts); err != nil {
			return eris.Wrap(err, "parse import file")
		}
		if len(experts) == 0 {
			return eris.New("import file contains no experts")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		// Postgres gets the COPY-based bulk path; SQLite inserts one by one.
		if ps, ok := st.(*store.PostgresStore); ok {
			n, err := bulkImportExperts(cmd.Context(), ps, experts)
			if err != nil {
				return err
			}
			zap.L().Info("import complete", zap.Int64("upserted", n), zap.String("file", expertsImportFile))
			return nil
		}

		for _, e := range experts {
			if _, err := st.CreateExpert(ctx, e); err != nil {
				return eris.Wrapf(err, "import expert %s", e.Name)
			}
		}
		zap.L().Info("import complete", zap.Int("created", len(experts)), zap.String("file", expertsImportFile))
		return nil
	},
}

var expertImportColumns = []string{
	"id", "name", "bio", "skills", "domains", "expertise_areas",
	"patents", "papers", "products", "hourly_rates", "vetting_status",
	"rating", "review_count", "total_hours", "availability",
	"created_at", "updated_at",
}

// bulkImportExperts upserts experts keyed on id. Imported rows get a fresh
// updated_at, so the embed batch will pick them up as stale.
func bulkImportExperts(ctx context.Context, ps *store.PostgresStore, experts []model.Expert) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(experts))
	for _, e := range experts {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.VettingStatus == "" {
			e.VettingStatus = model.VettingPending
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		skillsJSON, err := json.Marshal(e.Skills)
		if err != nil {
			return 0, eris.Wrapf(err, "marshal skills for %s", e.Name)
		}
		areasJSON, err := json.Marshal(e.ExpertiseAreas)
		if err != nil {
			return 0, eris.Wrapf(err, "marshal expertise areas for %s", e.Name)
		}
		ratesJSON, err := json.Marshal(e.HourlyRates)
		if err != nil {
			return 0, eris.Wrapf(err, "marshal hourly rates for %s", e.Name)
		}

		rows = append(rows, []any{
			e.ID, e.Name, e.Bio, skillsJSON, e.Domains, areasJSON,
			e.Patents, e.Papers, e.Products, ratesJSON, string(e.VettingStatus),
			e.Rating, e.ReviewCount, e.TotalHours, e.Available,
			createdAt, now,
		})
	}

	n, err := db.BulkUpsert(ctx, ps.Pool(), db.UpsertConfig{
		Table:        "experts",
		Columns:      expertImportColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bulk upsert experts")
	}
	return n, nil
}

func init() {
	expertsListCmd.Flags().StringVar(&expertsListStatus, "vetting-status", "", "filter by vetting status")
	expertsListCmd.Flags().StringVar(&expertsListDomain, "domain", "", "filter by domain")
	expertsListCmd.Flags().IntVar(&expertsListLimit, "limit", 0, "max experts to list")

	expertsImportCmd.Flags().StringVar(&expertsImportFile, "file", "", "path to JSON file (required)")
	_ = expertsImportCmd.MarkFlagRequired("file")

	expertsCmd.AddCommand(expertsListCmd)
	expertsCmd.AddCommand(expertsImportCmd)
	rootCmd.AddCommand(expertsCmd)
}
