package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/deeptech-ai/talent-cli/internal/model"
)

var (
	searchLimit     int
	searchThreshold float64
	searchDomain    string
	searchStatus    string
	searchMinRating float64
	searchAvailable bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find experts by natural-language query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.SearchRequest{
			Query:     strings.Join(args, " "),
			Limit:     searchLimit,
			Threshold: searchThreshold,
		}

		filters := &model.SearchFilters{
			Domain:        searchDomain,
			VettingStatus: model.VettingStatus(searchStatus),
			MinRating:     searchMinRating,
		}
		if cmd.Flags().Changed("available") {
			filters.Available = &searchAvailable
		}
		if *filters != (model.SearchFilters{}) || filters.Available != nil {
			req.Filters = filters
		}

		resp, err := env.Search.Search(ctx, req)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if searchJSON {
			return json.NewEncoder(os.Stdout).Encode(resp)
		}

		if len(resp.Results) == 0 {
			fmt.Printf("no experts matched %q\n", resp.Query)
			return nil
		}
		for i, r := range resp.Results {
			fmt.Printf("%2d. %-28s %.2f  [%s]  %s\n",
				i+1, r.Name, r.SimilarityScore, r.VettingStatus,
				strings.Join(r.Domains, ", "))
		}
		fmt.Printf("\n%d results in %.1fms\n", resp.TotalResults, resp.ExecutionTimeMS)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default from config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "min cosine similarity (default from config)")
	searchCmd.Flags().StringVar(&searchDomain, "domain", "", "filter by domain")
	searchCmd.Flags().StringVar(&searchStatus, "vetting-status", "", "filter by vetting status")
	searchCmd.Flags().Float64Var(&searchMinRating, "min-rating", 0, "filter by minimum rating")
	searchCmd.Flags().BoolVar(&searchAvailable, "available", false, "filter by availability")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output JSON")
	rootCmd.AddCommand(searchCmd)
}
