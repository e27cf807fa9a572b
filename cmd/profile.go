package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/deeptech-ai/talent-cli/internal/aggregate"
	"github.com/deeptech-ai/talent-cli/internal/embedding"
	"github.com/deeptech-ai/talent-cli/internal/model"
)

var (
	profileFile      string
	profileJSON      bool
	profileCoherence bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Aggregate extracted source documents into a candidate profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(profileFile)
		if err != nil {
			return eris.Wrap(err, "read documents file")
		}
		var docs []model.SourceDocument
		if err := json.Unmarshal(data, &docs); err != nil {
			return eris.Wrap(err, "parse documents file")
		}

		profile := aggregate.AggregateProfile(docs)
		coverage := aggregate.CoverageScore(docs)
		quality := embedding.DocumentQualityScore(profile.CombinedText)

		out := map[string]any{
			"profile":        profile,
			"coverage_score": coverage,
			"quality_score":  quality,
		}

		// Coherence needs one vector per document, so it calls the provider.
		if profileCoherence {
			env, err := initEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			vectors := make([][]float32, 0, len(docs))
			for _, d := range docs {
				vec, err := env.Encoder.Encode(ctx, d.RawText)
				if err != nil {
					return eris.Wrapf(err, "encode document %s", d.SourceName)
				}
				if !embedding.IsZero(vec) {
					vectors = append(vectors, vec)
				}
			}
			out["coherence_score"] = embedding.ProfileCoherence(vectors)
		}

		if profileJSON {
			return json.NewEncoder(os.Stdout).Encode(out)
		}

		fmt.Printf("name:        %s\n", profile.Name)
		fmt.Printf("experience:  %.1f years\n", profile.YearsExperience)
		fmt.Printf("skills:      %s\n", strings.Join(profile.Skills, ", "))
		fmt.Printf("topics:      %s\n", strings.Join(profile.TopTopics, ", "))
		fmt.Printf("documents:   %d (%d source types)\n", profile.DocumentCount, len(profile.SourceTypes))
		fmt.Printf("coverage:    %.0f/20\n", coverage)
		fmt.Printf("quality:     %.0f/100\n", quality)
		if c, ok := out["coherence_score"]; ok {
			fmt.Printf("coherence:   %.0f/100\n", c)
		}
		return nil
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileFile, "file", "", "path to extracted documents JSON (required)")
	_ = profileCmd.MarkFlagRequired("file")
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "output JSON")
	profileCmd.Flags().BoolVar(&profileCoherence, "coherence", false, "also compute cross-document coherence (calls the embeddings API)")
	rootCmd.AddCommand(profileCmd)
}
