package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sellside/matchbox/internal/similarity"
	"github.com/sellside/matchbox/internal/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score <a.json> <b.json>",
	Short: "Print the weighted similarity breakdown for two deals",
	Long: `Score two deal files against each other and print every per-field factor
alongside the weighted overall score. Useful for tuning weights and
tolerances: the breakdown shows which fields drive (or fail to drive)
a match.

Example:
  matchbox score a.json b.json
  matchbox score a.json b.json --config matchbox.yaml`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var deals [2]*similarityInput
		for i, path := range args {
			loaded, err := readDealsFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if len(loaded) == 0 {
				fmt.Fprintf(os.Stderr, "Error: no deals in %s\n", path)
				os.Exit(1)
			}
			deals[i] = &similarityInput{path: path, deal: loaded[0]}
		}

		result := similarity.ScoreWithTolerances(
			deals[0].deal, deals[1].deal,
			cfg.Weights, cfg.ValueTolerancePct, cfg.DateToleranceDays,
		)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n", cyan("Similarity breakdown"))
		fmt.Printf("  A: %s %s\n", deals[0].deal.Name, gray(deals[0].path))
		fmt.Printf("  B: %s %s\n\n", deals[1].deal.Name, gray(deals[1].path))

		names := make([]string, 0, len(result.Factors))
		for name := range result.Factors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-14s %s\n", name, scoreBar(result.Factors[name]))
		}
		if len(names) == 0 {
			fmt.Printf("  %s\n", gray("no comparable fields"))
		}

		fmt.Printf("\n  Overall: %s (weight used %.2f)\n\n", scoreBar(result.Overall), result.TotalWeight)
	},
}

type similarityInput struct {
	path string
	deal *types.Deal
}

// scoreBar renders a score with a color keyed to its band
func scoreBar(score float64) string {
	text := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 0.85:
		return color.New(color.FgRed).Sprint(text)
	case score >= 0.70:
		return color.New(color.FgYellow).Sprint(text)
	default:
		return color.New(color.FgGreen).Sprint(text)
	}
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
