package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"koreafit/internal/services"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <idea text>",
	Short: "Run the regulatory risk heuristics on an idea description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc services.RegulatoryService
		return run(func(ctx context.Context) error {
			a, err := svc.Analyze(ctx, joinArgs(args))
			if err != nil {
				return err
			}
			if analyzeJSON {
				return printJSON(a)
			}

			fmt.Printf("Category:   %s\n", a.Category)
			fmt.Printf("Risk score: %d/100\n", a.RiskScore)
			fmt.Printf("Verdict:    %s\n", a.Verdict)
			fmt.Printf("Timeline:   %s\n", a.Timeline)
			if len(a.SensitiveTopics) > 0 {
				fmt.Printf("Topics:     %v\n", a.SensitiveTopics)
			}
			fmt.Println("\nRegulations:")
			for _, r := range a.Regulations {
				fmt.Printf("  - %s (%s)\n", r.Name, r.Authority)
			}
			fmt.Printf("\nEstimated cost: %s\n", a.Costs.TotalDisplay)
			return nil
		}, &svc)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full analysis as JSON")
}
