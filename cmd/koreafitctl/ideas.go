package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"koreafit/internal/models/request_models"
	"koreafit/internal/services"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load ideas from a YAML file into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ideas, err := loadSeedFile(seedFile)
		if err != nil {
			return err
		}

		var svc services.IdeaService
		return run(func(ctx context.Context) error {
			created, failed := 0, 0
			for i, req := range ideas {
				idea, err := svc.CreateIdea(ctx, req)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "  [%d] %q: %v\n", i+1, req.Title, err)
					continue
				}
				created++
				fmt.Printf("  + %s (Korea Fit %.1f)\n", idea.Title, derefScore(idea.KoreaFit))
			}
			fmt.Printf("\nSeed complete: %d created, %d failed\n", created, failed)
			return nil
		}, &svc)
	},
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Score every idea that has no Korea Fit score yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc services.IdeaService
		return run(func(ctx context.Context) error {
			summary, err := svc.EnhanceAll(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Enhanced %d of %d ideas (%d already scored, %d failed)\n",
				summary.Enhanced, summary.Total, summary.Skipped, summary.Failed)
			return nil
		}, &svc)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with a list of ideas (or an 'ideas:' key)")
	_ = seedCmd.MarkFlagRequired("file")
}

// loadSeedFile accepts either a top-level list or a document with an
// "ideas" key.
func loadSeedFile(path string) ([]request_models.CreateIdeaRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var list []request_models.CreateIdeaRequest
	if err := yaml.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var doc struct {
		Ideas []request_models.CreateIdeaRequest `yaml:"ideas"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	if len(doc.Ideas) == 0 {
		return nil, fmt.Errorf("seed file %s has no ideas", path)
	}
	return doc.Ideas, nil
}

func derefScore(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
