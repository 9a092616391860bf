package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	resp "koreafit/internal/models/response_models"
	"koreafit/internal/services"
)

var previewOut string

var newsletterCmd = &cobra.Command{
	Use:   "newsletter",
	Short: "Preview or send the weekly newsletter",
}

var newsletterPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Assemble the newsletter and print the gate reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc services.NewsletterService
		return run(func(ctx context.Context) error {
			preview, err := svc.Preview(ctx)
			if err != nil {
				return err
			}
			printGateReport(preview)

			if previewOut != "" {
				if err := os.WriteFile(previewOut, []byte(preview.Newsletter.HTML), 0o644); err != nil {
					return fmt.Errorf("writing preview: %w", err)
				}
				fmt.Printf("\nHTML written to %s\n", previewOut)
			}
			return nil
		}, &svc)
	},
}

var newsletterSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the newsletter to every active subscriber if both gates pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		var svc services.NewsletterService
		return run(func(ctx context.Context) error {
			res, err := svc.SendScheduled(ctx)
			if err != nil {
				return err
			}
			if res.Blocked {
				return fmt.Errorf("newsletter blocked by %s (fact-check confidence %.0f)", strings.Join(res.BlockedBy, ", "), res.Confidence)
			}
			mode := ""
			if res.Simulated {
				mode = " (simulated)"
			}
			fmt.Printf("Sent %q to %d/%d recipients%s, %d failed\n", res.Subject, res.Sent, res.Recipients, mode, res.Failed)
			return nil
		}, &svc)
	},
}

func init() {
	newsletterPreviewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "Write the rendered HTML to this file")
	newsletterCmd.AddCommand(newsletterPreviewCmd)
	newsletterCmd.AddCommand(newsletterSendCmd)
}

func printGateReport(p *resp.NewsletterPreview) {
	n := p.Newsletter
	fmt.Printf("Subject:  %s\n", n.Subject)
	fmt.Printf("Edition:  %s\n", n.Edition)
	fmt.Printf("Content:  %d updates, %d ideas, ~%d min read\n", n.Metrics.UpdateCount, n.Metrics.IdeaCount, n.Metrics.EstimatedReadMins)

	fmt.Printf("\nTimeliness: %s (confidence %.1f)\n", p.Timeliness.Status, p.Timeliness.Confidence)
	fmt.Printf("  include %d, defer %d, archive %d\n", len(p.Timeliness.Include), len(p.Timeliness.Defer), len(p.Timeliness.Archive))

	fmt.Printf("\nFact check: confidence %.0f, %d sources\n", p.FactCheck.Confidence, p.FactCheck.Sources)
	for _, f := range p.FactCheck.Errors {
		fmt.Printf("  ERROR   %s: %s\n", f.Kind, f.Message)
	}
	for _, f := range p.FactCheck.Warnings {
		fmt.Printf("  WARNING %s: %s\n", f.Kind, f.Message)
	}

	if p.CanSend {
		fmt.Println("\nReady to send.")
	} else {
		fmt.Printf("\nBlocked by: %s\n", strings.Join(p.BlockedBy, ", "))
	}
}
