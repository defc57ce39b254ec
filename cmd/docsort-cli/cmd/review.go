package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsort/internal/application/commands"
	"docsort/internal/ports"
)

var (
	reviewCustomer string
	reviewProject  string
	reviewCategory string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the classification review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending review items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := review.List(ports.ReviewFilter{
			Customer: reviewCustomer,
			Project:  reviewProject,
		})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println(mutedStyle.Render("Review queue is empty."))
			return nil
		}
		for _, item := range items {
			fmt.Printf("%s  %s  %s (%.2f)  %s\n",
				item.ID, item.Filename, item.SuggestedCategory, item.Confidence,
				mutedStyle.Render(item.OriginalPath))
		}
		return nil
	},
}

var reviewConfirmCmd = &cobra.Command{
	Use:   "confirm <review-id>",
	Short: "Confirm a suggestion and file the document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmCmd := commands.NewConfirmReviewCommand(cfg, review, documents, index, feedback,
			args[0], reviewCategory, reviewCustomer, reviewProject)
		result, err := confirmCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(result.Message))
		fmt.Printf("  filed at: %s\n", result.Document.TargetPath)
		return nil
	},
}

var reviewDiscardCmd = &cobra.Command{
	Use:   "discard <review-id>",
	Short: "Drop a pending suggestion without moving the file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		discardCmd := commands.NewDiscardReviewCommand(review, args[0])
		if err := discardCmd.Execute(context.Background()); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Discarded %s", args[0])))
		return nil
	},
}

func init() {
	reviewListCmd.Flags().StringVar(&reviewCustomer, "customer", "", "filter by customer root")
	reviewListCmd.Flags().StringVar(&reviewProject, "project", "", "filter by project")
	reviewConfirmCmd.Flags().StringVar(&reviewCategory, "category", "", "override the suggested category")
	reviewConfirmCmd.Flags().StringVar(&reviewCustomer, "customer", "", "override the customer root")
	reviewConfirmCmd.Flags().StringVar(&reviewProject, "project", "", "override the project")
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewConfirmCmd)
	reviewCmd.AddCommand(reviewDiscardCmd)
	rootCmd.AddCommand(reviewCmd)
}
