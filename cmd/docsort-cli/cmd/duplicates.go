package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsort/internal/application/commands"
)

var (
	duplicatesCustomer string
	duplicatesLimit    int
	duplicatesOffset   int
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Inspect and resolve quarantined duplicates",
}

var duplicatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quarantined files, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		listCmd := commands.NewListDuplicatesCommand(cfg, duplicatesCustomer, duplicatesLimit, duplicatesOffset)
		result, err := listCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		if result.Total == 0 {
			fmt.Println(mutedStyle.Render("No quarantined duplicates."))
			return nil
		}
		for _, e := range result.Entries {
			fmt.Printf("%s  %s  %d bytes  %s\n", e.CustomerRoot, e.Filename, e.Size, mutedStyle.Render(e.Path))
		}
		if result.Total > len(result.Entries) {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("Showing %d of %d", len(result.Entries), result.Total)))
		}
		return nil
	},
}

var duplicatesPromoteCmd = &cobra.Command{
	Use:   "promote <path>",
	Short: "Make a quarantined file the primary copy of its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		promoteCmd := commands.NewPromoteDuplicateCommand(cfg, index, cr, args[0])
		result, err := promoteCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(result.Message))
		fmt.Printf("  now at: %s\n", result.PromotedPath)
		if result.DemotedPath != "" {
			fmt.Printf("  demoted: %s\n", result.DemotedPath)
		}
		return nil
	},
}

var duplicatesMoveCmd = &cobra.Command{
	Use:   "move <path> <target-dir>",
	Short: "Move a quarantined file into an explicit directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		moveCmd := commands.NewMoveDuplicateCommand(cr, args[0], args[1])
		moved, err := moveCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Moved to %s", moved)))
		return nil
	},
}

var duplicatesDeleteCmd = &cobra.Command{
	Use:   "delete <path>...",
	Short: "Delete quarantined files permanently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleteCmd := commands.NewDeleteDuplicatesCommand(cr, args)
		result, err := deleteCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		for _, path := range result.Deleted {
			fmt.Println(successStyle.Render(fmt.Sprintf("Deleted %s", path)))
		}
		for path, reason := range result.Failed {
			fmt.Println(errorStyle.Render(fmt.Sprintf("%s: %s", path, reason)))
		}
		return nil
	},
}

func init() {
	duplicatesListCmd.Flags().StringVar(&duplicatesCustomer, "customer", "", "only list one customer's quarantine")
	duplicatesListCmd.Flags().IntVar(&duplicatesLimit, "limit", 0, "page size (0 uses the default)")
	duplicatesListCmd.Flags().IntVar(&duplicatesOffset, "offset", 0, "page offset")
	duplicatesCmd.AddCommand(duplicatesListCmd)
	duplicatesCmd.AddCommand(duplicatesPromoteCmd)
	duplicatesCmd.AddCommand(duplicatesMoveCmd)
	duplicatesCmd.AddCommand(duplicatesDeleteCmd)
	rootCmd.AddCommand(duplicatesCmd)
}
