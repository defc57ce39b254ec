package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"docsort/internal/application/commands"
)

var (
	snapshotsOperation string
	snapshotsLimit     int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List, roll back and prune operation snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		listCmd := commands.NewListSnapshotsCommand(rollbacks, snapshotsOperation, time.Time{}, snapshotsLimit)
		snapshots, err := listCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			fmt.Println(mutedStyle.Render("No snapshots."))
			return nil
		}
		for _, s := range snapshots {
			fmt.Printf("%s  %-17s  %s  %s\n",
				s.ID, s.OperationType, s.Timestamp.Format(time.RFC3339),
				mutedStyle.Render(s.Description))
		}
		return nil
	},
}

var snapshotsRollbackCmd = &cobra.Command{
	Use:   "rollback <snapshot-id>",
	Short: "Restore the state captured in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rollbackCmd := commands.NewRollbackSnapshotCommand(rollbacks, args[0])
		result, err := rollbackCmd.Execute(context.Background())
		if err != nil {
			return err
		}
		if result.Success {
			fmt.Println(successStyle.Render(result.Message))
		} else {
			fmt.Println(warnStyle.Render(result.Message))
			for _, e := range result.Errors {
				fmt.Println(errorStyle.Render("  " + e))
			}
		}
		fmt.Printf("  restored: %d, failed: %d, took %s\n",
			result.FilesRestored, result.FilesFailed, result.Duration.Round(time.Millisecond))
		return nil
	},
}

var snapshotsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete snapshots past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := rollbacks.Cleanup()
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Removed %d expired snapshots", removed)))
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().StringVar(&snapshotsOperation, "operation", "", "filter by operation type")
	snapshotsListCmd.Flags().IntVar(&snapshotsLimit, "limit", 20, "maximum snapshots to list")
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsRollbackCmd)
	snapshotsCmd.AddCommand(snapshotsCleanupCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
