package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsort/internal/application/commands"
	"docsort/internal/domain"
)

var processWorkers int

var processCmd = &cobra.Command{
	Use:   "process <path>...",
	Short: "Run files through the document pipeline",
	Long: `Classify, dedup and file one or more documents. A single path runs
inline; multiple paths run as a batch with a worker pool.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if len(args) == 1 {
			processCmd := commands.NewProcessDocumentCommand(orch, args[0])
			result, err := processCmd.Execute(ctx)
			if err != nil {
				return err
			}
			printResult(args[0], *result)
			return nil
		}

		batchCmd := commands.NewProcessBatchCommand(orch, batches, rollbacks, args, processWorkers)
		result, err := batchCmd.Execute(ctx)
		if err != nil {
			return err
		}
		for i, r := range result.Results {
			printResult(args[i], r)
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("Batch %s: %d processed, %d failed",
			result.Batch.ID, result.Batch.ProcessedFiles, result.Batch.FailedFiles)))
		return nil
	},
}

func printResult(path string, r domain.ProcessingResult) {
	switch {
	case r.Error != "":
		fmt.Println(errorStyle.Render(fmt.Sprintf("%s: %s", path, r.Error)))
	case r.Duplicate:
		fmt.Println(warnStyle.Render(fmt.Sprintf("%s: duplicate of %s", path, r.DuplicateOf)))
	case r.ReviewID != "":
		fmt.Println(warnStyle.Render(fmt.Sprintf("%s: queued for review (%s)", path, r.ReviewID)))
	default:
		fmt.Println(successStyle.Render(fmt.Sprintf("%s -> %s", path, r.TargetPath)))
	}
}

func init() {
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "batch worker count (0 uses the configured default)")
	rootCmd.AddCommand(processCmd)
}
