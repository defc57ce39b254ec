package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/adapters/sqlite"
	"docsort/internal/application/commands"
	"docsort/internal/config"
	"docsort/internal/crawler"
	"docsort/internal/rollback"
)

var (
	configPath string

	cfg       *config.Config
	store     *sqlite.Store
	index     *sqlite.HashIndex
	review    *sqlite.ReviewStore
	documents *sqlite.DocumentStore
	batches   *sqlite.BatchStore
	feedback  *filesystem.FeedbackLog
	rollbacks *rollback.Service
	cr        *crawler.Crawler
	orch      *commands.Orchestrator
)

var rootCmd = &cobra.Command{
	Use:   "docsort-cli",
	Short: "CLI for the document ingest and sorting service",
	Long: `docsort-cli manages the document archive directly: run crawls,
inspect and resolve quarantined duplicates, work the classification
review queue, and roll operations back from snapshots.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		store, err = sqlite.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}

		index = sqlite.NewHashIndex(store)
		review = sqlite.NewReviewStore(store)
		documents = sqlite.NewDocumentStore(store)
		batches = sqlite.NewBatchStore(store)
		feedback = filesystem.NewFeedbackLog(cfg.FeedbackLogPath())

		snapshots := sqlite.NewSnapshotStore(store)
		rollbacks = rollback.New(snapshots, documents, batches, nil, cfg.Snapshots.RetentionDays)
		cr = crawler.New(cfg, index)
		orch = commands.NewOrchestrator(cfg, documents, index, review, nil, rollbacks, nil, nil)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "path to the config file")
}
