package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the configured shares once",
	Long: `Walk every configured share, dedup files by content digest and sort
the winners into the central tree. Runs synchronously and prints the
crawl statistics when done.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateCrawl(); err != nil {
			return err
		}
		if err := cr.RunOnce(context.Background()); err != nil {
			return err
		}

		status := cr.Status()
		stats := status.Stats
		fmt.Println(titleStyle.Render("Crawl finished"))
		fmt.Printf("  processed:  %d\n", stats.Processed)
		fmt.Printf("  moved:      %d\n", stats.Moved)
		fmt.Printf("  duplicates: %d\n", stats.Duplicates)
		if stats.Errors > 0 {
			fmt.Println(warnStyle.Render(fmt.Sprintf("  errors:     %d", stats.Errors)))
		}

		customers := make([]string, 0, len(stats.ByCustomer))
		for customer := range stats.ByCustomer {
			customers = append(customers, customer)
		}
		sort.Strings(customers)
		for _, customer := range customers {
			cust := stats.ByCustomer[customer]
			fmt.Printf("  %s: %d processed, %d duplicates\n", customer, cust.Processed, cust.Duplicates)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}
