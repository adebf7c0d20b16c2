package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/robinkct/notion-account-graph/pkg/config"
	"github.com/robinkct/notion-account-graph/pkg/console"
	"github.com/robinkct/notion-account-graph/pkg/db"
)

var statsTop int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display sync statistics",
	Long: `Display statistics about synced expense records.

Shows:
- Total number of synced records and their summed amount
- Number of distinct event and month buckets
- The largest event buckets by amount
- Last sync timestamp

Example:
  notion-graph stats
  notion-graph stats --top 5`,
	Run: runStats,
}

func init() {
	// Flags
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of event buckets to list")
}

func runStats(cmd *cobra.Command, args []string) {
	out := console.New()

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	mapping, err := loadMapping(cfg)
	exitOnError(err, "failed to load schema mapping")

	resolver := newResolver(cfg, mapping)

	dbPath := resolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewSyncHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	out.Println()
	out.Println("=== Sync Statistics ===")
	fmt.Printf("Total synced records: %s\n", console.BrightCyan(stats.TotalRecords))
	fmt.Printf("Total amount:         %s\n", console.BrightGreen(humanize.CommafWithDigits(stats.TotalAmount, 0)))
	fmt.Printf("Event buckets:        %d\n", stats.EventBuckets)
	fmt.Printf("Month buckets:        %d\n", stats.MonthBuckets)

	if stats.LastSync.Valid {
		fmt.Printf("Last sync:            %s\n", stats.LastSync.String)
	} else {
		fmt.Printf("Last sync:            (never)\n")
	}
	out.Println()

	totals, err := history.BucketTotals(statsTop)
	exitOnError(err, "failed to get bucket totals")

	if len(totals) > 0 {
		rows := make([][]string, 0, len(totals))
		for _, t := range totals {
			rows = append(rows, []string{
				t.Bucket,
				fmt.Sprintf("%d", t.Records),
				humanize.CommafWithDigits(t.Amount, 0),
			})
		}
		out.Table([]string{"Event", "Records", "Amount"}, rows)
		out.Println()
	}
}
