package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/robinkct/notion-account-graph/pkg/config"
	"github.com/robinkct/notion-account-graph/pkg/console"
	"github.com/robinkct/notion-account-graph/pkg/db"
	"github.com/robinkct/notion-account-graph/pkg/imgur"
	"github.com/robinkct/notion-account-graph/pkg/ledger"
	"github.com/robinkct/notion-account-graph/pkg/notion"
	"github.com/robinkct/notion-account-graph/pkg/store"
	"github.com/robinkct/notion-account-graph/pkg/syncer"
)

var (
	refresh     bool
	fullScan    bool
	skipUpload  bool
	bucketLimit int
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull new expense records and publish affected charts",
	Long: `Pull new expense records from the Notion account database and
publish the charts of every affected bucket.

This command:
1. Fetches unseen pages from the account database
2. Appends them to the local snapshot
3. Re-aggregates every event and month a new record touched
4. Renders total and per-party pie charts
5. Uploads changed charts to Imgur and attaches them to the bucket pages

Example:
  notion-graph sync
  notion-graph sync --refresh --full-scan
  notion-graph sync --skip-upload`,
	Run: runSync,
}

func init() {
	// Flags
	syncCmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild the cached relation table and color config")
	syncCmd.Flags().BoolVar(&fullScan, "full-scan", false, "walk the whole database instead of stopping at the first known page")
	syncCmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "render charts locally without uploading or attaching")
	syncCmd.Flags().IntVar(&bucketLimit, "limit", 0, "render at most this many buckets (0 = no limit)")
}

func runSync(cmd *cobra.Command, args []string) {
	out := console.New()

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	required := [][]string{
		{"notion", "token"},
		{"notion", "accountDb"},
		{"notion", "eventDb"},
		{"notion", "monthDb"},
	}
	if !skipUpload {
		required = append(required, []string{"imgur", "clientId"})
	}
	exitOnError(cfg.Validate(required...), "invalid configuration")

	mapping, err := loadMapping(cfg)
	exitOnError(err, "failed to load schema mapping")

	resolver := newResolver(cfg, mapping)
	exitOnError(resolver.EnsureAll(), "failed to create data directories")

	client := notion.NewClient(notion.ClientConfig{
		APIURL: cfg.Notion.APIURL,
		Token:  cfg.Notion.Token,
	})

	// Cached lookups
	relations, err := loadRelations(client, cfg, mapping, resolver, refresh)
	exitOnError(err, "failed to load relation table")

	colors, err := loadColors(client, cfg, resolver, refresh)
	exitOnError(err, "failed to load color config")

	// Pull new records
	out.Info("Syncing account database")
	engine := syncer.New(syncer.Config{
		Source:     client,
		DatabaseID: cfg.Notion.AccountDB,
		Mapping:    mapping,
		Relations:  relations,
		Snapshots:  store.NewSnapshots(resolver.GetSnapshotPath(), resolver.GetAffectedPath()),
		FullScan:   fullScan,
	})
	result, err := engine.Sync()
	exitOnError(err, "sync failed")

	// Record sync history
	conn, err := db.Open(resolver.GetDatabasePath())
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewSyncHistory(conn)
	exitOnError(history.RecordSynced(result.NewRecords), "failed to record sync history")

	if len(result.NewRecords) == 0 {
		out.Success("No new records, everything up to date")
		return
	}
	out.Info("Fetched %d new records touching %d buckets", len(result.NewRecords), len(result.Touched))

	// Render affected buckets
	attrs := colors.Vocabulary(mapping.Properties.Attribute)
	cats := colors.Vocabulary(mapping.Properties.Category)
	renderer := newRenderer(colors, mapping)

	files, titles, err := renderBuckets(out, renderer, resolver, result.Affected, mapping, attrs, cats, "", bucketLimit)
	exitOnError(err, "failed to render charts")
	out.Success("Rendered %d charts for %d buckets", len(files), len(titles))

	if skipUpload {
		out.Warning("Skipping upload and attach (--skip-upload)")
		return
	}

	// Upload and attach
	led, err := ledger.Load(resolver.GetLedgerPath())
	exitOnError(err, "failed to load upload ledger")

	reconciler := ledger.NewReconciler(ledger.ReconcilerConfig{
		Ledger: led,
		Host: imgur.NewClient(imgur.ClientConfig{
			ClientID: cfg.Imgur.ClientID,
		}),
		Attacher: client,
		Mapping:  mapping,
		Retry:    ledger.RetryPolicy{MaxAttempts: 3, Cooldown: time.Minute},
	})

	out.Info("Uploading changed charts")
	uploadFailed, err := reconciler.UploadLocal(files)
	exitOnError(err, "failed to save upload ledger")
	if uploadFailed > 0 {
		out.Warning("%d charts failed to upload, will retry next run", uploadFailed)
	}

	out.Info("Attaching charts to bucket pages")
	attachFailed, err := reconciler.AttachRemote(pagesForTitles(relations, titles))
	exitOnError(err, "failed to save upload ledger")
	if attachFailed > 0 {
		out.Warning("%d charts failed to attach, will retry next run", attachFailed)
	}

	out.Success("Sync complete: %d new records, %d buckets published", len(result.NewRecords), len(titles))
}
