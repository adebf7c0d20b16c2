package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/robinkct/notion-account-graph/pkg/config"
	"github.com/robinkct/notion-account-graph/pkg/console"
	"github.com/robinkct/notion-account-graph/pkg/imgur"
	"github.com/robinkct/notion-account-graph/pkg/ledger"
	"github.com/robinkct/notion-account-graph/pkg/notion"
	"github.com/robinkct/notion-account-graph/pkg/store"
)

var (
	redrawBucket string
	redrawLocal  bool
)

// redrawCmd represents the redraw command.
var redrawCmd = &cobra.Command{
	Use:   "redraw",
	Short: "Re-render charts from the local snapshot",
	Long: `Re-render bucket charts from the full local snapshot without
fetching new records, then upload and re-attach the changed ones.
Useful after changing select colors or the schema mapping.

Example:
  notion-graph redraw
  notion-graph redraw --title "Okinawa Trip"
  notion-graph redraw --skip-upload`,
	Run: runRedraw,
}

func init() {
	// Flags
	redrawCmd.Flags().StringVar(&redrawBucket, "title", "", "re-render only this bucket")
	redrawCmd.Flags().BoolVar(&redrawLocal, "skip-upload", false, "render charts locally without uploading or attaching")
	redrawCmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild the cached relation table and color config")
}

func runRedraw(cmd *cobra.Command, args []string) {
	out := console.New()

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	required := [][]string{{"notion", "token"}, {"notion", "accountDb"}, {"notion", "eventDb"}, {"notion", "monthDb"}}
	if !redrawLocal {
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

	relations, err := loadRelations(client, cfg, mapping, resolver, refresh)
	exitOnError(err, "failed to load relation table")

	colors, err := loadColors(client, cfg, resolver, refresh)
	exitOnError(err, "failed to load color config")

	// Load the full history
	snapshots := store.NewSnapshots(resolver.GetSnapshotPath(), resolver.GetAffectedPath())
	records, err := snapshots.LoadFull()
	exitOnError(err, "failed to load snapshot")
	if len(records) == 0 {
		out.Warning("Snapshot is empty, run sync first")
		return
	}

	// Render
	attrs := colors.Vocabulary(mapping.Properties.Attribute)
	cats := colors.Vocabulary(mapping.Properties.Category)
	renderer := newRenderer(colors, mapping)

	files, titles, err := renderBuckets(out, renderer, resolver, records, mapping, attrs, cats, redrawBucket, 0)
	exitOnError(err, "failed to render charts")
	if len(titles) == 0 {
		out.Warning("No bucket matched %q", redrawBucket)
		return
	}
	out.Success("Rendered %d charts for %d buckets", len(files), len(titles))

	if redrawLocal {
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

	out.Success("Redraw complete: %d buckets published", len(titles))
}
