package cmd

import (
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/robinkct/notion-account-graph/pkg/aggregate"
	"github.com/robinkct/notion-account-graph/pkg/chart"
	"github.com/robinkct/notion-account-graph/pkg/config"
	"github.com/robinkct/notion-account-graph/pkg/console"
	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/notion"
	"github.com/robinkct/notion-account-graph/pkg/pathutil"
	"github.com/robinkct/notion-account-graph/pkg/store"
)

// loadRelations returns the bucket page ID to title table, rebuilding it from
// the bucket databases when asked to refresh or when no cached copy exists.
func loadRelations(client *notion.Client, cfg *config.Config, mapping *expense.Mapping, resolver *pathutil.PathResolver, refresh bool) (map[string]string, error) {
	path := resolver.GetRelationTablePath()

	if !refresh && resolver.FileExists(path) {
		slog.Debug("Loading cached relation table", "path", path)
		return store.LoadRelationTable(path)
	}

	slog.Info("Building relation table from bucket databases")
	table, err := store.BuildRelationTable(client, mapping, cfg.Notion.EventDB, cfg.Notion.MonthDB)
	if err != nil {
		return nil, err
	}
	if err := store.SaveRelationTable(path, table); err != nil {
		return nil, err
	}
	return table, nil
}

// loadColors returns the select option colors of the account database,
// refetching the schema when asked to refresh or when no cached copy exists.
func loadColors(client *notion.Client, cfg *config.Config, resolver *pathutil.PathResolver, refresh bool) (store.ColorConfig, error) {
	path := resolver.GetColorConfigPath()

	if !refresh && resolver.FileExists(path) {
		slog.Debug("Loading cached color config", "path", path)
		return store.LoadColorConfig(path)
	}

	slog.Info("Fetching select options from account database")
	colors, err := store.FetchColorConfig(client, cfg.Notion.AccountDB)
	if err != nil {
		return nil, err
	}
	if err := store.SaveColorConfig(path, colors); err != nil {
		return nil, err
	}
	return colors, nil
}

// newRenderer builds the chart renderer from the cached vocabulary colors.
func newRenderer(colors store.ColorConfig, mapping *expense.Mapping) *chart.Renderer {
	return chart.New(chart.Config{
		Attributes: colors.Vocabulary(mapping.Properties.Attribute),
		Categories: colors.Vocabulary(mapping.Properties.Category),
		PartyA:     mapping.Parties.A,
		PartyB:     mapping.Parties.B,
	})
}

// renderBuckets aggregates records per event and per month and renders every
// bucket into its directory. Returns the written chart files (name to full
// path) and the rendered bucket titles.
func renderBuckets(out *console.Console, renderer *chart.Renderer, resolver *pathutil.PathResolver, records []expense.Record, mapping *expense.Mapping, attrs, cats *aggregate.Vocabulary, only string, limit int) (map[string]string, []string, error) {
	buckets := aggregate.Aggregate(records, aggregate.ByEvent, attrs, cats, mapping.Parties)
	merged := aggregate.Aggregate(records, aggregate.ByMonth, attrs, cats, mapping.Parties)
	for name, b := range merged {
		buckets[name] = b
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		if only != "" && name != only {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		slog.Debug("Bucket limit reached, skipping rest", "limit", limit)
		names = names[:limit]
	}

	files := make(map[string]string)
	var titles []string

	progress := out.Progress("Rendering buckets", len(names))
	defer progress.Stop()

	for _, name := range names {
		dir := resolver.DirForTitle(name)
		if err := resolver.EnsureDir(dir); err != nil {
			return nil, nil, err
		}

		written, err := renderer.RenderBucket(buckets[name], dir)
		if err != nil {
			return nil, nil, err
		}
		progress.Increment()
		if len(written) == 0 {
			continue
		}

		for _, fileName := range written {
			files[fileName] = filepath.Join(dir, fileName)
		}
		titles = append(titles, name)
		slog.Info("Rendered bucket", "bucket", name, "charts", len(written))
	}

	return files, titles, nil
}

// pagesForTitles inverts the relation table for the given bucket titles.
func pagesForTitles(relations map[string]string, titles []string) map[string]string {
	want := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		want[t] = struct{}{}
	}

	pages := make(map[string]string)
	for pageID, title := range relations {
		if _, ok := want[title]; ok {
			pages[title] = pageID
		}
	}
	return pages
}
