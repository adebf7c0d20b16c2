// Package syncer pulls new expense pages from the account database and folds
// them into the local snapshots.
package syncer

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/notion"
	"github.com/robinkct/notion-account-graph/pkg/store"
)

// Source is the query surface of the Notion client the engine needs.
type Source interface {
	QueryDatabase(databaseID string, filter, sorts json.RawMessage, pageSize int, startCursor string) (*notion.QueryResponse, error)
}

// Config configures a sync engine.
type Config struct {
	Source     Source
	DatabaseID string
	Mapping    *expense.Mapping
	Relations  map[string]string
	Snapshots  *store.Snapshots
	PageSize   int // Default: 100
	// FullScan walks every page of the database and dedups per record
	// instead of stopping at the first already-known page.
	FullScan bool
}

// Engine fetches pages newest-first, normalizes them into records and
// appends them to the full snapshot.
type Engine struct {
	source     Source
	databaseID string
	mapping    *expense.Mapping
	relations  map[string]string
	snapshots  *store.Snapshots
	pageSize   int
	fullScan   bool
}

// Result is the outcome of one sync run.
type Result struct {
	// NewRecords are the records appended this run, newest first.
	NewRecords []expense.Record
	// Affected is the subset of the full history belonging to a bucket a
	// new record touched, ready for re-aggregation.
	Affected []expense.Record
	// Touched is the set of bucket titles (events and months) the new
	// records belong to.
	Touched map[string]struct{}
}

// New creates a sync engine.
func New(cfg Config) *Engine {
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 100
	}

	return &Engine{
		source:     cfg.Source,
		databaseID: cfg.DatabaseID,
		mapping:    cfg.Mapping,
		relations:  cfg.Relations,
		snapshots:  cfg.Snapshots,
		pageSize:   pageSize,
		fullScan:   cfg.FullScan,
	}
}

// Sync fetches unseen pages, appends them to the full snapshot and rewrites
// the affected snapshot. The query relies on the database returning pages
// newest-first, so pagination stops at the first already-known page; a
// transport error mid-pagination keeps what was fetched so far instead of
// discarding the run.
func (e *Engine) Sync() (*Result, error) {
	known, err := e.snapshots.KnownIDs()
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded snapshot history", "known", len(known))

	newRecords, err := e.fetchNew(known)
	if err != nil {
		return nil, err
	}

	if err := e.snapshots.Append(newRecords); err != nil {
		return nil, fmt.Errorf("failed to append snapshot: %w", err)
	}

	touched := touchedBuckets(newRecords)
	affected, err := e.collectAffected(newRecords, touched)
	if err != nil {
		return nil, err
	}
	if err := e.snapshots.WriteAffected(affected); err != nil {
		return nil, fmt.Errorf("failed to write affected snapshot: %w", err)
	}

	return &Result{
		NewRecords: newRecords,
		Affected:   affected,
		Touched:    touched,
	}, nil
}

func (e *Engine) fetchNew(known map[string]struct{}) ([]expense.Record, error) {
	var newRecords []expense.Record
	seen := make(map[string]struct{})
	cursor := ""

	for {
		resp, err := e.source.QueryDatabase(e.databaseID, nil, nil, e.pageSize, cursor)
		if err != nil {
			if len(newRecords) == 0 && cursor == "" {
				return nil, fmt.Errorf("failed to query database: %w", err)
			}
			slog.Warn("Query failed mid-pagination, keeping fetched pages", "error", err, "fetched", len(newRecords))
			return newRecords, nil
		}

		for _, page := range resp.Results {
			if _, dup := seen[page.ID]; dup {
				continue
			}
			seen[page.ID] = struct{}{}

			if _, ok := known[page.ID]; ok {
				if e.fullScan {
					continue
				}
				slog.Debug("Reached known page, stopping pagination", "page_id", page.ID)
				return newRecords, nil
			}

			newRecords = append(newRecords, expense.FromPage(page, e.mapping, e.relations))
		}

		if !resp.HasMore || resp.NextCursor == nil {
			return newRecords, nil
		}
		cursor = *resp.NextCursor
	}
}

// collectAffected returns every record of the full history (the just-appended
// ones included) whose event or month bucket was touched this run.
func (e *Engine) collectAffected(newRecords []expense.Record, touched map[string]struct{}) ([]expense.Record, error) {
	if len(touched) == 0 {
		return nil, nil
	}

	all, err := e.snapshots.LoadFull()
	if err != nil {
		return nil, err
	}

	var affected []expense.Record
	for _, r := range all {
		if inTouched(r, touched) {
			affected = append(affected, r)
		}
	}
	return affected, nil
}

func inTouched(r expense.Record, touched map[string]struct{}) bool {
	if _, ok := touched[r.EventTitle()]; ok && r.EventTitle() != "" {
		return true
	}
	if _, ok := touched[r.MonthTitle()]; ok && r.MonthTitle() != "" {
		return true
	}
	return false
}

func touchedBuckets(records []expense.Record) map[string]struct{} {
	touched := make(map[string]struct{})
	for _, r := range records {
		if t := r.EventTitle(); t != "" {
			touched[t] = struct{}{}
		}
		if t := r.MonthTitle(); t != "" {
			touched[t] = struct{}{}
		}
	}
	return touched
}
