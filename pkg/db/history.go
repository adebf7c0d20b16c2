package db

import (
	"database/sql"
	"fmt"

	"github.com/robinkct/notion-account-graph/pkg/expense"
)

// SyncRecord is one row of the sync history.
type SyncRecord struct {
	ID          int64
	PageID      string
	Item        string
	RecordDate  string
	Amount      float64
	EventBucket string
	MonthBucket string
	SyncedAt    string
}

// Stats summarizes the sync history for the stats command.
type Stats struct {
	TotalRecords int64
	TotalAmount  float64
	EventBuckets int64
	MonthBuckets int64
	LastSync     sql.NullString
}

// SyncHistory manages sync history operations.
type SyncHistory struct {
	conn *Connection
}

// NewSyncHistory creates a new SyncHistory instance.
func NewSyncHistory(conn *Connection) *SyncHistory {
	return &SyncHistory{conn: conn}
}

// RecordSynced stores the given records in one transaction. Re-syncing an
// existing page updates its row in place.
func (s *SyncHistory) RecordSynced(records []expense.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO sync_history (page_id, item, record_date, amount, event_bucket, month_bucket)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			item = excluded.item,
			record_date = excluded.record_date,
			amount = excluded.amount,
			event_bucket = excluded.event_bucket,
			month_bucket = excluded.month_bucket,
			synced_at = CURRENT_TIMESTAMP
	`

	return s.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.Exec(r.PageID, r.Item, r.Date, r.Amount, r.EventTitle(), r.MonthTitle()); err != nil {
				return fmt.Errorf("failed to record %s: %w", r.PageID, err)
			}
		}
		return nil
	})
}

// IsSynced checks if a page has been synced.
func (s *SyncHistory) IsSynced(pageID string) (bool, error) {
	var count int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM sync_history WHERE page_id = ?`, pageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if synced: %w", err)
	}
	return count > 0, nil
}

// SyncedIDs returns the set of all synced page IDs.
func (s *SyncHistory) SyncedIDs() (map[string]struct{}, error) {
	rows, err := s.conn.Query(`SELECT page_id FROM sync_history`)
	if err != nil {
		return nil, fmt.Errorf("failed to query synced IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan page ID: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// GetStats returns summary statistics of the sync history.
func (s *SyncHistory) GetStats() (*Stats, error) {
	var stats Stats

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COUNT(DISTINCT CASE WHEN event_bucket != '' THEN event_bucket END),
			COUNT(DISTINCT CASE WHEN month_bucket != '' THEN month_bucket END),
			MAX(synced_at)
		FROM sync_history
	`
	err := s.conn.QueryRow(query).Scan(
		&stats.TotalRecords,
		&stats.TotalAmount,
		&stats.EventBuckets,
		&stats.MonthBuckets,
		&stats.LastSync,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &stats, nil
}

// BucketTotals returns the summed amount per event bucket, largest first.
func (s *SyncHistory) BucketTotals(limit int) ([]BucketTotal, error) {
	query := `
		SELECT event_bucket, COUNT(*), SUM(amount)
		FROM sync_history
		WHERE event_bucket != ''
		GROUP BY event_bucket
		ORDER BY SUM(amount) DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket totals: %w", err)
	}
	defer rows.Close()

	var totals []BucketTotal
	for rows.Next() {
		var t BucketTotal
		if err := rows.Scan(&t.Bucket, &t.Records, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan bucket total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// BucketTotal is one row of the per-bucket breakdown.
type BucketTotal struct {
	Bucket  string
	Records int64
	Amount  float64
}

// SetMetadata stores a key-value metadata pair.
func (s *SyncHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}

// GetMetadata retrieves a metadata value. Missing keys return "".
func (s *SyncHistory) GetMetadata(key string) (string, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM sync_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}
