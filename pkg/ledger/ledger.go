// Package ledger tracks which chart files were uploaded and attached, so
// repeated runs only touch what changed on disk.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

// TimeLayout is the timestamp format used in the ledger CSV.
const TimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"file_name", "full_path", "modification_time", "url", "upload_notion_time"}

// Entry is one ledger row, keyed by file name. Times are stored as formatted
// strings; empty means never happened.
type Entry struct {
	FileName string
	FullPath string
	ModTime  string
	URL      string
	PushTime string
}

// NeedsUpload reports whether the file must be (re-)uploaded given its
// current on-disk modification time.
func (e *Entry) NeedsUpload(modTime string) bool {
	return e.URL == "" || e.ModTime != modTime
}

// NeedsPush reports whether the file must be (re-)attached: it was never
// pushed, or the upload is newer than the last push. A push at or after the
// modification time counts as current.
func (e *Entry) NeedsPush() bool {
	if e.URL == "" {
		return false
	}
	if e.PushTime == "" {
		return true
	}
	push, err := time.Parse(TimeLayout, e.PushTime)
	if err != nil {
		return true
	}
	mod, err := time.Parse(TimeLayout, e.ModTime)
	if err != nil {
		return true
	}
	return push.Before(mod)
}

// FormatTime renders a timestamp in the ledger layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// Ledger is the CSV-backed upload ledger. Row order is preserved across
// loads and saves; new entries append.
type Ledger struct {
	path    string
	entries []*Entry
	index   map[string]*Entry
}

// Load reads the ledger CSV, creating an empty one with just the header when
// the file does not exist.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, index: make(map[string]*Entry)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if err := l.Save(); err != nil {
			return nil, err
		}
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			return nil, fmt.Errorf("malformed ledger row %d: %v", i, row)
		}
		entry := &Entry{
			FileName: row[0],
			FullPath: row[1],
			ModTime:  row[2],
			URL:      row[3],
			PushTime: row[4],
		}
		l.entries = append(l.entries, entry)
		l.index[entry.FileName] = entry
	}

	return l, nil
}

// Get returns the entry for a file name.
func (l *Ledger) Get(fileName string) (*Entry, bool) {
	e, ok := l.index[fileName]
	return e, ok
}

// Put inserts or replaces an entry. Existing entries keep their row position.
func (l *Ledger) Put(entry Entry) *Entry {
	if existing, ok := l.index[entry.FileName]; ok {
		*existing = entry
		return existing
	}
	e := &entry
	l.entries = append(l.entries, e)
	l.index[entry.FileName] = e
	return e
}

// Entries returns the entries in row order.
func (l *Ledger) Entries() []*Entry {
	return l.entries
}

// Save writes the ledger atomically via a temp file and rename.
func (l *Ledger) Save() error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	for _, e := range l.entries {
		row := []string{e.FileName, e.FullPath, e.ModTime, e.URL, e.PushTime}
		if err := writer.Write(row); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write ledger row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
