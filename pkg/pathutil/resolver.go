// Package pathutil provides centralized path management for the data directory,
// rendered chart images, and persisted sync files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver manages paths for snapshots, the artifact ledger, the sync
// history database, and rendered chart images.
type PathResolver struct {
	dataDir      string
	databasePath string
	monthMarker  string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the root directory for all persisted files (e.g., ./data)
	DataDir string
	// DatabasePath is the path to the SQLite database file for sync history
	DatabasePath string
	// MonthMarker is the substring that identifies a month bucket title
	MonthMarker string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataDir}/sync.db.
// If MonthMarker is empty, it defaults to "月".
func New(config Config) *PathResolver {
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "sync.db")
	}

	monthMarker := config.MonthMarker
	if monthMarker == "" {
		monthMarker = "月"
	}

	return &PathResolver{
		dataDir:      dataDir,
		databasePath: dbPath,
		monthMarker:  monthMarker,
	}
}

// GetDataDir returns the data root directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the sync history database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetImageDir returns the directory holding rendered chart images.
func (p *PathResolver) GetImageDir() string {
	return filepath.Join(p.dataDir, "image")
}

// GetEventDir returns the directory for event chart images.
func (p *PathResolver) GetEventDir() string {
	return filepath.Join(p.GetImageDir(), "event")
}

// GetMonthDir returns the directory for month chart images.
func (p *PathResolver) GetMonthDir() string {
	return filepath.Join(p.GetImageDir(), "month")
}

// GetSnapshotPath returns the path of the full record snapshot.
func (p *PathResolver) GetSnapshotPath() string {
	return filepath.Join(p.dataDir, "full_account_data.json")
}

// GetAffectedPath returns the path of the affected-buckets snapshot.
func (p *PathResolver) GetAffectedPath() string {
	return filepath.Join(p.dataDir, "affected_charts_data.json")
}

// GetColorConfigPath returns the path of the vocabulary color config.
func (p *PathResolver) GetColorConfigPath() string {
	return filepath.Join(p.dataDir, "select_color.json")
}

// GetRelationTablePath returns the path of the persisted relation table.
func (p *PathResolver) GetRelationTablePath() string {
	return filepath.Join(p.dataDir, "relation_table.json")
}

// GetLedgerPath returns the path of the artifact ledger CSV.
func (p *PathResolver) GetLedgerPath() string {
	return filepath.Join(p.GetImageDir(), "image_records.csv")
}

// DirForTitle returns the image directory for a bucket title. Titles containing
// the month marker go to the month directory, everything else to events.
func (p *PathResolver) DirForTitle(title string) string {
	if p.IsMonthTitle(title) {
		return p.GetMonthDir()
	}
	return p.GetEventDir()
}

// IsMonthTitle reports whether a bucket title names a month bucket.
func (p *PathResolver) IsMonthTitle(title string) bool {
	return strings.Contains(title, p.monthMarker)
}

// EnsureAll creates the full data directory tree if it doesn't exist.
func (p *PathResolver) EnsureAll() error {
	for _, dir := range []string{p.dataDir, p.GetImageDir(), p.GetEventDir(), p.GetMonthDir()} {
		if err := p.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

const invalidFilenameChars = `<>:"/\|?*,`

// SanitizeFilename cleans a bucket title so it is usable as a file name.
// ", " collapses to a single underscore, every other illegal character
// becomes one underscore, and leading/trailing ". _" runs are trimmed.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, ", ", "_")
	for _, ch := range invalidFilenameChars {
		name = strings.ReplaceAll(name, string(ch), "_")
	}
	name = strings.Trim(name, ". _")
	if name == "" {
		return "untitled"
	}
	return name
}
