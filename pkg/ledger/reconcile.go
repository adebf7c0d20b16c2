package ledger

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/imgur"
	"github.com/robinkct/notion-account-graph/pkg/pathutil"
)

// BlobHost uploads a local file and returns its public URL.
type BlobHost interface {
	Upload(path string) (string, error)
}

// Attacher sets a files property of a page to an external URL.
type Attacher interface {
	UpdatePageFile(pageID, propertyName, fileName, url string) error
}

// RetryPolicy bounds upload retries. Only rate limiting is retried; other
// errors fail the file immediately.
type RetryPolicy struct {
	MaxAttempts int           // Default: 3
	Cooldown    time.Duration // Default: 1 minute
}

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	Ledger   *Ledger
	Host     BlobHost
	Attacher Attacher
	Mapping  *expense.Mapping
	Retry    RetryPolicy
	// AttachDelay spaces out consecutive page updates. Default: 1 second.
	AttachDelay time.Duration
}

// Reconciler drives the two ledger phases: uploading stale chart files and
// attaching their URLs back onto the bucket pages.
type Reconciler struct {
	ledger      *Ledger
	host        BlobHost
	attacher    Attacher
	mapping     *expense.Mapping
	retry       RetryPolicy
	attachDelay time.Duration

	sleep func(time.Duration)
	now   func() time.Time
}

// NewReconciler creates a reconciler over a loaded ledger.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = 3
	}
	if retry.Cooldown == 0 {
		retry.Cooldown = time.Minute
	}
	attachDelay := cfg.AttachDelay
	if attachDelay == 0 {
		attachDelay = time.Second
	}

	return &Reconciler{
		ledger:      cfg.Ledger,
		host:        cfg.Host,
		attacher:    cfg.Attacher,
		mapping:     cfg.Mapping,
		retry:       retry,
		attachDelay: attachDelay,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// UploadLocal walks the given chart files (name to full path) and uploads
// every file that is new or was modified since its last upload. A file that
// fails to upload is logged and skipped; its ledger entry stays untouched so
// the next run retries it. The ledger is saved after each successful upload,
// so an aborted run loses at most one URL. Returns the number of files that
// failed.
func (r *Reconciler) UploadLocal(files map[string]string) (int, error) {
	failed := 0
	for name, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			slog.Error("Failed to stat chart file", "path", path, "error", err)
			failed++
			continue
		}
		modTime := FormatTime(info.ModTime())

		entry, ok := r.ledger.Get(name)
		if ok && !entry.NeedsUpload(modTime) {
			slog.Debug("Chart unchanged, keeping existing URL", "file", name)
			continue
		}

		url, err := r.uploadWithRetry(path)
		if err != nil {
			slog.Error("Failed to upload chart", "file", name, "error", err)
			failed++
			continue
		}
		slog.Info("Uploaded chart", "file", name, "url", url)

		pushTime := ""
		if ok {
			pushTime = entry.PushTime
		}
		r.ledger.Put(Entry{
			FileName: name,
			FullPath: path,
			ModTime:  modTime,
			URL:      url,
			PushTime: pushTime,
		})
		if err := r.ledger.Save(); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func (r *Reconciler) uploadWithRetry(path string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		url, err := r.host.Upload(path)
		if err == nil {
			return url, nil
		}
		if !errors.Is(err, imgur.ErrRateLimited) {
			return "", err
		}
		lastErr = err
		if attempt < r.retry.MaxAttempts {
			slog.Warn("Rate limited, cooling down", "path", path, "attempt", attempt, "cooldown", r.retry.Cooldown)
			r.sleep(r.retry.Cooldown)
		}
	}
	return "", lastErr
}

// AttachRemote walks the buckets (title to page ID) and re-attaches every
// uploaded chart whose upload is newer than its last push. A bucket whose
// three charts are all current is skipped without touching the page. A failed
// attach is logged and skipped, leaving its push time unset for the next run.
// Returns the number of attaches that failed.
func (r *Reconciler) AttachRemote(buckets map[string]string) (int, error) {
	failed := 0
	for title, pageID := range buckets {
		targets := r.bucketTargets(title)

		stale := false
		for _, tgt := range targets {
			if entry, ok := r.ledger.Get(tgt.fileName); ok && entry.NeedsPush() {
				stale = true
				break
			}
		}
		if !stale {
			slog.Debug("Bucket charts current, skipping page", "bucket", title)
			continue
		}

		for _, tgt := range targets {
			entry, ok := r.ledger.Get(tgt.fileName)
			if !ok || !entry.NeedsPush() {
				continue
			}
			if err := r.attacher.UpdatePageFile(pageID, tgt.property, tgt.fileName, entry.URL); err != nil {
				slog.Error("Failed to attach chart", "bucket", title, "file", tgt.fileName, "error", err)
				failed++
				continue
			}
			slog.Info("Attached chart", "bucket", title, "file", tgt.fileName, "property", tgt.property)

			entry.PushTime = FormatTime(r.now())
			if err := r.ledger.Save(); err != nil {
				return failed, err
			}
			r.sleep(r.attachDelay)
		}
	}
	return failed, nil
}

type attachTarget struct {
	fileName string
	property string
}

// bucketTargets names the three chart files of a bucket and the page
// properties each attaches to.
func (r *Reconciler) bucketTargets(title string) []attachTarget {
	sanitized := pathutil.SanitizeFilename(title)
	return []attachTarget{
		{expense.ArtifactName(sanitized, ""), r.mapping.Charts.Total},
		{expense.ArtifactName(sanitized, r.mapping.Parties.A), r.mapping.Charts.PartyA},
		{expense.ArtifactName(sanitized, r.mapping.Parties.B), r.mapping.Charts.PartyB},
	}
}
