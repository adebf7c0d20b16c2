package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/imgur"
)

type fakeHost struct {
	uploads    []string
	failsLeft  int // rate-limit this many calls before succeeding
	hardFail   bool
	nextLinkID int
}

func (f *fakeHost) Upload(path string) (string, error) {
	if f.hardFail {
		return "", fmt.Errorf("broken pipe")
	}
	if f.failsLeft > 0 {
		f.failsLeft--
		return "", fmt.Errorf("%w (status 429)", imgur.ErrRateLimited)
	}
	f.uploads = append(f.uploads, path)
	f.nextLinkID++
	return fmt.Sprintf("https://i.imgur.com/%d.png", f.nextLinkID), nil
}

type attachment struct {
	pageID   string
	property string
	fileName string
	url      string
}

type fakeAttacher struct {
	attached []attachment
}

func (f *fakeAttacher) UpdatePageFile(pageID, propertyName, fileName, url string) error {
	f.attached = append(f.attached, attachment{pageID, propertyName, fileName, url})
	return nil
}

func newTestReconciler(t *testing.T, host BlobHost, attacher Attacher) (*Reconciler, *Ledger) {
	t.Helper()
	l, err := Load(filepath.Join(t.TempDir(), "image_records.csv"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewReconciler(ReconcilerConfig{
		Ledger:   l,
		Host:     host,
		Attacher: attacher,
		Mapping:  expense.DefaultMapping(),
		Retry:    RetryPolicy{MaxAttempts: 3, Cooldown: time.Minute},
	})
	r.sleep = func(time.Duration) {}
	r.now = func() time.Time {
		return time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	}
	return r, l
}

func writeChart(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadLocalSkipsUnchanged(t *testing.T) {
	host := &fakeHost{}
	r, l := newTestReconciler(t, host, &fakeAttacher{})

	dir := t.TempDir()
	files := map[string]string{"Trip.png": writeChart(t, dir, "Trip.png")}

	if _, err := r.UploadLocal(files); err != nil {
		t.Fatalf("UploadLocal() error = %v", err)
	}
	if len(host.uploads) != 1 {
		t.Fatalf("first run uploaded %d files, want 1", len(host.uploads))
	}
	entry, ok := l.Get("Trip.png")
	if !ok || entry.URL == "" {
		t.Fatalf("entry after upload = %+v", entry)
	}

	// Unchanged file: second run must not upload again.
	if _, err := r.UploadLocal(files); err != nil {
		t.Fatalf("UploadLocal() error = %v", err)
	}
	if len(host.uploads) != 1 {
		t.Errorf("second run uploaded %d files, want 1", len(host.uploads))
	}
}

func TestUploadLocalReuploadsModified(t *testing.T) {
	host := &fakeHost{}
	r, l := newTestReconciler(t, host, &fakeAttacher{})

	dir := t.TempDir()
	path := writeChart(t, dir, "Trip.png")
	files := map[string]string{"Trip.png": path}

	if _, err := r.UploadLocal(files); err != nil {
		t.Fatalf("UploadLocal() error = %v", err)
	}
	firstURL, _ := l.Get("Trip.png")
	url1 := firstURL.URL

	// Touch the file with a newer modification time.
	newer := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, newer, newer); err != nil {
		t.Fatal(err)
	}

	if _, err := r.UploadLocal(files); err != nil {
		t.Fatalf("UploadLocal() error = %v", err)
	}
	if len(host.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2 after modification", len(host.uploads))
	}
	entry, _ := l.Get("Trip.png")
	if entry.URL == url1 {
		t.Error("URL not replaced after re-upload")
	}
	if !entry.NeedsPush() {
		t.Error("re-uploaded entry must need a push again")
	}
}

func TestUploadLocalRetriesOnRateLimit(t *testing.T) {
	host := &fakeHost{failsLeft: 2}
	r, _ := newTestReconciler(t, host, &fakeAttacher{})

	var slept int
	r.sleep = func(time.Duration) { slept++ }

	dir := t.TempDir()
	files := map[string]string{"Trip.png": writeChart(t, dir, "Trip.png")}

	if failed, err := r.UploadLocal(files); err != nil || failed != 0 {
		t.Fatalf("UploadLocal() = (%d, %v), want success on third attempt", failed, err)
	}
	if slept != 2 {
		t.Errorf("cooled down %d times, want 2", slept)
	}
}

func TestUploadLocalSkipsFailedFiles(t *testing.T) {
	host := &fakeHost{hardFail: true}
	r, l := newTestReconciler(t, host, &fakeAttacher{})

	dir := t.TempDir()
	files := map[string]string{"Trip.png": writeChart(t, dir, "Trip.png")}

	failed, err := r.UploadLocal(files)
	if err != nil {
		t.Fatalf("UploadLocal() error = %v, want run to continue past upload failures", err)
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if _, ok := l.Get("Trip.png"); ok {
		t.Error("failed upload left a ledger entry")
	}
}

func TestAttachRemote(t *testing.T) {
	attacher := &fakeAttacher{}
	r, l := newTestReconciler(t, &fakeHost{}, attacher)

	// Total and party A uploaded but never pushed; party B chart was never
	// rendered (no entry).
	l.Put(Entry{FileName: "Trip.png", ModTime: "2025-04-10 10:00:00", URL: "https://i.imgur.com/t.png"})
	l.Put(Entry{FileName: "Trip (A).png", ModTime: "2025-04-10 10:00:00", URL: "https://i.imgur.com/a.png"})

	if _, err := r.AttachRemote(map[string]string{"Trip": "page-1"}); err != nil {
		t.Fatalf("AttachRemote() error = %v", err)
	}

	if len(attacher.attached) != 2 {
		t.Fatalf("attached %d files, want 2", len(attacher.attached))
	}
	want := []attachment{
		{"page-1", "Total Pie", "Trip.png", "https://i.imgur.com/t.png"},
		{"page-1", "A Pie", "Trip (A).png", "https://i.imgur.com/a.png"},
	}
	for i, w := range want {
		if attacher.attached[i] != w {
			t.Errorf("attached[%d] = %+v, want %+v", i, attacher.attached[i], w)
		}
	}

	entry, _ := l.Get("Trip.png")
	if entry.PushTime != "2025-04-10 12:00:00" {
		t.Errorf("PushTime = %q, want the reconciler clock", entry.PushTime)
	}

	// Second pass: everything current, page untouched.
	attacher.attached = nil
	if _, err := r.AttachRemote(map[string]string{"Trip": "page-1"}); err != nil {
		t.Fatalf("AttachRemote() error = %v", err)
	}
	if len(attacher.attached) != 0 {
		t.Errorf("second pass attached %d files, want 0", len(attacher.attached))
	}
}

func TestAttachRemoteSkipsBucketWithoutUploads(t *testing.T) {
	attacher := &fakeAttacher{}
	r, _ := newTestReconciler(t, &fakeHost{}, attacher)

	if _, err := r.AttachRemote(map[string]string{"Trip": "page-1"}); err != nil {
		t.Fatalf("AttachRemote() error = %v", err)
	}
	if len(attacher.attached) != 0 {
		t.Errorf("attached %d files for a bucket with no uploads, want 0", len(attacher.attached))
	}
}
