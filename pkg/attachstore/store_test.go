package attachstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orgpost/orgpost/pkg/fsx/fsxlocal"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := fsxlocal.NewLocalFileSystem(dir)
	if err != nil {
		t.Fatalf("creating local filesystem: %v", err)
	}
	return New(fs), dir
}

func TestPersistWritesFile(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Persist(ctx, "42", "report.pdf", "application/pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if stored.OriginalFilename != "report.pdf" {
		t.Errorf("OriginalFilename = %q, want report.pdf", stored.OriginalFilename)
	}
	if !strings.HasSuffix(stored.StoredFilename, "report.pdf") {
		t.Errorf("StoredFilename = %q, want suffix report.pdf", stored.StoredFilename)
	}
	if !strings.HasPrefix(stored.URL, URLPrefix) {
		t.Errorf("URL = %q, want prefix %q", stored.URL, URLPrefix)
	}

	data, err := os.ReadFile(filepath.Join(dir, stored.StoredFilename))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Errorf("stored content = %q, want pdf-bytes", data)
	}
}

func TestPersistUniqueNamesAcrossMessages(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.Persist(ctx, "1", "invoice.pdf", "application/pdf", []byte("a"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	b, err := store.Persist(ctx, "2", "invoice.pdf", "application/pdf", []byte("b"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if a.StoredFilename == b.StoredFilename {
		t.Errorf("same stored name %q for attachments of different messages", a.StoredFilename)
	}
}

func TestPersistDeduplicatesWithinMessage(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	first, err := store.Persist(ctx, "7", "logo.png", "image/png", []byte("original"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	second, err := store.Persist(ctx, "7", "logo.png", "image/png", []byte("changed"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if first.StoredFilename != second.StoredFilename {
		t.Errorf("dedup returned %q, want %q", second.StoredFilename, first.StoredFilename)
	}

	data, err := os.ReadFile(filepath.Join(dir, first.StoredFilename))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("re-persist rewrote file, content = %q", data)
	}
}

func TestPersistSanitizesFilename(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Persist(ctx, "9", "../../etc/passwd", "text/plain", []byte("x"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if strings.ContainsAny(stored.StoredFilename, "/\\") {
		t.Errorf("StoredFilename %q contains path separators", stored.StoredFilename)
	}
	if _, err := os.Stat(filepath.Join(dir, stored.StoredFilename)); err != nil {
		t.Errorf("sanitized file not in store root: %v", err)
	}
}

func TestOpenReturnsStoredContent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Persist(ctx, "3", "notes.txt", "text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	stream, err := store.Open(ctx, stored.StoredFilename)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Open content = %q, want hello", data)
	}

	if _, err := store.Open(ctx, "missing.bin"); err == nil {
		t.Error("Open of missing file succeeded, want error")
	}
}

func TestSweepDeletesUnmarkedFiles(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	live, err := store.Persist(ctx, "5", "kept.txt", "text/plain", []byte("keep"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray.bin"), []byte("old"), 0o644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}

	report, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", report.Deleted)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}

	if _, err := os.Stat(filepath.Join(dir, "stray.bin")); !os.IsNotExist(err) {
		t.Error("stray file survived sweep")
	}
	if _, err := os.Stat(filepath.Join(dir, live.StoredFilename)); err != nil {
		t.Errorf("live file deleted by sweep: %v", err)
	}

	report, err = store.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if report.Deleted != 0 {
		t.Errorf("second sweep Deleted = %d, want 0", report.Deleted)
	}
}

func TestNewCycleMakesFilesCollectable(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	old, err := store.Persist(ctx, "11", "old.txt", "text/plain", []byte("old"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store.BeginCycle()
	defer store.EndCycle()
	kept, err := store.Persist(ctx, "12", "new.txt", "text/plain", []byte("new"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	report, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", report.Deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, old.StoredFilename)); !os.IsNotExist(err) {
		t.Error("unreferenced file survived sweep after mark reset")
	}
	if _, err := os.Stat(filepath.Join(dir, kept.StoredFilename)); err != nil {
		t.Errorf("marked file deleted: %v", err)
	}

	// Swept files leave the dedup index, so re-persisting writes a fresh file.
	again, err := store.Persist(ctx, "11", "old.txt", "text/plain", []byte("old-again"))
	if err != nil {
		t.Fatalf("Persist after sweep: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, again.StoredFilename)); err != nil {
		t.Errorf("re-persisted file missing: %v", err)
	}
}

func TestCycleLockSerializesConcurrentCrawls(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	store.BeginCycle()
	inFlight, err := store.Persist(ctx, "21", "a.txt", "text/plain", []byte("a"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Blocks until the first crawl calls EndCycle.
		store.BeginCycle()
		defer store.EndCycle()
		if _, err := store.Sweep(ctx); err != nil {
			t.Errorf("second cycle Sweep: %v", err)
		}
	}()

	report, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Deleted != 0 {
		t.Errorf("Deleted = %d, want 0", report.Deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, inFlight.StoredFilename)); err != nil {
		t.Fatalf("in-flight attachment swept during its own cycle: %v", err)
	}
	store.EndCycle()

	<-done
	// The second cycle never marked the file, so it is collected there.
	if _, err := os.Stat(filepath.Join(dir, inFlight.StoredFilename)); !os.IsNotExist(err) {
		t.Error("unreferenced file survived the next cycle's sweep")
	}
}
