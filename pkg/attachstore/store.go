// Package attachstore persists email attachments on an fsx.FileSystem and
// garbage-collects files that are no longer referenced.
//
// Persist is the mark phase: every file written (or re-resolved through
// the dedup index) during a crawl is marked live. Sweep then deletes
// every stored file that was not marked. A crawl brackets its work with
// BeginCycle and EndCycle; BeginCycle clears the marks so stale files
// from earlier runs become collectable, and holds the cycle lock so one
// crawl's sweep can never delete files a concurrent crawl just wrote.
package attachstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/orgpost/orgpost/pkg/fsx"
	"github.com/orgpost/orgpost/pkg/logx"
)

// URLPrefix is the public route attachments are served under.
const URLPrefix = "/attachments/"

// Stored describes a persisted attachment.
type Stored struct {
	OriginalFilename string
	StoredFilename   string
	ContentType      string
	URL              string
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Scanned int
	Deleted int
	Failed  int
}

// Store writes attachments to a filesystem and tracks liveness.
type Store struct {
	fs fsx.FileSystem

	// cycleMu serializes whole mark-and-sweep cycles. mu guards the
	// maps and is only ever held briefly.
	cycleMu sync.Mutex

	mu    sync.Mutex
	live  map[string]struct{}
	index map[string]string

	now func() time.Time
}

// New creates an attachment store backed by fs.
func New(fs fsx.FileSystem) *Store {
	return &Store{
		fs:    fs,
		live:  make(map[string]struct{}),
		index: make(map[string]string),
		now:   time.Now,
	}
}

// BeginCycle takes the cycle lock and clears the live set, blocking
// until any crawl already in flight has called EndCycle. The dedup
// index is kept so re-crawled attachments resolve to their existing
// files.
func (s *Store) BeginCycle() {
	s.cycleMu.Lock()

	s.mu.Lock()
	s.live = make(map[string]struct{})
	s.mu.Unlock()
}

// EndCycle releases the cycle lock. Call after Sweep, on every exit
// path of the crawl.
func (s *Store) EndCycle() {
	s.cycleMu.Unlock()
}

// Persist stores an attachment and marks it live. Persisting the same
// messageID and originalFilename again returns the existing file
// without rewriting it.
func (s *Store) Persist(ctx context.Context, messageID, originalFilename, contentType string, data []byte) (Stored, error) {
	base := sanitizeFilename(originalFilename)

	s.mu.Lock()
	indexKey := messageID + "/" + base
	if stored, ok := s.index[indexKey]; ok {
		s.live[stored] = struct{}{}
		s.mu.Unlock()
		return s.stored(originalFilename, stored, contentType), nil
	}

	storedName := fmt.Sprintf("%s-%d-%s", sanitizeFilename(messageID), s.now().UnixNano(), base)
	s.mu.Unlock()

	if err := s.fs.WriteFile(ctx, storedName, data); err != nil {
		return Stored{}, storeErrors.NewWithCause(ErrPersistFailed, err).
			WithDetail("filename", base)
	}

	s.mu.Lock()
	s.index[indexKey] = storedName
	s.live[storedName] = struct{}{}
	s.mu.Unlock()

	return s.stored(originalFilename, storedName, contentType), nil
}

func (s *Store) stored(original, storedName, contentType string) Stored {
	return Stored{
		OriginalFilename: original,
		StoredFilename:   storedName,
		ContentType:      contentType,
		URL:              URLPrefix + url.PathEscape(storedName),
	}
}

// Open returns a stream for a stored attachment. The caller closes the
// stream. Path segments in storedName are stripped so callers cannot
// escape the store root.
func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	name := sanitizeFilename(storedName)

	exists, err := s.fs.Exists(ctx, name)
	if err != nil {
		return nil, storeErrors.NewWithCause(ErrPersistFailed, err).
			WithDetail("filename", name)
	}
	if !exists {
		return nil, storeErrors.New(ErrNotFound).WithDetail("filename", name)
	}

	stream, err := s.fs.ReadFileStream(ctx, name)
	if err != nil {
		return nil, storeErrors.NewWithCause(ErrPersistFailed, err).
			WithDetail("filename", name)
	}
	return stream, nil
}

// Sweep deletes every stored file that is not marked live. Per-file
// deletion failures are counted and logged but do not abort the sweep.
func (s *Store) Sweep(ctx context.Context) (SweepReport, error) {
	infos, err := s.fs.List(ctx, "")
	if err != nil {
		return SweepReport{}, storeErrors.NewWithCause(ErrSweepFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := SweepReport{}
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		report.Scanned++
		if _, ok := s.live[info.Name]; ok {
			continue
		}

		if err := s.fs.DeleteFile(ctx, info.Name); err != nil {
			report.Failed++
			logx.WithError(err).WithField("filename", info.Name).
				Warn("failed to delete stale attachment")
			continue
		}
		report.Deleted++
		s.dropFromIndex(info.Name)
	}
	return report, nil
}

func (s *Store) dropFromIndex(storedName string) {
	for key, name := range s.index {
		if name == storedName {
			delete(s.index, key)
		}
	}
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "attachment"
	}
	return base
}
