// Package ledger keeps the local history of uploaded images in a single
// pretty-printed JSON array.
//
// A missing or malformed file reads as an empty history. A failed write is
// reported as a persistence error. Read-modify-write cycles are serialized
// per Ledger value; two processes writing the same file can still lose an
// update.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/logger"
)

const (
	// DefaultCapacity is the most records the ledger keeps.
	DefaultCapacity = 2000
	// FileName is the ledger's file name inside the app config dir.
	FileName = "uploaded_images.json"
	appDir   = "imgkit"
)

// Ledger is a file-backed, deduplicated, size-bounded upload history.
type Ledger struct {
	path     string
	capacity int
	now      func() time.Time
	log      *logger.Logger

	mu sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithClock sets the clock used to stamp records without uploaded_at.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// New returns a ledger stored at path. Nothing is read until first use.
func New(path string, opts ...Option) *Ledger {
	l := &Ledger{
		path:     path,
		capacity: DefaultCapacity,
		now:      time.Now,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithComponent("ledger")
	return l
}

// DefaultPath returns <user config dir>/imgkit/uploaded_images.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Internal(fmt.Errorf("resolve config dir: %w", err))
	}
	return filepath.Join(dir, appDir, FileName), nil
}

// Path returns the backing file.
func (l *Ledger) Path() string { return l.path }

// Record stores r, replacing any entry with the same identity, and drops the
// oldest entries beyond capacity. Empty ID and UploadedAt are filled in.
// The stored copy is returned.
func (l *Ledger) Record(r Record) (Record, error) {
	if r.ID == "" {
		r.ID = NewID(r.Provider)
	}
	if r.UploadedAt == "" {
		r.UploadedAt = l.now().UTC().Format(time.RFC3339Nano)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.load()
	id := r.Identity()
	kept := records[:0]
	for _, existing := range records {
		if !id.Matches(existing) {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, r)
	if over := len(kept) - l.capacity; over > 0 {
		kept = kept[over:]
	}

	if err := l.save(kept); err != nil {
		return Record{}, err
	}
	l.log.Debug("record stored", logger.Fields(
		"id", r.ID,
		logger.FieldProvider, string(r.Provider),
		logger.FieldKey, r.Key,
		"total", len(kept),
	))
	return r, nil
}

// List returns a copy of every record, newest first. Records with equal
// timestamps keep their stored order.
func (l *Ledger) List() []Record {
	l.mu.Lock()
	records := l.load()
	l.mu.Unlock()

	sort.SliceStable(records, func(i, j int) bool {
		return newer(records[i].UploadedAt, records[j].UploadedAt)
	})
	return records
}

// Delete removes every record selected by id and returns how many were
// removed. The file is only rewritten when something changed.
func (l *Ledger) Delete(id Identity) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.load()
	kept := records[:0]
	for _, r := range records {
		if !id.Matches(r) {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := l.save(kept); err != nil {
		return 0, err
	}
	l.log.Debug("records removed", logger.Fields("removed", removed, "total", len(kept)))
	return removed, nil
}

func (l *Ledger) load() []Record {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("history unreadable, starting empty", logger.ErrorFields("read", err))
		}
		return []Record{}
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		l.log.Warn("history malformed, starting empty", logger.Fields(
			logger.FieldPath, l.path,
			logger.FieldError, err.Error(),
		))
		return []Record{}
	}
	if records == nil {
		records = []Record{}
	}
	return records
}

// save writes records to a temp file and renames it over the ledger.
func (l *Ledger) save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Persistence(l.path, err)
	}
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Persistence(l.path, err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return errors.Persistence(l.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Persistence(l.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Persistence(l.path, err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Persistence(l.path, err)
	}
	return nil
}

// newer orders ISO-8601 timestamps. Unparseable values compare as strings.
func newer(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return ta.After(tb)
	}
	return a > b
}
