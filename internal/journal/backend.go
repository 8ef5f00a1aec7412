// Package journal stores action events in SQLite, with an append-only JSONL
// file as the source of truth. The database is rebuilt from the JSONL file on
// every Attach.
package journal

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Backend implements types.Journal. It is safe for concurrent use.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	seq      int64

	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pending       []json.RawMessage // events not yet in events.jsonl
	batchTimer    *time.Timer
	batchMu       sync.Mutex // protects pending and batchTimer

	now func() time.Time
}

var _ types.Journal = (*Backend)(nil)

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// Attach opens the journal in config.DataDir, creating the directory and an
// empty events.jsonl when missing, and loads existing events into a fresh
// database.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating data dir %s", dataDir)
	}

	// The database is a cache of events.jsonl and always starts empty.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", dbPath)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return errors.Wrap(err, "creating schema")
		}
	}

	eventsPath := filepath.Join(dataDir, eventsFile)
	if err := initJSONL(eventsPath); err != nil {
		db.Close()
		return err
	}
	seq, err := loadEvents(db, eventsPath)
	if err != nil {
		db.Close()
		return errors.Wrap(err, "loading events")
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.seq = seq
	b.syncStrategy = config.GetSyncStrategy()
	b.batchSize = config.GetBatchSize()
	b.batchInterval = time.Duration(config.GetBatchInterval()) * time.Second
	b.pending = nil
	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}
	return nil
}

// Detach flushes pending events and closes the database. Detach is
// idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.stopBatchTimer()
	if err := b.flushPending(); err != nil {
		return errors.Wrap(err, "flushing pending events")
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(err, "closing database")
	}
	b.db = nil
	b.attached = false
	return nil
}

// DataDir returns the directory of the attached journal.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// Append stores ev, assigning EventID (when empty), Seq, and CreatedAt (when
// zero), and returns the stored event.
func (b *Backend) Append(ev types.Event) (types.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Event{}, types.ErrJournalDetached
	}
	if ev.ContextID == "" {
		return types.Event{}, errors.Wrap(types.ErrInvalidID, "event has no context id")
	}
	if !types.ValidHookType(ev.Hook) {
		return types.Event{}, errors.Wrapf(types.ErrInvalidFilter, "unknown hook %q", ev.Hook)
	}
	if ev.EventID == "" {
		ev.EventID = generateUUID()
	} else if exists, err := eventExists(b.db, ev.EventID); err != nil {
		return types.Event{}, err
	} else if exists {
		return types.Event{}, errors.Wrapf(types.ErrInvalidID, "event %s already recorded", ev.EventID)
	}
	if ev.RootContextID == "" {
		ev.RootContextID = ev.ContextID
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = b.now().UTC()
	}
	ev.Seq = b.seq + 1

	line, err := json.Marshal(ev)
	if err != nil {
		return types.Event{}, errors.Wrap(err, "encoding event")
	}
	if b.shouldPersistImmediately() {
		// events.jsonl is written first; a failed append leaves no trace.
		if err := appendJSONL(b.eventsPath(), []json.RawMessage{line}); err != nil {
			return types.Event{}, err
		}
		b.seq = ev.Seq
		if err := insertEvent(b.db, ev); err != nil {
			return types.Event{}, errors.Wrapf(err, "inserting event %s", ev.EventID)
		}
		return ev, nil
	}

	if err := insertEvent(b.db, ev); err != nil {
		return types.Event{}, errors.Wrapf(err, "inserting event %s", ev.EventID)
	}
	b.seq = ev.Seq
	if err := b.queue(line); err != nil {
		return types.Event{}, err
	}
	return ev, nil
}

func (b *Backend) eventsPath() string {
	return filepath.Join(b.config.DataDir, eventsFile)
}

func initJSONL(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

// generateUUID returns a UUID v7, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// queue holds line until the next flush. For the batch strategy reaching
// the batch size flushes right away. The caller must hold b.mu.
func (b *Backend) queue(line json.RawMessage) error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.pending = append(b.pending, line)
	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && len(b.pending) >= b.batchSize {
		return b.flushPendingLocked()
	}
	return nil
}

// flushPending writes every queued event to events.jsonl. The caller must
// hold b.mu.
func (b *Backend) flushPending() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.flushPendingLocked()
}

// flushPendingLocked requires b.batchMu. Events stay queued when the write
// fails.
func (b *Backend) flushPendingLocked() error {
	if len(b.pending) == 0 {
		return nil
	}
	if err := appendJSONL(b.eventsPath(), b.pending); err != nil {
		return err
	}
	b.pending = nil
	return nil
}

func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}
	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.attached {
			return
		}
		_ = b.flushPending()

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
