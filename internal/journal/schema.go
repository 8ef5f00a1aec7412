package journal

// File names inside the data directory.
const (
	dbFile     = "journal.db"
	eventsFile = "events.jsonl"
)

const createEvents = `CREATE TABLE events (
    event_id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL UNIQUE,
    context_id TEXT NOT NULL,
    parent_context_id TEXT,
    root_context_id TEXT NOT NULL,
    depth INTEGER NOT NULL,
    name TEXT NOT NULL,
    target INTEGER NOT NULL,
    hook TEXT NOT NULL,
    result TEXT,
    error TEXT,
    created_at TEXT NOT NULL
);`

const (
	idxEventsContext = `CREATE INDEX idx_events_context ON events(context_id);`
	idxEventsRoot    = `CREATE INDEX idx_events_root ON events(root_context_id);`
	idxEventsName    = `CREATE INDEX idx_events_name ON events(name);`
)

// schemaDDL lists the statements run on a fresh database, tables first.
var schemaDDL = []string{
	createEvents,
	idxEventsContext,
	idxEventsRoot,
	idxEventsName,
}

// eventColumns is the column order shared by inserts and selects.
const eventColumns = `event_id, seq, context_id, parent_context_id, root_context_id,
    depth, name, target, hook, result, error, created_at`
