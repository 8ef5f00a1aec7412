package journal

import (
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// loadEvents inserts the events of a JSONL file into db in one transaction
// and returns the highest sequence number. Malformed records, records
// without a context id, and duplicate event ids are skipped. Records without
// a sequence number are numbered after the ones that have one, in file
// order. Unknown fields are ignored.
func loadEvents(db *sql.DB, path string) (int64, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	var events []types.Event
	var maxSeq int64
	for _, rec := range records {
		var ev types.Event
		if err := json.Unmarshal(rec, &ev); err != nil {
			continue
		}
		if ev.EventID == "" || ev.ContextID == "" || !types.ValidHookType(ev.Hook) {
			continue
		}
		if ev.RootContextID == "" {
			ev.RootContextID = ev.ContextID
		}
		maxSeq = max(maxSeq, ev.Seq)
		events = append(events, ev)
	}
	for i := range events {
		if events[i].Seq <= 0 {
			maxSeq++
			events[i].Seq = maxSeq
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })

	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "beginning load transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO events (` + eventColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing event insert")
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(eventArgs(ev)...); err != nil {
			return 0, errors.Wrapf(err, "loading event %s", ev.EventID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing load transaction")
	}
	return maxSeq, nil
}

func insertEvent(db *sql.DB, ev types.Event) error {
	_, err := db.Exec(`INSERT INTO events (`+eventColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, eventArgs(ev)...)
	return err
}

func eventArgs(ev types.Event) []any {
	return []any{
		ev.EventID,
		ev.Seq,
		ev.ContextID,
		nullString(ev.ParentContextID),
		ev.RootContextID,
		ev.Depth,
		ev.Name,
		int64(ev.Target),
		string(ev.Hook),
		nullString(string(ev.Result)),
		nullString(ev.Error),
		ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
