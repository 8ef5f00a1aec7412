package journal

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Get returns the event with the given id.
func (b *Backend) Get(id string) (types.Event, error) {
	if id == "" {
		return types.Event{}, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Event{}, types.ErrJournalDetached
	}
	row := b.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE event_id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Event{}, errors.Wrapf(types.ErrNotFound, "event %s", id)
	}
	if err != nil {
		return types.Event{}, errors.Wrapf(err, "reading event %s", id)
	}
	return ev, nil
}

func eventExists(db *sql.DB, id string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events WHERE event_id = ?`, id).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "looking up event %s", id)
	}
	return n > 0, nil
}

// Events returns the events matching filter in sequence order.
func (b *Backend) Events(filter types.EventFilter) ([]types.Event, error) {
	if filter.Hook != "" && !types.ValidHookType(filter.Hook) {
		return nil, errors.Wrapf(types.ErrInvalidFilter, "unknown hook %q", filter.Hook)
	}
	if filter.Limit < 0 {
		return nil, errors.Wrap(types.ErrInvalidFilter, "limit must not be negative")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrJournalDetached
	}

	var where []string
	var args []any
	add := func(col, val string) {
		if val != "" {
			where = append(where, col+" = ?")
			args = append(args, val)
		}
	}
	add("context_id", filter.ContextID)
	add("root_context_id", filter.RootContextID)
	add("name", filter.Name)
	add("hook", string(filter.Hook))

	q := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq"
	if filter.Limit > 0 {
		q += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	rows, err := b.db.Query(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	defer rows.Close()

	events := []types.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning event")
		}
		events = append(events, ev)
	}
	return events, errors.Wrap(rows.Err(), "iterating events")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (types.Event, error) {
	var (
		ev                  types.Event
		parent, result, msg sql.NullString
		target              int64
		hook, created       string
	)
	err := s.Scan(&ev.EventID, &ev.Seq, &ev.ContextID, &parent, &ev.RootContextID,
		&ev.Depth, &ev.Name, &target, &hook, &result, &msg, &created)
	if err != nil {
		return types.Event{}, err
	}
	ev.ParentContextID = parent.String
	ev.Target = types.Handle(target)
	ev.Hook = types.HookType(hook)
	ev.Result = types.ResultKind(result.String)
	ev.Error = msg.String
	ev.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return types.Event{}, errors.Wrapf(err, "parsing created_at of %s", ev.EventID)
	}
	return ev, nil
}
