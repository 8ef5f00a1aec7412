package types

// Journal stores action events recorded by the journal recorder middleware.
// Callers attach to a backend, append and query events, and detach when done.
type Journal interface {
	// Attach connects the journal to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached if
	// called while already attached.
	Attach(config Config) error

	// Detach flushes pending writes and releases backend resources.
	// Idempotent. After Detach, operations return ErrJournalDetached.
	Detach() error

	// Append stores an event. EventID, Seq, and CreatedAt are filled in when
	// empty. Returns the stored event.
	Append(ev Event) (Event, error)

	// Get returns the event with the given id, or ErrNotFound.
	Get(eventID string) (Event, error)

	// Events returns the events matching filter in sequence order.
	Events(filter EventFilter) ([]Event, error)
}
