package types

import "github.com/cockroachdb/errors"

// Tree errors. Precondition failures are assertion failures marked with
// ErrAssertion; structural violations wrap ErrInvalidParent.
var (
	ErrAssertion     = errors.New("assertion failed")
	ErrInvalidParent = errors.New("invalid parent")
	ErrNotTweaked    = errors.New("node is not part of the registry")
	ErrNodeAttached  = errors.New("node still has a parent")
	ErrNotRoot       = errors.New("node is not a root")
)

// Journal lifecycle errors.
var (
	ErrJournalDetached = errors.New("journal is detached")
	ErrAlreadyAttached = errors.New("journal is already attached")
)

// Journal operation errors.
var (
	ErrInvalidID     = errors.New("invalid event ID")
	ErrNotFound      = errors.New("event not found")
	ErrInvalidFilter = errors.New("invalid filter value")
)
