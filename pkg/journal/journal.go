// Package journal provides the public factory for the action journal.
package journal

import (
	"github.com/mesh-intelligence/arbor/internal/journal"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// NewBackend creates a detached SQLite journal. Call Attach with a Config
// before use.
//
// Example:
//
//	j := journal.NewBackend()
//	err := j.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".arbor-db",
//	})
//	defer j.Detach()
func NewBackend() types.Journal {
	return journal.NewBackend()
}
