package types

import "time"

// HookType names the middleware hook an event was recorded for.
type HookType string

// Hook types, in the order they fire for a single context.
const (
	HookFilter  HookType = "filter"
	HookStart   HookType = "start"
	HookResume  HookType = "resume"
	HookSuspend HookType = "suspend"
	HookFinish  HookType = "finish"
)

// validHookTypes is the set of recognized hook values.
var validHookTypes = map[HookType]bool{
	HookFilter:  true,
	HookStart:   true,
	HookResume:  true,
	HookSuspend: true,
	HookFinish:  true,
}

// ValidHookType reports whether h is one of the hook constants.
func ValidHookType(h HookType) bool {
	return validHookTypes[h]
}

// Event is one journal entry: a single hook firing for a single call
// context. Context ids link events into call trees.
type Event struct {
	// EventID is a UUID v7, generated on append when empty.
	EventID string `json:"event_id"`

	// Seq orders events within one journal. Assigned on append.
	Seq int64 `json:"seq"`

	ContextID       string `json:"context_id"`
	ParentContextID string `json:"parent_context_id,omitempty"`
	RootContextID   string `json:"root_context_id"`
	Depth           int    `json:"depth"`

	// Name is the action name; Target is the handle the action ran on.
	Name   string `json:"name"`
	Target Handle `json:"target"`

	Hook   HookType   `json:"hook"`
	Result ResultKind `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// EventFilter selects journal events. Zero-valued fields match everything.
type EventFilter struct {
	ContextID     string
	RootContextID string
	Name          string
	Hook          HookType

	// Limit caps the number of returned events; zero means no limit.
	Limit int
}
