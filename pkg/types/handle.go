package types

import "strconv"

// Handle identifies a node in a tree registry. Handles are issued by the
// registry that owns the node and are never reused after release.
type Handle uint64

// NoHandle is the zero Handle. It is never issued and stands for "no node".
const NoHandle Handle = 0

// Valid reports whether h is not NoHandle.
func (h Handle) Valid() bool {
	return h != NoHandle
}

func (h Handle) String() string {
	if h == NoHandle {
		return "node(none)"
	}
	return "node(" + strconv.FormatUint(uint64(h), 10) + ")"
}
