package journal

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Export writes the events matching filter to w as JSONL, in sequence order.
func (b *Backend) Export(w io.Writer, filter types.EventFilter) (int, error) {
	events, err := b.Events(filter)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for i, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return i, errors.Wrap(err, "writing event")
		}
	}
	return len(events), nil
}

// ExportFile atomically replaces path with the events matching filter.
func (b *Backend) ExportFile(path string, filter types.EventFilter) (int, error) {
	events, err := b.Events(filter)
	if err != nil {
		return 0, err
	}
	records := make([]json.RawMessage, 0, len(events))
	for _, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			return 0, errors.Wrap(err, "encoding event")
		}
		records = append(records, line)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
