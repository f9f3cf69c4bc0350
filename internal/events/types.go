package events

import (
	"time"

	"github.com/flowgraph-io/flowgraph/internal/types"
)

// EventType identifies the kind of graph mutation an event describes.
type EventType string

const (
	// EventNodeStatusChanged is emitted after a node's execution status changed.
	EventNodeStatusChanged EventType = "node_status_changed"

	// EventEdgeAdded is emitted after an edge was added to a graph level.
	EventEdgeAdded EventType = "edge_added"

	// EventEdgeRemoved is emitted after an edge was removed from a graph level.
	EventEdgeRemoved EventType = "edge_removed"
)

// Event is a single graph mutation notification. Status values are carried as
// plain strings so this package stays independent of the graph model.
type Event struct {
	// Type identifies the kind of mutation.
	Type EventType

	// GraphID identifies the graph level the mutation happened on.
	GraphID types.ID

	// NodeID is set for node status events.
	NodeID string

	// OldStatus and NewStatus are set for node status events.
	OldStatus string
	NewStatus string

	// EdgeFrom and EdgeTo are set for edge events.
	EdgeFrom string
	EdgeTo   string

	// Timestamp records when the mutation was observed.
	Timestamp time.Time
}

// Filter selects which events a subscriber receives. Zero fields match
// everything.
type Filter struct {
	// Types restricts delivery to the listed event types.
	Types []EventType

	// GraphID restricts delivery to events from one graph level.
	GraphID types.ID
}

// Matches returns true if the event passes the filter.
func (f Filter) Matches(e Event) bool {
	if !f.GraphID.IsZero() && f.GraphID != e.GraphID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == e.Type {
			return true
		}
	}
	return false
}
