package depprops

import (
	"github.com/flowgraph-io/flowgraph/internal/workflow"
)

// properties is the per-node record of the two dependent properties plus the
// bookkeeping needed to decide whether a cached value can be reused: a
// validity flag and a snapshot of the node's execution status at the time the
// record was last synchronized.
//
// An invalid record reads both property values as false; the propagation pass
// only ever raises values, so false is the safe cleared state.
type properties struct {
	hasExecutablePredecessors bool
	hasExecutingSuccessors    bool

	lastStatus workflow.NodeStatus

	valid bool
}

// invalidate clears both property values and marks the record invalid. The
// status snapshot is kept; it is refreshed by the next synchronization scan.
func (p *properties) invalidate() {
	p.hasExecutablePredecessors = false
	p.hasExecutingSuccessors = false
	p.valid = false
}

// propertyStore holds the records of one graph level: one record per node
// plus the level's own aggregate record, stored under ownKey so the
// propagation pass can address it like any other node.
type propertyStore struct {
	recs   map[string]*properties
	own    *properties
	ownKey string
}

func newPropertyStore(ownKey string) *propertyStore {
	own := &properties{}
	return &propertyStore{
		recs:   map[string]*properties{ownKey: own},
		own:    own,
		ownKey: ownKey,
	}
}

// get returns the record for a node, creating a default invalid one if
// absent. The second return value reports whether the record was created.
func (s *propertyStore) get(id string) (*properties, bool) {
	if rec, ok := s.recs[id]; ok {
		return rec, false
	}
	rec := &properties{}
	s.recs[id] = rec
	return rec, true
}

// lookup returns the record for a node without creating one.
func (s *propertyStore) lookup(id string) (*properties, bool) {
	rec, ok := s.recs[id]
	return rec, ok
}

// invalidateAll clears every node record. The level's own aggregate record is
// left alone: its fields mirror the parent's view and are refreshed by the
// parent synchronization step, not by the propagation pass.
func (s *propertyStore) invalidateAll() {
	for id, rec := range s.recs {
		if id == s.ownKey {
			continue
		}
		rec.invalidate()
	}
}

// setAllValid marks every record, including the level's own, as valid. Called
// after a completed propagation pass, when every value is part of the fixed
// point.
func (s *propertyStore) setAllValid() {
	for _, rec := range s.recs {
		rec.valid = true
	}
}

// prune removes records for nodes no longer present, except the level's own
// aggregate record.
func (s *propertyStore) prune(keep []string) {
	keepSet := make(map[string]struct{}, len(keep)+1)
	keepSet[s.ownKey] = struct{}{}
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range s.recs {
		if _, ok := keepSet[id]; !ok {
			delete(s.recs, id)
		}
	}
}

// size returns the number of records including the level's own.
func (s *propertyStore) size() int {
	return len(s.recs)
}
