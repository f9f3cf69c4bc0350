package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowgraph-io/flowgraph/internal/events"
	"github.com/flowgraph-io/flowgraph/internal/types"
)

// StateListener is invoked synchronously after a node's execution status
// changed. Listeners must not mutate the graph.
type StateListener func(nodeID string, oldStatus, newStatus NodeStatus)

// EdgeListener is invoked synchronously after an edge incident to the given
// nodes was added or removed.
type EdgeListener func(from, to string, added bool)

// Graph is one nesting level of a workflow DAG. It owns the node set, the
// edge list and the per-node execution status for this level. A node of type
// subgraph owns a child Graph; the child keeps a back-reference to its parent
// for nesting-aware queries.
//
// All methods are safe for concurrent use. Listeners are called outside the
// graph's internal lock so they may query the graph freely.
type Graph struct {
	id   types.ID
	name string

	mu        sync.RWMutex
	nodes     map[string]*Node
	edges     []Edge
	statuses  map[string]NodeStatus
	subgraphs map[string]*Graph

	parent       *Graph
	parentNodeID string

	stateListeners []StateListener
	edgeListeners  []EdgeListener

	bus events.Bus
}

// GraphOption is a functional option for configuring a Graph.
type GraphOption func(*Graph)

// WithEventBus configures the graph to publish mutation events (node status
// changes, edge additions and removals) to the given bus.
func WithEventBus(bus events.Bus) GraphOption {
	return func(g *Graph) {
		g.bus = bus
	}
}

// NewGraph creates a new empty top-level graph.
func NewGraph(name string, opts ...GraphOption) *Graph {
	g := &Graph{
		id:        types.NewID(),
		name:      name,
		nodes:     make(map[string]*Node),
		statuses:  make(map[string]NodeStatus),
		subgraphs: make(map[string]*Graph),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the unique identifier of this graph level.
func (g *Graph) ID() types.ID {
	return g.id
}

// Name returns the human-readable name of the graph.
func (g *Graph) Name() string {
	return g.name
}

// Parent returns the enclosing graph, or nil for a top-level graph.
func (g *Graph) Parent() *Graph {
	return g.parent
}

// ParentNodeID returns the ID of the node that represents this graph within
// its parent. Empty for a top-level graph.
func (g *Graph) ParentNodeID() string {
	return g.parentNodeID
}

// IsRoot returns true if this graph has no enclosing parent.
func (g *Graph) IsRoot() bool {
	return g.parent == nil
}

// AddNode adds a task node to the graph with an initial idle status.
func (g *Graph) AddNode(node *Node) error {
	if node == nil || node.ID == "" {
		return types.NewError(types.GRAPH_INVALID, "node must have a non-empty ID")
	}
	if node.Type == "" {
		node.Type = NodeTypeTask
	}
	if node.IsSubgraph() {
		return types.NewError(types.GRAPH_INVALID, "sub-graph nodes must be added via AddSubgraph")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[node.ID]; exists {
		return types.NewErrorf(types.GRAPH_INVALID, "duplicate node ID %q", node.ID)
	}
	g.nodes[node.ID] = node
	g.statuses[node.ID] = NodeStatusIdle
	return nil
}

// AddSubgraph adds a sub-graph node and creates the nested child graph it
// owns. The child graph is returned so callers can populate it.
func (g *Graph) AddSubgraph(node *Node) (*Graph, error) {
	if node == nil || node.ID == "" {
		return nil, types.NewError(types.GRAPH_INVALID, "node must have a non-empty ID")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[node.ID]; exists {
		return nil, types.NewErrorf(types.GRAPH_INVALID, "duplicate node ID %q", node.ID)
	}

	node.Type = NodeTypeSubgraph
	child := &Graph{
		id:           types.NewID(),
		name:         node.Name,
		nodes:        make(map[string]*Node),
		statuses:     make(map[string]NodeStatus),
		subgraphs:    make(map[string]*Graph),
		parent:       g,
		parentNodeID: node.ID,
		bus:          g.bus,
	}

	g.nodes[node.ID] = node
	g.subgraphs[node.ID] = child
	return child, nil
}

// RemoveNode removes a node and every edge incident to it. Removing a
// sub-graph node discards its nested child graph as well.
func (g *Graph) RemoveNode(id string) error {
	g.mu.Lock()
	if _, exists := g.nodes[id]; !exists {
		g.mu.Unlock()
		return types.NewErrorf(types.NODE_NOT_FOUND, "node %q not found", id)
	}

	var removed []Edge
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From == id || e.To == id {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	delete(g.nodes, id)
	delete(g.statuses, id)
	delete(g.subgraphs, id)
	listeners := make([]EdgeListener, len(g.edgeListeners))
	copy(listeners, g.edgeListeners)
	g.mu.Unlock()

	for _, e := range removed {
		for _, l := range listeners {
			l(e.From, e.To, false)
		}
		g.publishEdgeEvent(events.EventEdgeRemoved, e.From, e.To)
	}
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
func (g *Graph) AddEdge(from, to string) error {
	g.mu.Lock()
	if _, ok := g.nodes[from]; !ok {
		g.mu.Unlock()
		return types.NewErrorf(types.NODE_NOT_FOUND, "edge source %q not found", from)
	}
	if _, ok := g.nodes[to]; !ok {
		g.mu.Unlock()
		return types.NewErrorf(types.NODE_NOT_FOUND, "edge target %q not found", to)
	}
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			g.mu.Unlock()
			return types.NewErrorf(types.GRAPH_INVALID, "duplicate edge %s -> %s", from, to)
		}
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	listeners := make([]EdgeListener, len(g.edgeListeners))
	copy(listeners, g.edgeListeners)
	g.mu.Unlock()

	for _, l := range listeners {
		l(from, to, true)
	}
	g.publishEdgeEvent(events.EventEdgeAdded, from, to)
	return nil
}

// RemoveEdge removes the directed edge between two nodes.
func (g *Graph) RemoveEdge(from, to string) error {
	g.mu.Lock()
	idx := -1
	for i, e := range g.edges {
		if e.From == from && e.To == to {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.mu.Unlock()
		return types.NewErrorf(types.EDGE_NOT_FOUND, "edge %s -> %s not found", from, to)
	}
	g.edges = append(g.edges[:idx], g.edges[idx+1:]...)
	listeners := make([]EdgeListener, len(g.edgeListeners))
	copy(listeners, g.edgeListeners)
	g.mu.Unlock()

	for _, l := range listeners {
		l(from, to, false)
	}
	g.publishEdgeEvent(events.EventEdgeRemoved, from, to)
	return nil
}

// Nodes returns the IDs of all nodes at this level in lexicographic order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodeCount returns the number of nodes at this level.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetNode retrieves a node by its ID. Returns nil if the node is not found.
func (g *Graph) GetNode(id string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// ContainsNode returns true if a node with the given ID exists at this level.
func (g *Graph) ContainsNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// DirectPredecessors returns the IDs of nodes with an edge into the given
// node. Edges whose source no longer exists are skipped.
func (g *Graph) DirectPredecessors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var preds []string
	for _, e := range g.edges {
		if e.To != id {
			continue
		}
		if _, ok := g.nodes[e.From]; ok {
			preds = append(preds, e.From)
		}
	}
	return preds
}

// DirectSuccessors returns the IDs of nodes with an edge out of the given
// node. Edges whose target no longer exists are skipped.
func (g *Graph) DirectSuccessors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var succs []string
	for _, e := range g.edges {
		if e.From != id {
			continue
		}
		if _, ok := g.nodes[e.To]; ok {
			succs = append(succs, e.To)
		}
	}
	return succs
}

// Subgraph returns the nested child graph owned by the given sub-graph node.
func (g *Graph) Subgraph(id string) (*Graph, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	child, ok := g.subgraphs[id]
	return child, ok
}

// Subgraphs returns the nested child graphs keyed by their owning node IDs.
func (g *Graph) Subgraphs() map[string]*Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]*Graph, len(g.subgraphs))
	for id, child := range g.subgraphs {
		out[id] = child
	}
	return out
}

// Status returns the current execution status of a node. For sub-graph nodes
// the status is derived from the nested graph's children.
func (g *Graph) Status(id string) NodeStatus {
	g.mu.RLock()
	if child, ok := g.subgraphs[id]; ok {
		g.mu.RUnlock()
		return child.AggregateStatus()
	}
	s := g.statuses[id]
	g.mu.RUnlock()
	return s
}

// SetStatus updates the execution status of a task node and notifies the
// registered state listeners. Sub-graph nodes derive their status from their
// children and cannot be set directly.
func (g *Graph) SetStatus(id string, status NodeStatus) error {
	g.mu.Lock()
	if _, exists := g.nodes[id]; !exists {
		g.mu.Unlock()
		return types.NewErrorf(types.NODE_NOT_FOUND, "node %q not found", id)
	}
	if _, isSub := g.subgraphs[id]; isSub {
		g.mu.Unlock()
		return types.NewErrorf(types.GRAPH_INVALID, "status of sub-graph node %q is derived from its children", id)
	}
	old := g.statuses[id]
	if old == status {
		g.mu.Unlock()
		return nil
	}
	g.statuses[id] = status
	listeners := make([]StateListener, len(g.stateListeners))
	copy(listeners, g.stateListeners)
	g.mu.Unlock()

	for _, l := range listeners {
		l(id, old, status)
	}
	g.publishStatusEvent(id, old, status)
	return nil
}

// AggregateStatus derives the status of this graph as seen from its parent:
// executing if any child is in progress, executed if all children finished,
// configured if any child could be executed, idle otherwise.
func (g *Graph) AggregateStatus() NodeStatus {
	g.mu.RLock()
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	g.mu.RUnlock()

	if len(ids) == 0 {
		return NodeStatusIdle
	}

	executed := true
	configured := false
	for _, id := range ids {
		s := g.Status(id)
		if s.IsInProgress() {
			return NodeStatusExecuting
		}
		if s != NodeStatusExecuted {
			executed = false
		}
		if s.IsExecutable() {
			configured = true
		}
	}
	if executed {
		return NodeStatusExecuted
	}
	if configured {
		return NodeStatusConfigured
	}
	return NodeStatusIdle
}

// OnStateChange registers a listener for node status transitions at this
// level. Listeners are called synchronously in registration order.
func (g *Graph) OnStateChange(l StateListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stateListeners = append(g.stateListeners, l)
}

// OnEdgeChange registers a listener for edge additions and removals at this
// level. Listeners are called synchronously in registration order.
func (g *Graph) OnEdgeChange(l EdgeListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edgeListeners = append(g.edgeListeners, l)
}

func (g *Graph) publishStatusEvent(nodeID string, old, status NodeStatus) {
	if g.bus == nil {
		return
	}
	//nolint:errcheck // publish is best effort; a closed bus only means no observers
	g.bus.Publish(context.Background(), events.Event{
		Type:      events.EventNodeStatusChanged,
		GraphID:   g.id,
		NodeID:    nodeID,
		OldStatus: old.String(),
		NewStatus: status.String(),
		Timestamp: time.Now(),
	})
}

func (g *Graph) publishEdgeEvent(typ events.EventType, from, to string) {
	if g.bus == nil {
		return
	}
	//nolint:errcheck // publish is best effort; a closed bus only means no observers
	g.bus.Publish(context.Background(), events.Event{
		Type:      typ,
		GraphID:   g.id,
		EdgeFrom:  from,
		EdgeTo:    to,
		Timestamp: time.Now(),
	})
}
