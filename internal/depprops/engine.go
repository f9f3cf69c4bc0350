package depprops

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgraph-io/flowgraph/internal/observability"
	"github.com/flowgraph-io/flowgraph/internal/types"
	"github.com/flowgraph-io/flowgraph/internal/workflow"
)

// Engine computes and caches the dependent node properties of one graph
// nesting level. Use NewEngine on the root graph; engines for nested levels
// are created alongside and reachable via Child.
//
// The engine subscribes to the graph's state-change and edge-change listeners
// at construction time. A sub-graph added to the graph afterwards gets its
// engine, and with it the listener wiring of the nested level, on the first
// Child access.
//
// All exported methods are safe for concurrent use. Level mutexes are only
// ever acquired leaf to root: a goroutine holding a child level's mutex may
// take an ancestor's, never the reverse.
type Engine struct {
	mu sync.Mutex

	graph  *workflow.Graph
	store  *propertyStore
	ownKey string

	parent   *Engine
	children map[string]*Engine

	// levelValid is the validity of the whole level: false as soon as any
	// record was invalidated, true only after a completed recomputation.
	levelValid bool

	// lockCount > 0 while an update lock is held on this level or a
	// descendant; invalidations are suppressed while it is.
	lockCount int

	logger *slog.Logger
	tracer trace.Tracer
}

// Option is a functional option for configuring an Engine tree.
type Option func(*Engine)

// WithLogger configures the engine to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer configures the engine to use the specified OpenTelemetry tracer
// for recomputation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEngine creates the engine tree for a root graph and all nested
// sub-graphs, and subscribes each level to its graph's mutation listeners.
func NewEngine(g *workflow.Graph, opts ...Option) *Engine {
	root := &Engine{
		logger: slog.Default(),
		tracer: observability.NoopTracer(),
	}
	for _, opt := range opts {
		opt(root)
	}
	root.init(g, nil)
	return root
}

func (e *Engine) init(g *workflow.Graph, parent *Engine) {
	e.graph = g
	e.parent = parent
	e.ownKey = g.ID().String()
	e.store = newPropertyStore(e.ownKey)
	e.children = make(map[string]*Engine)

	for id, child := range g.Subgraphs() {
		ce := &Engine{logger: e.logger, tracer: e.tracer}
		ce.init(child, e)
		e.children[id] = ce
	}

	g.OnStateChange(func(nodeID string, _, _ workflow.NodeStatus) {
		e.Invalidate(nodeID)
	})
	g.OnEdgeChange(func(from, to string, _ bool) {
		e.Invalidate(from)
		e.Invalidate(to)
	})
}

// Graph returns the graph level this engine is attached to.
func (e *Engine) Graph() *workflow.Graph {
	return e.graph
}

// Child returns the engine of the nested level owned by the given sub-graph
// node. A sub-graph that joined the graph after this engine was built gets its
// engine created and wired here.
func (e *Engine) Child(nodeID string) (*Engine, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if child, ok := e.children[nodeID]; ok {
		return child, true
	}
	g, ok := e.graph.Subgraph(nodeID)
	if !ok {
		return nil, false
	}
	child := &Engine{logger: e.logger, tracer: e.tracer}
	child.init(g, e)
	e.children[nodeID] = child
	return child, true
}

// IsValid reports whether the level's cached properties reflect the current
// graph and execution state.
func (e *Engine) IsValid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levelValid
}

// IsLocked reports whether an update lock is held on this level or on a
// descendant.
func (e *Engine) IsLocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lockCount > 0
}

// Invalidate marks a node's record stale and cascades the invalidation up the
// nesting chain, since a child's change can alter the parent's aggregate.
// Suppressed while an update lock is held on this level.
func (e *Engine) Invalidate(nodeID string) {
	e.mu.Lock()
	if e.lockCount > 0 {
		e.mu.Unlock()
		e.logger.Debug("invalidation suppressed while locked",
			"graph", e.graph.Name(), "node", nodeID)
		return
	}
	rec, _ := e.store.get(nodeID)
	rec.invalidate()
	e.levelValid = false
	parent, parentNode := e.parent, e.graph.ParentNodeID()
	e.mu.Unlock()

	if parent != nil {
		parent.Invalidate(parentNode)
	}
}

// InvalidateAll marks every record of the level stale, including the level's
// own aggregate record, and cascades up the nesting chain. Suppressed while
// an update lock is held on this level.
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	if e.lockCount > 0 {
		e.mu.Unlock()
		e.logger.Debug("invalidation suppressed while locked", "graph", e.graph.Name())
		return
	}
	e.store.invalidateAll()
	e.store.own.invalidate()
	e.levelValid = false
	parent, parentNode := e.parent, e.graph.ParentNodeID()
	e.mu.Unlock()

	if parent != nil {
		parent.Invalidate(parentNode)
	}
}

// Update brings the level's cached properties up to date. It is a no-op if
// the level is already valid. Before recomputing, any sub-graph whose own
// cache went stale has all of its records invalidated, so a stale child
// cannot poison a fresh parent computation.
func (e *Engine) Update(ctx context.Context) error {
	if e.IsValid() {
		return nil
	}

	e.mu.Lock()
	children := make([]*Engine, 0, len(e.children))
	for _, child := range e.children {
		children = append(children, child)
	}
	e.mu.Unlock()

	for _, child := range children {
		if !child.IsValid() {
			child.InvalidateAll()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.levelValid {
		return nil
	}
	return e.recomputeLocked(ctx)
}

// CanExecute reports whether the node could be executed: it is either
// immediately executable itself, or idle with an executable predecessor that
// could eventually configure it. The cached properties are refreshed first if
// stale.
func (e *Engine) CanExecute(ctx context.Context, nodeID string) (bool, error) {
	if !e.graph.ContainsNode(nodeID) {
		return false, types.NewErrorf(types.NODE_NOT_FOUND, "node %q not found", nodeID)
	}
	if err := e.Update(ctx); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The record's status snapshot, not the live status: under an update lock
	// the composed answer must stay as frozen as the cached booleans.
	rec, _ := e.store.get(nodeID)
	if rec.lastStatus.IsExecutable() {
		return true, nil
	}
	if rec.lastStatus.IsInProgress() || rec.lastStatus.IsResettable() {
		return false, nil
	}
	return rec.hasExecutablePredecessors, nil
}

// CanReset reports whether the node could be reset: it has been executed and
// no successor is currently executing. The cached properties are refreshed
// first if stale.
func (e *Engine) CanReset(ctx context.Context, nodeID string) (bool, error) {
	if !e.graph.ContainsNode(nodeID) {
		return false, types.NewErrorf(types.NODE_NOT_FOUND, "node %q not found", nodeID)
	}
	if err := e.Update(ctx); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec, _ := e.store.get(nodeID)
	if !rec.lastStatus.IsResettable() {
		return false, nil
	}
	return !rec.hasExecutingSuccessors, nil
}

// HasExecutablePredecessors returns the cached value for a node. It fails
// fast with PROPS_INVALID when the level is stale: a caller without an update
// lock must trigger recomputation (Update, CanExecute, CanReset) first.
func (e *Engine) HasExecutablePredecessors(nodeID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cachedValueLocked(nodeID, func(rec *properties) bool {
		return rec.hasExecutablePredecessors
	})
}

// HasExecutingSuccessors returns the cached value for a node. It fails fast
// with PROPS_INVALID when the level is stale.
func (e *Engine) HasExecutingSuccessors(nodeID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cachedValueLocked(nodeID, func(rec *properties) bool {
		return rec.hasExecutingSuccessors
	})
}

func (e *Engine) cachedValueLocked(nodeID string, read func(*properties) bool) (bool, error) {
	if !e.levelValid {
		// Retryable: the caller recovers by running Update (or acquiring an
		// update lock) and reading again.
		return false, types.NewRetryableError(types.PROPS_INVALID,
			"dependent node properties are stale; call Update or acquire an update lock first")
	}
	rec, ok := e.store.lookup(nodeID)
	if !ok {
		return false, types.NewErrorf(types.NODE_NOT_FOUND, "node %q not found", nodeID)
	}
	return read(rec), nil
}

// recomputeLocked synchronizes the level with the current graph and execution
// state and, if anything changed, recomputes both properties from scratch.
// Callers must hold e.mu.
func (e *Engine) recomputeLocked(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "depprops.recompute", trace.WithAttributes(
		attribute.String("graph.name", e.graph.Name()),
		attribute.Int("graph.nodes", e.graph.NodeCount()),
	))
	defer span.End()

	ownReset, err := e.syncOwnLocked(ctx)
	if err != nil {
		return err
	}
	nodes := e.graph.Nodes()
	scanReset := e.syncNodesLocked(nodes)

	if e.store.size() > len(nodes)+1 {
		e.store.prune(nodes)
	}

	reset := ownReset || scanReset
	if reset {
		// Any change recomputes the whole level: propagation only raises
		// values, so records downstream of a change must start cleared.
		e.store.invalidateAll()
		runPropagation(executablePredecessorsProxy{proxyBase{e}})
		runPropagation(executingSuccessorsProxy{proxyBase{e}})
		e.store.setAllValid()
	}
	e.levelValid = true

	span.SetAttributes(attribute.Bool("recomputed", reset))
	e.logger.Debug("dependent node properties updated",
		"graph", e.graph.Name(), "nodes", len(nodes), "recomputed", reset)
	return nil
}

// syncOwnLocked refreshes the level's own aggregate record. A top-level graph
// has no outer neighbors: its record is always valid with both values false.
// A nested level mirrors the parent's view of its sub-graph node; a changed
// parent view resets the whole level.
func (e *Engine) syncOwnLocked(ctx context.Context) (bool, error) {
	own := e.store.own
	if e.graph.IsRoot() {
		own.valid = true
		return false, nil
	}

	preds, succs, err := e.parent.aggregateFor(ctx, e.graph.ParentNodeID())
	if err != nil {
		return false, err
	}
	reset := !own.valid || own.hasExecutablePredecessors != preds || own.hasExecutingSuccessors != succs
	own.hasExecutablePredecessors = preds
	own.hasExecutingSuccessors = succs
	if reset {
		own.valid = false
	}
	return reset, nil
}

// syncNodesLocked creates missing records, refreshes status snapshots and
// reports whether anything requires a recomputation. Records whose snapshot
// matches the current status and that were not invalidated stay valid.
func (e *Engine) syncNodesLocked(nodes []string) bool {
	reset := false
	for _, id := range nodes {
		rec, created := e.store.get(id)
		status := e.graph.Status(id)
		switch {
		case created:
			rec.lastStatus = status
			reset = true
		case rec.lastStatus != status:
			rec.invalidate()
			rec.lastStatus = status
			reset = true
		case !rec.valid:
			reset = true
		}
	}
	return reset
}

// aggregateFor returns the parent-level property values of the given node,
// recomputing the level first if it is stale. Used by child engines to feed
// their boundary nodes; the child holds its own mutex while calling, which is
// safe because mutex acquisition only ever walks towards the root.
func (e *Engine) aggregateFor(ctx context.Context, nodeID string) (bool, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.levelValid {
		if err := e.recomputeLocked(ctx); err != nil {
			return false, false, err
		}
	}
	rec, ok := e.store.lookup(nodeID)
	if !ok {
		return false, false, types.NewErrorf(types.NODE_NOT_FOUND,
			"node %q not found in graph %q", nodeID, e.graph.Name())
	}
	return rec.hasExecutablePredecessors, rec.hasExecutingSuccessors, nil
}

// boundaryPredecessors returns the direct predecessors of a node. On a nested
// level a node with no internal predecessors depends on the level's own
// aggregate record: an executable predecessor of the sub-graph node in the
// parent is an executable predecessor of every entry node inside it.
func (e *Engine) boundaryPredecessors(id string) []string {
	if id == e.ownKey {
		return nil
	}
	preds := e.graph.DirectPredecessors(id)
	if len(preds) == 0 && !e.graph.IsRoot() {
		return []string{e.ownKey}
	}
	return preds
}

// boundarySuccessors returns the direct successors of a node. On a nested
// level a node with no internal successors feeds the level's own aggregate
// record, mirroring boundaryPredecessors.
func (e *Engine) boundarySuccessors(id string) []string {
	if id == e.ownKey {
		return nil
	}
	succs := e.graph.DirectSuccessors(id)
	if len(succs) == 0 && !e.graph.IsRoot() {
		return []string{e.ownKey}
	}
	return succs
}
