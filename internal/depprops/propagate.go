package depprops

// propertyProxy abstracts one dependent property over the graph so a single
// propagation routine serves both directions. The two implementations form a
// closed set: executable-predecessors (dependees are direct predecessors,
// dependers direct successors) and executing-successors (the mirrored pair).
type propertyProxy interface {
	// listAll returns every node ID taking part in the pass, including the
	// level's own aggregate key on nested levels.
	listAll() []string

	// isValid reports whether the node's record holds a value from the
	// current fixed point.
	isValid(id string) bool

	// value returns the node's current property value. Cleared records read
	// false.
	value(id string) bool

	// setValue stores a property value. Writes to the level's own aggregate
	// key are ignored; its value mirrors the parent's view.
	setValue(id string, v bool)

	// independentValue returns the seed value of a node with no dependees,
	// derived from the node's own execution status.
	independentValue(id string) bool

	// directDependees returns the nodes this node's value depends on.
	directDependees(id string) []string

	// directDependers returns the nodes depending on this node's value.
	directDependers(id string) []string
}

// runPropagation computes the fixed point of one property: collect the
// independently decidable seeds among all invalid records, then drain the
// queue raising dependers from false to true. Values never fall during a run.
func runPropagation(p propertyProxy) {
	propagate(p, collectUnknown(p))
}

// collectUnknown seeds the propagation queue from all records without a
// current value. This is a multi-source BFS seed: the sources are every node
// whose independent value is true, wherever it sits in the graph.
//
//	(i)  nodes with at least one dependee already true become true and are
//	     enqueued; all other nodes start at false, pending revision while the
//	     queue drains;
//	(ii) nodes whose independent value is true are enqueued as well. Their own
//	     value stays false: being executable or executing says nothing about
//	     the node's predecessors or successors, it only feeds the neighbors.
func collectUnknown(p propertyProxy) []string {
	var queue []string
	for _, id := range p.listAll() {
		if !p.isValid(id) {
			queue = handleDirectDependees(p, queue, id)
		}
	}
	return queue
}

func handleDirectDependees(p propertyProxy, queue []string, id string) []string {
	for _, dep := range p.directDependees(id) {
		if p.value(dep) {
			p.setValue(id, true)
			return append(queue, id)
		}
	}
	p.setValue(id, false)
	if p.independentValue(id) {
		queue = append(queue, id)
	}
	return queue
}

// propagate drains the queue: every depender of a dequeued node that is not
// already true is raised to true and enqueued. A depender that is already true
// is skipped without re-enqueueing it, so each edge is visited at most once
// and every node enters the queue at most once. The early exit is per edge:
// the remaining sibling dependers of the current node are still visited, since
// nothing else would ever raise them.
func propagate(p propertyProxy, queue []string) {
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, depender := range p.directDependers(next) {
			if p.value(depender) {
				continue
			}
			p.setValue(depender, true)
			queue = append(queue, depender)
		}
	}
}

// proxyBase carries the engine shared by both property proxies.
type proxyBase struct {
	e *Engine
}

func (b proxyBase) listAll() []string {
	ids := b.e.graph.Nodes()
	if !b.e.graph.IsRoot() {
		ids = append(ids, b.e.ownKey)
	}
	return ids
}

func (b proxyBase) isValid(id string) bool {
	rec, ok := b.e.store.lookup(id)
	return ok && rec.valid
}

// executablePredecessorsProxy computes hasExecutablePredecessors: true
// propagates along forward edges from nodes that are themselves immediately
// executable.
type executablePredecessorsProxy struct {
	proxyBase
}

func (p executablePredecessorsProxy) value(id string) bool {
	rec, ok := p.e.store.lookup(id)
	return ok && rec.hasExecutablePredecessors
}

func (p executablePredecessorsProxy) setValue(id string, v bool) {
	if id == p.e.ownKey {
		return
	}
	rec, _ := p.e.store.get(id)
	rec.hasExecutablePredecessors = v
}

func (p executablePredecessorsProxy) independentValue(id string) bool {
	if id == p.e.ownKey {
		return p.e.store.own.hasExecutablePredecessors
	}
	return p.e.graph.Status(id).IsExecutable()
}

func (p executablePredecessorsProxy) directDependees(id string) []string {
	return p.e.boundaryPredecessors(id)
}

func (p executablePredecessorsProxy) directDependers(id string) []string {
	return p.e.boundarySuccessors(id)
}

// executingSuccessorsProxy computes hasExecutingSuccessors: true propagates
// along reversed edges from nodes that are actually executing (not merely
// queued) or executing remotely.
type executingSuccessorsProxy struct {
	proxyBase
}

func (p executingSuccessorsProxy) value(id string) bool {
	rec, ok := p.e.store.lookup(id)
	return ok && rec.hasExecutingSuccessors
}

func (p executingSuccessorsProxy) setValue(id string, v bool) {
	if id == p.e.ownKey {
		return
	}
	rec, _ := p.e.store.get(id)
	rec.hasExecutingSuccessors = v
}

func (p executingSuccessorsProxy) independentValue(id string) bool {
	if id == p.e.ownKey {
		return p.e.store.own.hasExecutingSuccessors
	}
	return p.e.graph.Status(id).IsExecuting()
}

func (p executingSuccessorsProxy) directDependees(id string) []string {
	return p.e.boundarySuccessors(id)
}

func (p executingSuccessorsProxy) directDependers(id string) []string {
	return p.e.boundaryPredecessors(id)
}
