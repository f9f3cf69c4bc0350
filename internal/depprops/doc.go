// Package depprops computes and caches node properties that depend on other
// nodes in a workflow graph: whether a node has an executable predecessor and
// whether it has an executing successor. Both are derived in one fixed-point
// propagation pass per property and cached until invalidated, so that the
// "can this node be executed?" and "can this node be reset?" checks stay cheap
// even on large graphs.
//
// One Engine is attached to every graph nesting level. A sub-graph is a node
// in its parent level and a graph of its own children at the same time; the
// engine of a nested level keeps a back-reference to its parent engine so a
// child invalidation cascades to the parent's aggregate record and outer
// context (the parent's view of the sub-graph node) feeds the child's
// boundary nodes.
//
// Invalidation is driven by the graph's synchronous state-change and
// edge-change listeners. Reads trigger recomputation lazily; an UpdateLock
// freezes a level so a batch of reads observes one consistent snapshot while
// background state transitions keep arriving.
package depprops
