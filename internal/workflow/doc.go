// Package workflow provides the mutable workflow graph model: nodes, edges,
// per-node execution status and graph nesting.
//
// A Graph is one nesting level of a DAG. Nodes are either tasks with an
// execution status of their own, or sub-graph nodes owning a nested child
// Graph whose status is derived from its children. The graph notifies
// registered listeners synchronously about status transitions and edge
// changes, and can additionally publish mutation events to an event bus for
// external observers.
//
// The package also provides a stateless Validator (cycle detection, edge
// checks, entry/exit point computation) and a YAML loader for nested
// workflow definitions.
package workflow
