package workflow

// NodeType defines the type of workflow node.
type NodeType string

const (
	// NodeTypeTask is a regular executable node.
	NodeTypeTask NodeType = "task"
	// NodeTypeSubgraph is a node that owns a nested graph of its own children.
	NodeTypeSubgraph NodeType = "subgraph"
)

// NodeStatus represents the execution status of a workflow node.
type NodeStatus string

const (
	// NodeStatusIdle indicates the node is not yet ready to execute.
	NodeStatusIdle NodeStatus = "idle"

	// NodeStatusConfigured indicates the node is fully configured and can be
	// executed immediately.
	NodeStatusConfigured NodeStatus = "configured"

	// NodeStatusQueued indicates the node is waiting to be picked up by a worker.
	NodeStatusQueued NodeStatus = "queued"

	// NodeStatusExecuting indicates the node is currently executing locally.
	NodeStatusExecuting NodeStatus = "executing"

	// NodeStatusExecutingRemotely indicates execution has been delegated to a
	// remote executor.
	NodeStatusExecutingRemotely NodeStatus = "executing_remotely"

	// NodeStatusExecuted indicates the node has finished executing.
	NodeStatusExecuted NodeStatus = "executed"
)

// String returns the string representation of the node status.
func (s NodeStatus) String() string {
	return string(s)
}

// IsExecutable returns true if the node can be executed right away without
// waiting for any predecessor.
func (s NodeStatus) IsExecutable() bool {
	return s == NodeStatusConfigured
}

// IsExecuting returns true if the node is actually executing, locally or
// remotely. A queued node is not considered executing.
func (s NodeStatus) IsExecuting() bool {
	return s == NodeStatusExecuting || s == NodeStatusExecutingRemotely
}

// IsInProgress returns true if the node is queued or executing.
func (s NodeStatus) IsInProgress() bool {
	return s == NodeStatusQueued || s.IsExecuting()
}

// IsResettable returns true if the node has finished and could be reset.
func (s NodeStatus) IsResettable() bool {
	return s == NodeStatusExecuted
}

// Node represents a single node in a workflow DAG. A node is either a task or
// a sub-graph; sub-graph nodes own a nested Graph of their own children.
type Node struct {
	// ID is the unique identifier of the node within its owning graph.
	ID string `json:"id"`

	// Type distinguishes task nodes from sub-graph nodes.
	Type NodeType `json:"type"`

	// Name is a human-readable name for the node.
	Name string `json:"name"`

	// Description provides additional context about what this node does.
	Description string `json:"description,omitempty"`

	// Metadata contains additional custom metadata for the node.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsSubgraph returns true if the node owns a nested graph.
func (n *Node) IsSubgraph() bool {
	return n.Type == NodeTypeSubgraph
}
