package workflow

// Edge represents a directed edge in the workflow DAG.
type Edge struct {
	// From is the source node ID
	From string `json:"from"`
	// To is the destination node ID
	To string `json:"to"`
}
