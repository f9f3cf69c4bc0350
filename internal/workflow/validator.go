package workflow

import (
	"sort"
	"strings"

	"github.com/flowgraph-io/flowgraph/internal/types"
)

// Validator provides validation functionality for workflow graphs.
// It's a stateless validator that can check for cycles, validate edges and
// compute entry/exit points, recursing into nested sub-graphs.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all validation checks on a graph level and every nested
// sub-graph below it. It checks for:
// - Nil graphs
// - Edges referencing missing nodes
// - Cycles in the DAG
func (v *Validator) Validate(g *Graph) error {
	if g == nil {
		return types.NewError(types.GRAPH_INVALID, "graph cannot be nil")
	}

	if err := v.validateEdges(g); err != nil {
		return err
	}

	cycle := v.DetectCycles(g)
	if len(cycle) > 0 {
		return types.NewErrorf(types.GRAPH_CYCLE_DETECTED,
			"cycle detected in graph %q: %s", g.Name(), strings.Join(cycle, " -> "))
	}

	for _, child := range g.Subgraphs() {
		if err := v.Validate(child); err != nil {
			return err
		}
	}
	return nil
}

// validateEdges checks that every edge references nodes present at this level.
func (v *Validator) validateEdges(g *Graph) error {
	for _, e := range g.Edges() {
		if !g.ContainsNode(e.From) {
			return types.NewErrorf(types.GRAPH_INVALID,
				"edge %s -> %s references missing source node", e.From, e.To)
		}
		if !g.ContainsNode(e.To) {
			return types.NewErrorf(types.GRAPH_INVALID,
				"edge %s -> %s references missing target node", e.From, e.To)
		}
	}
	return nil
}

// DetectCycles uses depth-first search with color marking to detect cycles at
// one graph level. Colors: white (0) = unvisited, gray (1) = in-progress,
// black (2) = done. Returns the nodes involved in a cycle if found, otherwise
// returns nil.
func (v *Validator) DetectCycles(g *Graph) []string {
	ids := g.Nodes()
	if len(ids) == 0 {
		return nil
	}

	color := make(map[string]int, len(ids))
	parent := make(map[string]string, len(ids))

	adjList := make(map[string][]string, len(ids))
	for _, e := range g.Edges() {
		adjList[e.From] = append(adjList[e.From], e.To)
	}

	var dfs func(nodeID string) []string
	dfs = func(nodeID string) []string {
		color[nodeID] = 1

		for _, neighbor := range adjList[nodeID] {
			switch color[neighbor] {
			case 0:
				parent[neighbor] = nodeID
				if cycle := dfs(neighbor); cycle != nil {
					return cycle
				}
			case 1:
				// Back edge: reconstruct the cycle path.
				cycle := []string{neighbor}
				for current := nodeID; current != neighbor; current = parent[current] {
					cycle = append(cycle, current)
				}
				cycle = append(cycle, neighbor)
				reverse(cycle)
				return cycle
			}
		}

		color[nodeID] = 2
		return nil
	}

	for _, id := range ids {
		if color[id] == 0 {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// EntryPoints returns the IDs of nodes with no incoming edges, sorted.
func (v *Validator) EntryPoints(g *Graph) []string {
	return v.boundaryNodes(g, func(id string) bool {
		return len(g.DirectPredecessors(id)) == 0
	})
}

// ExitPoints returns the IDs of nodes with no outgoing edges, sorted.
func (v *Validator) ExitPoints(g *Graph) []string {
	return v.boundaryNodes(g, func(id string) bool {
		return len(g.DirectSuccessors(id)) == 0
	})
}

func (v *Validator) boundaryNodes(g *Graph, pred func(string) bool) []string {
	var out []string
	for _, id := range g.Nodes() {
		if pred(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
