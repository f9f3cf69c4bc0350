package workflow

import (
	"fmt"
	"os"

	"github.com/flowgraph-io/flowgraph/internal/types"
	"gopkg.in/yaml.v3"
)

// YAMLWorkflow represents the top-level structure of a workflow YAML file.
// Workflow graphs can be written in a human-readable YAML form and loaded
// into a Graph, including arbitrarily nested sub-graphs:
//
//	name: Example
//	nodes:
//	  - id: load
//	    status: configured
//	  - id: analyze
//	  - id: report
//	    name: Report
//	    nodes:
//	      - id: render
//	      - id: publish
//	    edges:
//	      - from: render
//	        to: publish
//	edges:
//	  - from: load
//	    to: analyze
//	  - from: analyze
//	    to: report
//
// A node with a nested "nodes" list becomes a sub-graph node owning its own
// child graph. The "status" field is optional and defaults to idle.
type YAMLWorkflow struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Nodes       []YAMLNode `yaml:"nodes"`
	Edges       []YAMLEdge `yaml:"edges,omitempty"`
}

// YAMLNode represents a node definition. A node carrying its own nested node
// list is loaded as a sub-graph node.
type YAMLNode struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Status      string     `yaml:"status,omitempty"`
	Nodes       []YAMLNode `yaml:"nodes,omitempty"`
	Edges       []YAMLEdge `yaml:"edges,omitempty"`
}

// YAMLEdge represents a directed edge definition.
type YAMLEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadFile reads a YAML workflow definition from disk and builds a validated
// graph from it.
func LoadFile(path string, opts ...GraphOption) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.WORKFLOW_PARSE_FAILED,
			fmt.Sprintf("failed to read workflow file %q", path), err)
	}
	return Parse(data, opts...)
}

// Parse builds a validated graph from a YAML workflow definition.
func Parse(data []byte, opts ...GraphOption) (*Graph, error) {
	var def YAMLWorkflow
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, types.WrapError(types.WORKFLOW_PARSE_FAILED, "invalid workflow YAML", err)
	}
	if def.Name == "" {
		return nil, types.NewError(types.WORKFLOW_PARSE_FAILED, "workflow name is required")
	}

	g := NewGraph(def.Name, opts...)
	if err := populate(g, def.Nodes, def.Edges); err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(g); err != nil {
		return nil, types.WrapError(types.WORKFLOW_VALIDATION_FAILED,
			fmt.Sprintf("workflow %q failed validation", def.Name), err)
	}
	return g, nil
}

// populate fills one graph level from its YAML node and edge lists, recursing
// into sub-graph nodes.
func populate(g *Graph, nodes []YAMLNode, edges []YAMLEdge) error {
	for _, yn := range nodes {
		if yn.ID == "" {
			return types.NewError(types.WORKFLOW_PARSE_FAILED, "every node needs an id")
		}
		name := yn.Name
		if name == "" {
			name = yn.ID
		}
		node := &Node{ID: yn.ID, Name: name, Description: yn.Description}

		if len(yn.Nodes) > 0 {
			if yn.Status != "" {
				return types.NewErrorf(types.WORKFLOW_PARSE_FAILED,
					"sub-graph node %q cannot declare a status; it is derived from its children", yn.ID)
			}
			child, err := g.AddSubgraph(node)
			if err != nil {
				return err
			}
			if err := populate(child, yn.Nodes, yn.Edges); err != nil {
				return err
			}
			continue
		}

		if err := g.AddNode(node); err != nil {
			return err
		}
		if yn.Status != "" {
			status, err := parseStatus(yn.Status)
			if err != nil {
				return err
			}
			if err := g.SetStatus(yn.ID, status); err != nil {
				return err
			}
		}
	}

	for _, ye := range edges {
		if err := g.AddEdge(ye.From, ye.To); err != nil {
			return err
		}
	}
	return nil
}

// parseStatus converts a YAML status string into a NodeStatus.
func parseStatus(s string) (NodeStatus, error) {
	switch NodeStatus(s) {
	case NodeStatusIdle, NodeStatusConfigured, NodeStatusQueued,
		NodeStatusExecuting, NodeStatusExecutingRemotely, NodeStatusExecuted:
		return NodeStatus(s), nil
	default:
		return "", types.NewErrorf(types.WORKFLOW_PARSE_FAILED, "unknown node status %q", s)
	}
}
