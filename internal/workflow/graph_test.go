package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph-io/flowgraph/internal/events"
	"github.com/flowgraph-io/flowgraph/internal/types"
)

func requireCode(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	var flowErr *types.FlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, code, flowErr.Code)
}

// TestGraph_AddNode verifies node addition, the idle default status and
// duplicate rejection.
func TestGraph_AddNode(t *testing.T) {
	g := NewGraph("test")

	require.NoError(t, g.AddNode(&Node{ID: "a", Name: "a"}))
	assert.True(t, g.ContainsNode("a"))
	assert.Equal(t, NodeStatusIdle, g.Status("a"))
	assert.Equal(t, NodeTypeTask, g.GetNode("a").Type)

	err := g.AddNode(&Node{ID: "a", Name: "again"})
	requireCode(t, err, types.GRAPH_INVALID)

	err = g.AddNode(&Node{})
	requireCode(t, err, types.GRAPH_INVALID)

	err = g.AddNode(&Node{ID: "s", Type: NodeTypeSubgraph})
	requireCode(t, err, types.GRAPH_INVALID)
}

// TestGraph_AddEdge verifies edge addition, endpoint validation and duplicate
// rejection.
func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph("test")
	require.NoError(t, g.AddNode(&Node{ID: "a", Name: "a"}))
	require.NoError(t, g.AddNode(&Node{ID: "b", Name: "b"}))

	require.NoError(t, g.AddEdge("a", "b"))
	assert.Equal(t, []Edge{{From: "a", To: "b"}}, g.Edges())

	requireCode(t, g.AddEdge("a", "b"), types.GRAPH_INVALID)
	requireCode(t, g.AddEdge("a", "ghost"), types.NODE_NOT_FOUND)
	requireCode(t, g.AddEdge("ghost", "b"), types.NODE_NOT_FOUND)
	requireCode(t, g.RemoveEdge("b", "a"), types.EDGE_NOT_FOUND)
}

// TestGraph_RemoveNodeDropsIncidentEdges verifies that removing a node removes
// every edge touching it and notifies edge listeners about the removals.
func TestGraph_RemoveNodeDropsIncidentEdges(t *testing.T) {
	g := NewGraph("test")
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddNode(&Node{ID: id, Name: id}))
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	var removed [][2]string
	g.OnEdgeChange(func(from, to string, added bool) {
		if !added {
			removed = append(removed, [2]string{from, to})
		}
	})

	require.NoError(t, g.RemoveNode("b"))
	assert.False(t, g.ContainsNode("b"))
	assert.Empty(t, g.Edges())
	assert.ElementsMatch(t, [][2]string{{"a", "b"}, {"b", "c"}}, removed)

	requireCode(t, g.RemoveNode("b"), types.NODE_NOT_FOUND)
}

// TestGraph_Neighbors verifies predecessor and successor queries.
func TestGraph_Neighbors(t *testing.T) {
	g := NewGraph("test")
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddNode(&Node{ID: id, Name: id}))
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("b", "c"))

	assert.Empty(t, g.DirectPredecessors("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, g.DirectPredecessors("c"))
	assert.ElementsMatch(t, []string{"b", "c"}, g.DirectSuccessors("a"))
	assert.Empty(t, g.DirectSuccessors("c"))
}

// TestGraph_SetStatusNotifies verifies listener notification on status
// transitions and the no-op on setting the same status again.
func TestGraph_SetStatusNotifies(t *testing.T) {
	g := NewGraph("test")
	require.NoError(t, g.AddNode(&Node{ID: "a", Name: "a"}))

	var calls int
	g.OnStateChange(func(nodeID string, old, status NodeStatus) {
		calls++
		assert.Equal(t, "a", nodeID)
		assert.Equal(t, NodeStatusIdle, old)
		assert.Equal(t, NodeStatusConfigured, status)
	})

	require.NoError(t, g.SetStatus("a", NodeStatusConfigured))
	require.NoError(t, g.SetStatus("a", NodeStatusConfigured))
	assert.Equal(t, 1, calls, "same-status transitions are not notified")

	requireCode(t, g.SetStatus("ghost", NodeStatusIdle), types.NODE_NOT_FOUND)
}

// TestGraph_SubgraphStatusIsDerived verifies that sub-graph nodes reject
// direct status writes and derive their status from their children.
func TestGraph_SubgraphStatusIsDerived(t *testing.T) {
	g := NewGraph("parent")
	child, err := g.AddSubgraph(&Node{ID: "s", Name: "s"})
	require.NoError(t, err)
	require.NoError(t, child.AddNode(&Node{ID: "x", Name: "x"}))

	requireCode(t, g.SetStatus("s", NodeStatusExecuting), types.GRAPH_INVALID)

	assert.Equal(t, NodeStatusIdle, g.Status("s"))
	require.NoError(t, child.SetStatus("x", NodeStatusExecuting))
	assert.Equal(t, NodeStatusExecuting, g.Status("s"))

	assert.True(t, child.Parent() == g)
	assert.Equal(t, "s", child.ParentNodeID())
	assert.False(t, child.IsRoot())
	assert.True(t, g.IsRoot())
}

// TestGraph_AggregateStatus verifies the derivation rules for a nested
// level's status as seen from its parent.
func TestGraph_AggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []NodeStatus
		want     NodeStatus
	}{
		{"empty", nil, NodeStatusIdle},
		{"all idle", []NodeStatus{NodeStatusIdle, NodeStatusIdle}, NodeStatusIdle},
		{"any executing", []NodeStatus{NodeStatusExecuted, NodeStatusExecuting}, NodeStatusExecuting},
		{"queued counts as in progress", []NodeStatus{NodeStatusQueued, NodeStatusIdle}, NodeStatusExecuting},
		{"all executed", []NodeStatus{NodeStatusExecuted, NodeStatusExecuted}, NodeStatusExecuted},
		{"any configured", []NodeStatus{NodeStatusConfigured, NodeStatusExecuted}, NodeStatusConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph("parent")
			child, err := g.AddSubgraph(&Node{ID: "s", Name: "s"})
			require.NoError(t, err)
			for i, s := range tt.statuses {
				id := string(rune('a' + i))
				require.NoError(t, child.AddNode(&Node{ID: id, Name: id}))
				require.NoError(t, child.SetStatus(id, s))
			}
			assert.Equal(t, tt.want, g.Status("s"))
		})
	}
}

// TestGraph_PublishesEvents verifies that mutations reach a configured event
// bus.
func TestGraph_PublishesEvents(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	g := NewGraph("test", WithEventBus(bus))
	require.NoError(t, g.AddNode(&Node{ID: "a", Name: "a"}))
	require.NoError(t, g.AddNode(&Node{ID: "b", Name: "b"}))

	ch, cancel := bus.Subscribe(context.Background(), events.Filter{}, 8)
	defer cancel()

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.SetStatus("a", NodeStatusConfigured))
	require.NoError(t, g.RemoveEdge("a", "b"))

	want := []events.EventType{
		events.EventEdgeAdded,
		events.EventNodeStatusChanged,
		events.EventEdgeRemoved,
	}
	for _, typ := range want {
		select {
		case ev := <-ch:
			assert.Equal(t, typ, ev.Type)
			assert.Equal(t, g.ID(), ev.GraphID)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

// TestGraph_NodesSorted verifies that node listings are deterministic.
func TestGraph_NodesSorted(t *testing.T) {
	g := NewGraph("test")
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddNode(&Node{ID: id, Name: id}))
	}
	assert.Equal(t, []string{"a", "b", "c"}, g.Nodes())
	assert.Equal(t, 3, g.NodeCount())
}
