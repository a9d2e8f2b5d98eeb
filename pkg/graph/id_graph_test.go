package graph

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ritzau/forge-graph/pkg/model"
)

func TestNewIDGraph(t *testing.T) {
	ig := NewIDGraph()
	if ig == nil {
		t.Fatal("NewIDGraph() returned nil")
	}
	if len(ig.Nodes()) != 0 {
		t.Errorf("New graph should have 0 nodes, got %d", len(ig.Nodes()))
	}
}

func TestAddDependency(t *testing.T) {
	ig := NewIDGraph()
	ig.AddDependency("Game.Player", "Game.Weapon")
	ig.AddDependency("Game.Player", "Game.Weapon")
	ig.AddDependency("Game.Player", "Game.Player")

	if got := len(ig.Nodes()); got != 2 {
		t.Errorf("Expected 2 nodes, got %d", got)
	}
	if diff := cmp.Diff([]string{"Game.Weapon"}, ig.Dependencies("Game.Player")); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
	edges := 0
	for iter := ig.Graph().Edges(); iter.Next(); {
		edges++
	}
	if edges != 1 {
		t.Errorf("Expected a single deduplicated edge, got %d", edges)
	}
	if ig.Dependencies("Missing") != nil {
		t.Error("Dependencies of an unknown node should be nil")
	}
}

func TestFromResult(t *testing.T) {
	g := model.NewGraphResult(model.GraphClassDependency)
	g.AddNode(model.NewNode("A", model.NodeClass))
	g.AddNode(model.NewNode("B", model.NodeClass))
	g.AddNode(model.NewNode("C", model.NodeClass))
	g.AddEdge(model.NewEdge("A", "B", model.RelationFieldReference))
	g.AddEdge(model.NewEdge("C", "A", model.RelationInherits))

	all := FromResult(g)
	neighbors := all.Neighbors("A")
	sort.Strings(neighbors)
	if diff := cmp.Diff([]string{"B", "C"}, neighbors); diff != "" {
		t.Errorf("Neighbors mismatch (-want +got):\n%s", diff)
	}

	fields := FromResult(g, model.RelationFieldReference)
	if got := fields.Neighbors("C"); len(got) != 0 {
		t.Errorf("Relation filter should drop inherits edges, got %v", got)
	}
	if len(fields.Nodes()) != 3 {
		t.Errorf("All nodes should be kept, got %d", len(fields.Nodes()))
	}
}
