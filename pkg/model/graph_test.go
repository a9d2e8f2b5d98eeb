package model

import (
	"testing"
)

func TestNewGraphResult(t *testing.T) {
	g := NewGraphResult(GraphClassDependency)
	if g == nil {
		t.Fatal("NewGraphResult() returned nil")
	}

	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("New graph should be empty, got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestAddNode_FirstWriterWins(t *testing.T) {
	g := NewGraphResult(GraphClassDependency)

	first := NewNode("Game.Player", NodeClass)
	first.Properties["file"] = "Assets/Scripts/Player.cs"
	g.AddNode(first)

	second := NewNode("Game.Player", NodeInterface)
	second.Properties["file"] = "elsewhere.cs"
	g.AddNode(second)

	if len(g.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(g.Nodes))
	}

	node := g.GetNode("Game.Player")
	if node == nil {
		t.Fatal("Node not found in graph")
	}
	if node.Type != NodeClass {
		t.Errorf("Expected type %s, got %s", NodeClass, node.Type)
	}
	if node.Properties["file"] != "Assets/Scripts/Player.cs" {
		t.Errorf("Properties were overwritten: %v", node.Properties)
	}
}

func TestAddNode_NilProperties(t *testing.T) {
	g := NewGraphResult(GraphSceneReference)
	g.AddNode(&GraphNode{ID: "Root", Type: NodeGameObject})

	if g.GetNode("Root").Properties == nil {
		t.Error("AddNode should initialize properties")
	}
}

func TestEdgesFromAndTo(t *testing.T) {
	g := NewGraphResult(GraphClassDependency)
	g.AddEdge(NewEdge("A", "B", RelationInherits))
	g.AddEdge(NewEdge("A", "C", RelationFieldReference))
	g.AddEdge(NewEdge("C", "B", RelationFieldReference))
	// Duplicates are the caller's problem
	g.AddEdge(NewEdge("A", "B", RelationInherits))

	if got := len(g.Edges); got != 4 {
		t.Errorf("Expected 4 edges, got %d", got)
	}
	if got := len(g.GetEdgesFrom("A")); got != 3 {
		t.Errorf("Expected 3 edges from A, got %d", got)
	}
	to := g.GetEdgesTo("B")
	if len(to) != 3 {
		t.Fatalf("Expected 3 edges to B, got %d", len(to))
	}
	if to[1].Source != "C" {
		t.Errorf("Edges should keep discovery order, got source %s at index 1", to[1].Source)
	}
	if g.GetEdgesFrom("missing") != nil {
		t.Error("Expected no edges from unknown node")
	}
}

func TestSubgraph(t *testing.T) {
	g := NewGraphResult(GraphSceneReference)
	for _, id := range []string{"A", "B", "C"} {
		g.AddNode(NewNode(id, NodeGameObject))
	}
	g.AddEdge(NewEdge("A", "B", RelationComponentReference))
	g.AddEdge(NewEdge("B", "C", RelationComponentReference))
	g.Metadata[MetaScenePath] = "Assets/Scenes/Main.unity"

	sub := g.Subgraph(map[string]bool{"A": true, "B": true})

	if len(sub.Nodes) != 2 || len(sub.Edges) != 1 {
		t.Errorf("Expected 2 nodes and 1 edge, got %d nodes, %d edges", len(sub.Nodes), len(sub.Edges))
	}
	if sub.Metadata[MetaScenePath] != "Assets/Scenes/Main.unity" {
		t.Error("Subgraph should copy metadata")
	}
	if len(g.Nodes) != 3 {
		t.Error("Subgraph must not modify the original")
	}
}

func TestTypedViews(t *testing.T) {
	cg := NewClassGraph(GraphClassDependency, "Game.Player", 2)
	if cg.AnalysisTarget() != "Game.Player" || cg.Depth() != 2 {
		t.Errorf("Unexpected class graph metadata: %v", cg.Metadata)
	}

	dependents := NewClassGraph(GraphClassDependents, "Game.Weapon", 0)
	if _, ok := dependents.Metadata[MetaDepth]; ok {
		t.Error("Dependents graphs carry no depth")
	}

	sg := NewSceneReferenceGraph("Assets/Scenes/Main.unity")
	sg.Metadata[MetaOrphans] = []any{"Level/Crate"}
	if sg.ScenePath() != "Assets/Scenes/Main.unity" {
		t.Errorf("Unexpected scene path %q", sg.ScenePath())
	}
	if got := sg.Orphans(); len(got) != 1 || got[0] != "Level/Crate" {
		t.Errorf("Unexpected orphans %v", got)
	}

	rg := NewSceneRelationshipGraph()
	rg.Metadata[MetaBuildOrder] = []string{"a.unity", "b.unity"}
	if got := rg.BuildOrder(); len(got) != 2 {
		t.Errorf("Unexpected build order %v", got)
	}
	if rg.UnregisteredScenes() != nil {
		t.Error("Expected no unregistered scenes")
	}
}
