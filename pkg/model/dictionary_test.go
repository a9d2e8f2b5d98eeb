package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleGraph() *GraphResult {
	g := NewClassGraph(GraphClassDependency, "Game.Player", 1).GraphResult

	player := NewNode("Game.Player", NodeMonoBehaviour)
	player.Properties["name"] = "Player"
	player.Properties["interfaces"] = []string{"Game.IDamageable"}
	g.AddNode(player)
	g.AddNode(NewNode("Game.Character", NodeClass))
	g.AddNode(NewNode("Game.IDamageable", NodeInterface))

	e := NewEdge("Game.Player", "Game.Character", RelationInherits)
	g.AddEdge(e)
	f := NewEdge("Game.Player", "Game.IDamageable", RelationImplements)
	g.AddEdge(f)
	return g
}

func TestToDictionary(t *testing.T) {
	d := sampleGraph().ToDictionary()

	if d["graphType"] != "class_dependency" {
		t.Errorf("Unexpected graphType %v", d["graphType"])
	}
	if d["nodeCount"] != 3 || d["edgeCount"] != 2 {
		t.Errorf("Unexpected counts %v/%v", d["nodeCount"], d["edgeCount"])
	}
	if d["analysisTarget"] != "Game.Player" || d["depth"] != 1 {
		t.Errorf("Metadata should be spread at top level: %v", d)
	}
	nodes := d["nodes"].([]map[string]any)
	if nodes[0]["id"] != "Game.Player" {
		t.Errorf("Nodes should keep insertion order, first is %v", nodes[0]["id"])
	}
}

func TestDictionaryRoundTrip(t *testing.T) {
	first := sampleGraph().ToDictionary()

	g, err := FromDictionary(first)
	if err != nil {
		t.Fatalf("FromDictionary() error = %v", err)
	}
	second := g.ToDictionary()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestDictionaryRoundTrip_JSON(t *testing.T) {
	data, err := json.Marshal(sampleGraph())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	g, err := FromDictionary(decoded)
	if err != nil {
		t.Fatalf("FromDictionary() error = %v", err)
	}
	again, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var redecoded map[string]any
	if err := json.Unmarshal(again, &redecoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(decoded, redecoded); diff != "" {
		t.Errorf("JSON round trip mismatch:\n%s", diff)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Errorf("Expected 3 nodes and 2 edges, got %d/%d", len(g.Nodes), len(g.Edges))
	}
}

func TestFromDictionary_Errors(t *testing.T) {
	tests := []struct {
		name string
		d    map[string]any
	}{
		{"missing graph type", map[string]any{"nodes": []any{}}},
		{"nodes not a list", map[string]any{"graphType": "x", "nodes": "oops"}},
		{"node without id", map[string]any{"graphType": "x", "nodes": []any{map[string]any{"type": "class"}}}},
		{"edge without target", map[string]any{"graphType": "x", "edges": []any{map[string]any{"source": "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromDictionary(tt.d); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
