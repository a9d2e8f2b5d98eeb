package scenerefs

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

func ref(name string, id int64) *project.Property {
	return &project.Property{Name: name, Kind: project.PropertyObjectReference, Reference: id}
}

// menuScene:
//
//	Canvas
//	  Menu      MenuController -> Play button, Settings, [Play, dangling]
//	    Play    Button.onClick -> MenuController.StartGame, dangling, no method
//	  Settings  (inactive)
//	Player      prefab instance, missing script, PlayerController -> Canvas
func menuScene() *project.Scene {
	play := &project.SceneObject{InstanceID: 3, Name: "Play", Components: []*project.Component{
		{InstanceID: 31, Type: "UnityEngine.UI.Button", Properties: []*project.Property{
			{Name: "onClick", Kind: project.PropertyEvent, Listeners: []project.PersistentListener{
				{Target: 21, Method: "StartGame"},
				{Target: 999, Method: "Ghost"},
				{Target: 21, Method: ""},
			}},
		}},
	}}
	menu := &project.SceneObject{InstanceID: 2, Name: "Menu", Children: []*project.SceneObject{play},
		Components: []*project.Component{
			{InstanceID: 21, Type: "Game.MenuController", Properties: []*project.Property{
				ref("playButton", 31),
				{Name: "settings", Kind: project.PropertyGeneric, Children: []*project.Property{ref("panel", 4)}},
				{Name: "items", Kind: project.PropertyArray, Children: []*project.Property{ref("data", 3), ref("data", 999)}},
			}},
		}}
	settings := &project.SceneObject{InstanceID: 4, Name: "Settings", Inactive: true}
	canvas := &project.SceneObject{InstanceID: 1, Name: "Canvas", Children: []*project.SceneObject{menu, settings},
		Components: []*project.Component{{InstanceID: 11, Type: "UnityEngine.Canvas"}}}
	player := &project.SceneObject{InstanceID: 5, Name: "Player",
		Prefab: &project.PrefabLink{Source: "Assets/Prefabs/Player.prefab", Status: project.PrefabConnected},
		Components: []*project.Component{
			{InstanceID: 51, Missing: true},
			{InstanceID: 52, Type: "Game.PlayerController", Properties: []*project.Property{ref("ui", 1)}},
		}}
	return project.NewScene("Assets/Scenes/Menu.unity", canvas, player)
}

func newAnalyzer(scenes ...*project.Scene) *Analyzer {
	snap := snapshot.New()
	for i, s := range scenes {
		snap.AddScene(s, i == 0)
	}
	return New(snap)
}

type edgeView struct {
	Source, Target, Relation, Field string
}

func edgeViews(g *model.GraphResult) []edgeView {
	out := make([]edgeView, 0, len(g.Edges))
	for _, e := range g.Edges {
		field, _ := e.Details["field"].(string)
		if e.Relation == model.RelationUIEvent {
			field, _ = e.Details["method"].(string)
		}
		out = append(out, edgeView{e.Source, e.Target, e.Relation, field})
	}
	return out
}

func nodeIDs(g *model.GraphResult) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestAnalyzeScene(t *testing.T) {
	g, err := newAnalyzer(menuScene()).AnalyzeScene("", true, true)
	if err != nil {
		t.Fatalf("AnalyzeScene: %v", err)
	}

	wantNodes := []string{"Canvas", "Canvas/Menu", "Canvas/Menu/Play", "Canvas/Settings", "Player"}
	if diff := cmp.Diff(wantNodes, nodeIDs(g.GraphResult)); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	wantEdges := []edgeView{
		{"Canvas", "Canvas/Menu", model.RelationHierarchyChild, ""},
		{"Canvas/Menu", "Canvas/Menu/Play", model.RelationComponentReference, "playButton"},
		{"Canvas/Menu", "Canvas/Settings", model.RelationComponentReference, "settings.panel"},
		{"Canvas/Menu", "Canvas/Menu/Play", model.RelationComponentReference, "items[0]"},
		{"Canvas/Menu", "Canvas/Menu/Play", model.RelationHierarchyChild, ""},
		{"Canvas/Menu/Play", "Canvas/Menu", model.RelationUIEvent, "StartGame"},
		{"Canvas", "Canvas/Settings", model.RelationHierarchyChild, ""},
		{"Player", "Canvas", model.RelationComponentReference, "ui"},
	}
	if diff := cmp.Diff(wantEdges, edgeViews(g.GraphResult)); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	if got := g.Edges[1].Details["targetComponent"]; got != "UnityEngine.UI.Button" {
		t.Errorf("targetComponent = %v", got)
	}
	if _, ok := g.Edges[2].Details["targetComponent"]; ok {
		t.Errorf("object referent should have no targetComponent: %v", g.Edges[2].Details)
	}
	if g.ScenePath() != "Assets/Scenes/Menu.unity" {
		t.Errorf("scene path = %q", g.ScenePath())
	}

	player := g.GetNode("Player")
	if diff := cmp.Diff([]string{"Game.PlayerController"}, player.Properties["components"]); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
	if player.Properties["isPrefabInstance"] != true || player.Properties["prefabSource"] != "Assets/Prefabs/Player.prefab" {
		t.Errorf("prefab properties = %v", player.Properties)
	}
	if g.GetNode("Canvas/Settings").Properties["active"] != false {
		t.Errorf("Settings should be inactive")
	}
}

func TestAnalyzeScene_OptionsAndNotFound(t *testing.T) {
	a := newAnalyzer(menuScene())

	g, err := a.AnalyzeScene("Assets/Scenes/Menu.unity", false, false)
	if err != nil {
		t.Fatalf("AnalyzeScene: %v", err)
	}
	for _, e := range g.Edges {
		if e.Relation != model.RelationComponentReference {
			t.Errorf("unexpected %s edge with hierarchy and events off", e.Relation)
		}
	}
	if len(g.Edges) != 4 {
		t.Errorf("expected 4 reference edges, got %d", len(g.Edges))
	}

	if _, err := a.AnalyzeScene("Assets/Scenes/Nope.unity", true, true); !errors.Is(err, project.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalyzeObject(t *testing.T) {
	a := newAnalyzer(menuScene())

	tests := []struct {
		name            string
		includeChildren bool
		includeEvents   bool
		wantEdges       int
	}{
		{"object only", false, false, 3},
		{"subtree with events", true, true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := a.AnalyzeObject("Canvas/Menu", tt.includeChildren, tt.includeEvents)
			if err != nil {
				t.Fatalf("AnalyzeObject: %v", err)
			}
			if len(g.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d: %v", len(g.Edges), tt.wantEdges, edgeViews(g.GraphResult))
			}
			for _, e := range g.Edges {
				if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
					t.Errorf("edge endpoint missing: %+v", e)
				}
			}
			if g.HasNode("Player") {
				t.Errorf("objects outside the subtree and its references should not appear")
			}
		})
	}

	if _, err := a.AnalyzeObject("Canvas/Nope", true, true); !errors.Is(err, project.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindReferencesToAndFrom(t *testing.T) {
	a := newAnalyzer(menuScene())

	to, err := a.FindReferencesTo("Canvas/Menu/Play")
	if err != nil {
		t.Fatalf("FindReferencesTo: %v", err)
	}
	wantTo := []edgeView{
		{"Canvas/Menu", "Canvas/Menu/Play", model.RelationComponentReference, "playButton"},
		{"Canvas/Menu", "Canvas/Menu/Play", model.RelationComponentReference, "items[0]"},
	}
	if diff := cmp.Diff(wantTo, edgeViews(to.GraphResult)); diff != "" {
		t.Errorf("references to mismatch (-want +got):\n%s", diff)
	}

	from, err := a.FindReferencesFrom("Canvas/Menu/Play")
	if err != nil {
		t.Fatalf("FindReferencesFrom: %v", err)
	}
	wantFrom := []edgeView{{"Canvas/Menu/Play", "Canvas/Menu", model.RelationUIEvent, "StartGame"}}
	if diff := cmp.Diff(wantFrom, edgeViews(from.GraphResult)); diff != "" {
		t.Errorf("references from mismatch (-want +got):\n%s", diff)
	}

	if _, err := a.FindReferencesTo("Nope"); !errors.Is(err, project.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Root, Child and Grandchild hang under a scene root so that only the
// top-level object is exempt: Root has no incoming reference and is the
// only orphan.
func TestFindOrphans_ReferenceChain(t *testing.T) {
	grandchild := &project.SceneObject{InstanceID: 4, Name: "Grandchild"}
	child := &project.SceneObject{InstanceID: 3, Name: "Child", Components: []*project.Component{
		{InstanceID: 31, Type: "Game.Link", Properties: []*project.Property{ref("next", 4)}},
	}}
	root := &project.SceneObject{InstanceID: 2, Name: "Root", Components: []*project.Component{
		{InstanceID: 21, Type: "Game.Link", Properties: []*project.Property{ref("next", 3)}},
	}}
	env := &project.SceneObject{InstanceID: 1, Name: "Environment", Children: []*project.SceneObject{root, child, grandchild}}
	scene := project.NewScene("Assets/Scenes/Chain.unity", env)

	g, err := newAnalyzer(scene).FindOrphans("")
	if err != nil {
		t.Fatalf("FindOrphans: %v", err)
	}
	if diff := cmp.Diff([]string{"Environment/Root"}, g.Orphans()); diff != "" {
		t.Errorf("orphans mismatch (-want +got):\n%s", diff)
	}
	for _, e := range g.Edges {
		if e.Relation == model.RelationHierarchyChild {
			t.Errorf("orphan analysis must ignore hierarchy, got %+v", e)
		}
	}
}

func TestFindOrphans_AllReferenced(t *testing.T) {
	g, err := newAnalyzer(menuScene()).FindOrphans("Assets/Scenes/Menu.unity")
	if err != nil {
		t.Fatalf("FindOrphans: %v", err)
	}
	if len(g.Orphans()) != 0 {
		t.Errorf("expected no orphans, got %v", g.Orphans())
	}
}
