package command

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ritzau/forge-graph/pkg/analysis/integrity"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

// gameSnapshot: Player : Character, IDamageable with a Weapon field, and an
// active scene where "Broken" carries a missing script
func gameSnapshot() *snapshot.Snapshot {
	snap := snapshot.New()
	snap.AddTypes(
		&project.TypeInfo{FullName: "Game.Character", BaseType: project.MonoBehaviourType},
		&project.TypeInfo{FullName: "Game.IDamageable", IsInterface: true},
		&project.TypeInfo{FullName: "Game.Weapon", BaseType: "System.Object"},
		&project.TypeInfo{
			FullName: "Game.Player", BaseType: "Game.Character",
			Interfaces: []string{"Game.IDamageable"},
			Fields:     []project.FieldInfo{{Name: "gun", Type: "Game.Weapon", Access: "private"}},
		},
	)
	broken := &project.SceneObject{InstanceID: 1, Name: "Broken", Components: []*project.Component{
		{InstanceID: 11, Missing: true},
	}}
	snap.AddScene(project.NewScene("Assets/Scenes/Main.unity", broken), true)
	snap.AddSource("Assets/Scripts/Player.cs", "namespace Game { public class Player : Character { private Weapon gun; } }\n")
	return snap
}

func newDispatcher() *Dispatcher {
	return NewDispatcher(gameSnapshot(), DefaultOptions())
}

func TestExecute_GraphJSON(t *testing.T) {
	resp := newDispatcher().Execute(context.Background(), Request{
		Operation: "analyze_class",
		Params:    Params{"target": "Player", "depth": float64(1)},
	})
	if !resp.Success {
		t.Fatalf("analyze_class failed: %s (%s)", resp.Error, resp.ErrorKind)
	}
	if resp.Format != "json" {
		t.Errorf("format = %q, want json", resp.Format)
	}
	d, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result is %T, want a dictionary", resp.Result)
	}
	if d["graphType"] != "class_dependency" || d["nodeCount"] != 4 || d["edgeCount"] != 3 {
		t.Errorf("graph = %v nodes, %v edges, type %v", d["nodeCount"], d["edgeCount"], d["graphType"])
	}
	if d["analysisTarget"] != "Game.Player" {
		t.Errorf("analysisTarget = %v", d["analysisTarget"])
	}
}

func TestExecute_TextFormats(t *testing.T) {
	d := newDispatcher()
	tests := []struct {
		format string
		want   string
	}{
		{"summary", "Nodes: 4"},
		{"dot", "digraph"},
		{"MERMAID", "-->"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := d.Execute(context.Background(), Request{
				Operation: "find_dependencies",
				Params:    Params{"type_name": "Game.Player", "depth": "1", "format": tt.format},
			})
			if !resp.Success {
				t.Fatalf("failed: %s", resp.Error)
			}
			text, ok := resp.Result.(string)
			if !ok || !strings.Contains(text, tt.want) {
				t.Errorf("result %T %q lacks %q", resp.Result, resp.Result, tt.want)
			}
		})
	}
}

func TestExecute_Lens(t *testing.T) {
	resp := newDispatcher().Execute(context.Background(), Request{
		Operation: "analyze_class",
		Params:    Params{"type_name": "Game.Player", "depth": 1, "focus": "Game.Weapon", "radius": 0},
	})
	if !resp.Success {
		t.Fatalf("failed: %s", resp.Error)
	}
	d := resp.Result.(map[string]any)
	if d["nodeCount"] != 1 || d["edgeCount"] != 0 {
		t.Errorf("lens kept %v nodes and %v edges", d["nodeCount"], d["edgeCount"])
	}
	if _, ok := d["lens"]; !ok {
		t.Errorf("lens metadata missing")
	}
}

func TestExecute_Errors(t *testing.T) {
	d := newDispatcher()
	tests := []struct {
		name     string
		req      Request
		wantKind string
	}{
		{"unknown operation", Request{Operation: "explode"}, ErrorNotFound},
		{"missing param", Request{Operation: "analyze_class"}, ErrorInvalidParams},
		{"unknown type", Request{Operation: "analyze_class", Params: Params{"type_name": "Nope"}}, ErrorNotFound},
		{"bad format", Request{Operation: "analyze_class", Params: Params{"type_name": "Game.Player", "format": "svg"}}, ErrorInvalidParams},
		{"bad depth", Request{Operation: "analyze_class", Params: Params{"type_name": "Game.Player", "depth": "two"}}, ErrorInvalidParams},
		{"fractional depth", Request{Operation: "analyze_class", Params: Params{"type_name": "Game.Player", "depth": 1.5}}, ErrorInvalidParams},
		{"negative radius", Request{Operation: "analyze_class", Params: Params{"type_name": "Game.Player", "radius": -1}}, ErrorInvalidParams},
		{"bad symbol kind", Request{Operation: "find_references", Params: Params{"symbol_name": "Player", "symbol_kind": "banana"}}, ErrorInvalidParams},
		{"bad pattern", Request{Operation: "list_types", Params: Params{"name_pattern": "[a"}}, ErrorInvalidParams},
		{"wrong type", Request{Operation: "inspect_type", Params: Params{"type_name": 42}}, ErrorInvalidParams},
		{"unknown scene", Request{Operation: "find_orphans", Params: Params{"scene_path": "Assets/Nope.unity"}}, ErrorNotFound},
		{"unknown prefab", Request{Operation: "check_prefab", Params: Params{"prefab_path": "Assets/Nope.prefab"}}, ErrorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Execute(context.Background(), tt.req)
			if resp.Success {
				t.Fatalf("expected failure, got %v", resp.Result)
			}
			if resp.ErrorKind != tt.wantKind {
				t.Errorf("kind = %q, want %q (%s)", resp.ErrorKind, tt.wantKind, resp.Error)
			}
			if resp.Error == "" || resp.Operation != tt.req.Operation {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestExecute_NoProject(t *testing.T) {
	d := NewDispatcher(nil, DefaultOptions())
	resp := d.Execute(context.Background(), Request{Operation: "list_types"})
	if resp.Success || resp.ErrorKind != ErrorInternal {
		t.Errorf("response = %+v", resp)
	}

	d.SetSnapshot(gameSnapshot())
	if resp := d.Execute(context.Background(), Request{Operation: "list_types"}); !resp.Success {
		t.Errorf("list_types after SetSnapshot: %s", resp.Error)
	}
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := newDispatcher().Execute(ctx, Request{Operation: "list_types"})
	if resp.Success || !strings.Contains(resp.Error, "canceled") {
		t.Errorf("response = %+v", resp)
	}
}

func TestExecute_Integrity(t *testing.T) {
	d := newDispatcher()

	resp := d.Execute(context.Background(), Request{Operation: "find_all_issues", Params: Params{"format": "summary"}})
	if !resp.Success {
		t.Fatalf("find_all_issues: %s", resp.Error)
	}
	if resp.Format != "json" {
		t.Errorf("non-graph results are always json, got %q", resp.Format)
	}
	report, ok := resp.Result.(*integrity.Report)
	if !ok || report.IssueCount != 1 || report.Summary.Errors != 1 {
		t.Fatalf("report = %+v", resp.Result)
	}

	resp = d.Execute(context.Background(), Request{Operation: "remove_missing_scripts"})
	if !resp.Success {
		t.Fatalf("remove_missing_scripts: %s", resp.Error)
	}
	if removal := resp.Result.(*integrity.Removal); removal.Total != 1 {
		t.Errorf("removed %d, want 1", removal.Total)
	}

	resp = d.Execute(context.Background(), Request{Operation: "check_missing_scripts", Params: Params{"target": "Broken"}})
	if !resp.Success {
		t.Fatalf("check_missing_scripts: %s", resp.Error)
	}
	if r := resp.Result.(*integrity.Report); r.IssueCount != 0 || r.Target != "Broken" {
		t.Errorf("report after removal = %+v", r)
	}
}

func TestExecute_TargetDoesNotLeak(t *testing.T) {
	params := Params{"target": "Game.Player"}
	resp := newDispatcher().Execute(context.Background(), Request{Operation: "inspect_type", Params: params})
	if !resp.Success {
		t.Fatalf("inspect_type: %s", resp.Error)
	}
	if _, set := params["type_name"]; set {
		t.Errorf("caller params modified: %v", params)
	}
}

func TestExecute_Concurrent(t *testing.T) {
	d := newDispatcher()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				d.SetSnapshot(gameSnapshot())
				return
			}
			resp := d.Execute(context.Background(), Request{Operation: "list_types"})
			if !resp.Success {
				t.Errorf("list_types: %s", resp.Error)
			}
		}(i)
	}
	wg.Wait()
}

func TestOperations(t *testing.T) {
	ops := newDispatcher().Operations()
	if len(ops) != 29 {
		t.Errorf("operations = %d, want 29", len(ops))
	}
	for i := 1; i < len(ops); i++ {
		if ops[i-1] >= ops[i] {
			t.Errorf("operations not sorted at %q, %q", ops[i-1], ops[i])
		}
	}
}

func TestParams(t *testing.T) {
	p := Params{
		"name":    "  Player ",
		"flag":    "true",
		"json":    float64(3),
		"text":    "7",
		"typed":   true,
		"nothing": nil,
	}

	if s, err := p.String("name"); err != nil || s != "Player" {
		t.Errorf("String = %q, %v", s, err)
	}
	if _, err := p.RequiredString("missing"); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("RequiredString(missing) err = %v", err)
	}
	if b, err := p.Bool("flag", false); err != nil || !b {
		t.Errorf("Bool(flag) = %v, %v", b, err)
	}
	if b, err := p.Bool("nothing", true); err != nil || !b {
		t.Errorf("Bool(nothing) should default, got %v, %v", b, err)
	}
	if _, err := p.Bool("name", false); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Bool(name) err = %v", err)
	}

	got := map[string]int{}
	for _, key := range []string{"json", "text", "absent"} {
		n, err := p.Int(key, 5)
		if err != nil {
			t.Fatalf("Int(%s): %v", key, err)
		}
		got[key] = n
	}
	if diff := cmp.Diff(map[string]int{"json": 3, "text": 7, "absent": 5}, got); diff != "" {
		t.Errorf("Int mismatch (-want +got):\n%s", diff)
	}
	if _, err := p.Int("typed", 0); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Int(typed) err = %v", err)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{project.ErrNotFound, ErrorNotFound},
		{ErrInvalidParams, ErrorInvalidParams},
		{project.ErrInvalidArgument, ErrorInvalidParams},
		{errors.New("disk on fire"), ErrorInternal},
		{ErrNoProject, ErrorInternal},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
