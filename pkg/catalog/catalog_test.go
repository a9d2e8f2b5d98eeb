package catalog

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

func newTestCatalog() *Catalog {
	s := snapshot.New()
	s.AddTypes(
		&project.TypeInfo{FullName: "Game.Character", BaseType: project.MonoBehaviourType, IsAbstract: true, SourceFile: "Assets/Scripts/Character.cs"},
		&project.TypeInfo{
			FullName:   "Game.Player",
			BaseType:   "Game.Character",
			Interfaces: []string{"Game.IDamageable"},
			Attributes: []string{"DisallowMultipleComponent"},
			SourceFile: "Assets/Scripts/Player.cs",
			Fields: []project.FieldInfo{
				{Name: "gun", Type: "Game.Weapon"},
				{Name: "MaxHealth", Type: "System.Int32", Access: "public", Const: true},
				{Name: "allies", Type: "System.Collections.Generic.List<Game.Player>", Access: "protected", ReadOnly: true},
			},
			Methods: []project.MethodInfo{
				{Name: "TakeDamage", ReturnType: "System.Void", Access: "public", Virtual: true,
					Parameters: []project.ParameterInfo{{Name: "amount", Type: "System.Single"}}},
			},
			Properties: []project.PropertyInfo{
				{Name: "Health", Type: "System.Int32", Access: "public", CanRead: true},
			},
		},
		&project.TypeInfo{FullName: "Game.IDamageable", IsInterface: true, SourceFile: "Assets/Scripts/IDamageable.cs"},
		&project.TypeInfo{FullName: "Game.Weapon", SourceFile: "Assets/Scripts/Items/Weapon.cs"},
		&project.TypeInfo{FullName: "Game.Data.ItemData", BaseType: project.ScriptableObjectType, SourceFile: "Assets/Data/ItemData.cs"},
		&project.TypeInfo{FullName: "Game.Data.Rarity", IsEnum: true, SourceFile: "Assets/Data/Rarity.cs"},
		&project.TypeInfo{FullName: "Game.Data.Stats", IsValueType: true, SourceFile: "Assets/Data/Stats.cs"},
	)
	return New(s, Markers{})
}

func names(r *ListResult) []string {
	var out []string
	for _, t := range r.Types {
		out = append(out, t.FullName)
	}
	return out
}

func TestKindClassification(t *testing.T) {
	c := newTestCatalog()
	tests := map[string]string{
		"Game.Player":        "MonoBehaviour",
		"Game.Character":     "MonoBehaviour",
		"Game.IDamageable":   "interface",
		"Game.Weapon":        "class",
		"Game.Data.ItemData": "ScriptableObject",
		"Game.Data.Rarity":   "enum",
		"Game.Data.Stats":    "struct",
	}
	for name, want := range tests {
		typ, _ := c.types.Lookup(name)
		if got := c.Kind(typ); got != want {
			t.Errorf("Kind(%s) = %s, want %s", name, got, want)
		}
	}
}

func TestListTypes(t *testing.T) {
	c := newTestCatalog()

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{
			name: "all project types",
			opts: ListOptions{},
			want: []string{"Game.Character", "Game.Data.ItemData", "Game.Data.Rarity", "Game.Data.Stats",
				"Game.IDamageable", "Game.Player", "Game.Weapon"},
		},
		{
			name: "scope",
			opts: ListOptions{SearchScope: "Assets/Scripts/Items"},
			want: []string{"Game.Weapon"},
		},
		{
			name: "kind",
			opts: ListOptions{TypeKind: "monobehaviour"},
			want: []string{"Game.Character", "Game.Player"},
		},
		{
			name: "namespace",
			opts: ListOptions{NamespaceFilter: "Game.Data"},
			want: []string{"Game.Data.ItemData", "Game.Data.Rarity", "Game.Data.Stats"},
		},
		{
			name: "base class by simple name",
			opts: ListOptions{BaseClassFilter: "Character"},
			want: []string{"Game.Player"},
		},
		{
			name: "conjunctive filters",
			opts: ListOptions{NamespaceFilter: "Game", NamePattern: "*a?er"},
			want: []string{"Game.Player"},
		},
		{
			name: "pattern",
			opts: ListOptions{NamePattern: "I*"},
			want: []string{"Game.Data.ItemData", "Game.IDamageable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := c.ListTypes(tt.opts)
			if err != nil {
				t.Fatalf("ListTypes() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, names(r)); diff != "" {
				t.Errorf("ListTypes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListTypes_MaxResults(t *testing.T) {
	c := newTestCatalog()

	r, err := c.ListTypes(ListOptions{MaxResults: 2})
	if err != nil {
		t.Fatalf("ListTypes() error = %v", err)
	}
	if r.Count != 2 || !r.Truncated {
		t.Errorf("Expected 2 truncated results, got %d truncated=%v", r.Count, r.Truncated)
	}

	for in, want := range map[int]int{0: 100, -5: 1, 1: 1, 5000: 1000, 250: 250} {
		if got := ClampMaxResults(in); got != want {
			t.Errorf("ClampMaxResults(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestListTypes_InvalidPattern(t *testing.T) {
	c := newTestCatalog()
	if _, err := c.ListTypes(ListOptions{NamePattern: "[abc"}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestInspectType(t *testing.T) {
	c := newTestCatalog()

	d, err := c.InspectType("Player", InspectOptions{IncludeFields: true, IncludeMethods: true, IncludeProperties: true})
	if err != nil {
		t.Fatalf("InspectType() error = %v", err)
	}
	if d.FullName != "Game.Player" || d.Kind != "MonoBehaviour" || d.File != "Assets/Scripts/Player.cs" {
		t.Errorf("Unexpected details: %+v", d)
	}

	wantDecls := []string{
		"private Weapon gun",
		"public const int MaxHealth",
		"protected readonly List<Player> allies",
	}
	var decls []string
	for _, f := range d.Fields {
		decls = append(decls, f.Declaration)
	}
	if diff := cmp.Diff(wantDecls, decls); diff != "" {
		t.Errorf("Field declarations mismatch (-want +got):\n%s", diff)
	}

	if got := d.Methods[0].Signature; got != "public virtual void TakeDamage(float amount)" {
		t.Errorf("Method signature = %q", got)
	}
	if p := d.Properties[0]; p.Type != "int" || !p.CanRead || p.CanWrite {
		t.Errorf("Unexpected property: %+v", p)
	}

	bare, _ := c.InspectType("Game.Player", InspectOptions{})
	if bare.Fields != nil || bare.Methods != nil || bare.Properties != nil {
		t.Error("Member lists should be omitted when not requested")
	}
}

func TestInspectType_NotFound(t *testing.T) {
	c := newTestCatalog()
	_, err := c.InspectType("Nope", InspectOptions{})
	if !errors.Is(err, project.ErrNotFound) {
		t.Errorf("InspectType() error = %v, want ErrNotFound", err)
	}
}

func TestCustomMarkers(t *testing.T) {
	s := snapshot.New()
	s.AddTypes(
		&project.TypeInfo{FullName: "Engine.Node"},
		&project.TypeInfo{FullName: "Game.Door", BaseType: "Engine.Node"},
	)
	c := New(s, Markers{ComponentBase: "Engine.Node"})

	door, _ := s.Lookup("Game.Door")
	if got := c.Kind(door); got != "MonoBehaviour" {
		t.Errorf("Kind(Door) = %s, want MonoBehaviour via custom marker", got)
	}
	if c.markers.AssetBase != project.ScriptableObjectType {
		t.Errorf("AssetBase default = %s", c.markers.AssetBase)
	}
}
