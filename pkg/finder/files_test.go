package finder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestFindSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Scripts/Player.cs", "class Player {}")
	writeFile(t, root, "Assets/Scripts/Enemy.CS", "class Enemy {}")
	writeFile(t, root, "Assets/Scenes/Main.unity", "")
	writeFile(t, root, "Assets/Generated/Auto.cs", "")
	writeFile(t, root, "Library/Cache/Stale.cs", "")
	writeFile(t, root, "README.md", "")
	writeFile(t, root, ".gitignore", "Assets/Generated/\n")

	files, err := FindSourceFiles(root)
	if err != nil {
		t.Fatalf("FindSourceFiles() error = %v", err)
	}

	want := []string{"Assets/Scripts/Enemy.CS", "Assets/Scripts/Player.cs"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("FindSourceFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindSceneFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Scenes/Main.unity", "")
	writeFile(t, root, "Assets/Scenes/Menu.unity", "")
	writeFile(t, root, "Assets/Scenes/Menu.unity.meta", "")

	files, err := FindSceneFiles(root)
	if err != nil {
		t.Fatalf("FindSceneFiles() error = %v", err)
	}
	want := []string{"Assets/Scenes/Main.unity", "Assets/Scenes/Menu.unity"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("FindSceneFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestInScope(t *testing.T) {
	tests := []struct {
		path, scope string
		want        bool
	}{
		{"Assets/Scripts/Player.cs", "", true},
		{"Assets/Scripts/Player.cs", "Assets", true},
		{"Assets/Scripts/Player.cs", "Assets/Scripts/", true},
		{"Assets/ScriptsOld/Player.cs", "Assets/Scripts", false},
		{"Packages/Foo.cs", "Assets", false},
	}
	for _, tt := range tests {
		if got := InScope(tt.path, tt.scope); got != tt.want {
			t.Errorf("InScope(%q, %q) = %v, want %v", tt.path, tt.scope, got, tt.want)
		}
	}
}

func TestFindDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Scripts/Player.cs", "")
	writeFile(t, root, "Assets/Generated/Auto.cs", "")
	writeFile(t, root, "Library/Cache/Stale.cs", "")
	writeFile(t, root, "forge-snapshot/types.yaml", "")
	writeFile(t, root, ".gitignore", "Assets/Generated/\n")

	dirs, err := FindDirs(root)
	if err != nil {
		t.Fatalf("FindDirs() error = %v", err)
	}

	var rel []string
	for _, d := range dirs {
		r, err := filepath.Rel(root, d)
		if err != nil {
			t.Fatalf("Rel: %v", err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{".", "Assets", "Assets/Scripts", "forge-snapshot"}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Errorf("FindDirs() mismatch (-want +got):\n%s", diff)
	}
}
