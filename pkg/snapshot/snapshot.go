// Package snapshot holds an exported view of an editor project and serves
// it through the project collaborator interfaces.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ritzau/forge-graph/pkg/finder"
	"github.com/ritzau/forge-graph/pkg/project"
)

// Snapshot is an in-memory project model. Sources and scene files come from
// the project directory when Root is set; in-memory sources take precedence.
type Snapshot struct {
	Root string

	projectTypes []*project.TypeInfo
	builtinTypes []*project.TypeInfo
	byName       map[string]*project.TypeInfo

	sources    map[string]string
	diskFiles  []string
	sceneFiles []string

	scenes      map[string]*project.Scene
	sceneOrder  []string
	activeScene string

	prefabs map[string]*project.Scene
	assets  []*project.Asset
	build   []project.BuildScene

	mu         sync.Mutex
	openPrefab int
}

var _ project.Project = (*Snapshot)(nil)

// New creates an empty snapshot seeded with the builtin engine types
func New() *Snapshot {
	s := &Snapshot{
		byName:  make(map[string]*project.TypeInfo),
		sources: make(map[string]string),
		scenes:  make(map[string]*project.Scene),
		prefabs: make(map[string]*project.Scene),
	}
	for _, t := range project.BuiltinTypes() {
		s.builtinTypes = append(s.builtinTypes, t)
		s.byName[t.FullName] = t
	}
	return s
}

// AddTypes registers project types. A project type replaces a builtin of the same name.
func (s *Snapshot) AddTypes(types ...*project.TypeInfo) {
	for _, t := range types {
		if existing, ok := s.byName[t.FullName]; ok {
			if !existing.Builtin {
				continue
			}
			s.removeBuiltin(t.FullName)
		}
		s.byName[t.FullName] = t
		if t.Builtin {
			s.builtinTypes = append(s.builtinTypes, t)
		} else {
			s.projectTypes = append(s.projectTypes, t)
		}
	}
}

func (s *Snapshot) removeBuiltin(name string) {
	for i, t := range s.builtinTypes {
		if t.FullName == name {
			s.builtinTypes = append(s.builtinTypes[:i], s.builtinTypes[i+1:]...)
			return
		}
	}
}

// AddSource registers an in-memory script file
func (s *Snapshot) AddSource(path, text string) {
	s.sources[project.NormalizePath(path)] = text
}

// AddScene registers a loaded scene. The first scene added, or the last one
// added with active set, is the active scene.
func (s *Snapshot) AddScene(scene *project.Scene, active bool) {
	scene.Path = project.NormalizePath(scene.Path)
	scene.Link()
	if _, ok := s.scenes[scene.Path]; !ok {
		s.sceneOrder = append(s.sceneOrder, scene.Path)
	}
	s.scenes[scene.Path] = scene
	if active || s.activeScene == "" {
		s.activeScene = scene.Path
	}
	for path, sc := range s.scenes {
		sc.Active = path == s.activeScene
	}
}

// AddPrefab registers a prefab asset
func (s *Snapshot) AddPrefab(path string, root *project.SceneObject) {
	path = project.NormalizePath(path)
	s.prefabs[path] = project.NewScene(path, root)
}

// AddAsset registers a data asset
func (s *Snapshot) AddAsset(asset *project.Asset) {
	asset.Path = project.NormalizePath(asset.Path)
	s.assets = append(s.assets, asset)
}

// SetBuildScenes replaces the build manifest
func (s *Snapshot) SetBuildScenes(scenes ...project.BuildScene) {
	s.build = make([]project.BuildScene, len(scenes))
	for i, b := range scenes {
		s.build[i] = project.BuildScene{Path: project.NormalizePath(b.Path), Enabled: b.Enabled}
	}
}

// Types returns project types in registration order followed by builtins
func (s *Snapshot) Types() []*project.TypeInfo {
	out := make([]*project.TypeInfo, 0, len(s.projectTypes)+len(s.builtinTypes))
	out = append(out, s.projectTypes...)
	return append(out, s.builtinTypes...)
}

// Lookup resolves a type by full name
func (s *Snapshot) Lookup(fullName string) (*project.TypeInfo, bool) {
	t, ok := s.byName[fullName]
	return t, ok
}

// SourceFiles lists script files under scope
func (s *Snapshot) SourceFiles(scope string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range s.diskFiles {
		seen[p] = true
		files = append(files, p)
	}
	for p := range s.sources {
		if !seen[p] {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return finder.FilterScope(files, scope), nil
}

// ReadSource returns the text of a script file
func (s *Snapshot) ReadSource(path string) (string, error) {
	path = project.NormalizePath(path)
	if text, ok := s.sources[path]; ok {
		return text, nil
	}
	if s.Root == "" {
		return "", fmt.Errorf("source %s: %w", path, project.ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("source %s: %w", path, project.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading source %s: %w", path, err)
	}
	return string(data), nil
}

// SceneFiles lists scene files on disk plus every exported scene
func (s *Snapshot) SceneFiles() ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, p := range s.sceneFiles {
		add(p)
	}
	for _, p := range s.sceneOrder {
		add(p)
	}
	sort.Strings(files)
	return files, nil
}

// ActiveScene returns the active scene
func (s *Snapshot) ActiveScene() (*project.Scene, error) {
	if s.activeScene == "" {
		return nil, fmt.Errorf("active scene: %w", project.ErrNotFound)
	}
	return s.scenes[s.activeScene], nil
}

// OpenScene returns the exported hierarchy of a scene
func (s *Snapshot) OpenScene(path string) (*project.Scene, error) {
	path = project.NormalizePath(path)
	if scene, ok := s.scenes[path]; ok {
		return scene, nil
	}
	return nil, fmt.Errorf("scene %s: %w", path, project.ErrNotFound)
}

// LoadPrefabContents returns an editable copy of a prefab asset
func (s *Snapshot) LoadPrefabContents(path string) (*project.Scene, error) {
	path = project.NormalizePath(path)
	prefab, ok := s.prefabs[path]
	if !ok {
		return nil, fmt.Errorf("prefab %s: %w", path, project.ErrNotFound)
	}
	s.mu.Lock()
	s.openPrefab++
	s.mu.Unlock()
	return prefab.Clone(), nil
}

// UnloadPrefabContents releases an editable prefab copy
func (s *Snapshot) UnloadPrefabContents(contents *project.Scene) {
	if contents == nil {
		return
	}
	s.mu.Lock()
	s.openPrefab--
	s.mu.Unlock()
}

// OpenPrefabContexts returns the number of prefab copies not yet unloaded
func (s *Snapshot) OpenPrefabContexts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openPrefab
}

// BuildScenes returns the build manifest in order
func (s *Snapshot) BuildScenes() []project.BuildScene {
	return s.build
}

// Assets returns every loaded data asset
func (s *Snapshot) Assets() []*project.Asset {
	return s.assets
}

// Stats summarizes the snapshot for status reporting
type Stats struct {
	Root        string `json:"root"`
	Types       int    `json:"types"`
	Sources     int    `json:"sources"`
	Scenes      int    `json:"scenes"`
	ActiveScene string `json:"activeScene,omitempty"`
	Prefabs     int    `json:"prefabs"`
	Assets      int    `json:"assets"`
	BuildScenes int    `json:"buildScenes"`
}

// Stats returns counts of everything the snapshot holds
func (s *Snapshot) Stats() Stats {
	sources, _ := s.SourceFiles("")
	scenes, _ := s.SceneFiles()
	return Stats{
		Root:        s.Root,
		Types:       len(s.projectTypes),
		Sources:     len(sources),
		Scenes:      len(scenes),
		ActiveScene: s.activeScene,
		Prefabs:     len(s.prefabs),
		Assets:      len(s.assets),
		BuildScenes: len(s.build),
	}
}
