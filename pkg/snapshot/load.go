package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ritzau/forge-graph/pkg/finder"
	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/project"
)

// ExportDir is the directory inside a project where the editor exports its state
const ExportDir = "forge-snapshot"

type typesFile struct {
	Types []*project.TypeInfo `yaml:"types"`
}

type prefabFile struct {
	Path string               `yaml:"path"`
	Root *project.SceneObject `yaml:"root"`
}

type buildFile struct {
	Scenes []project.BuildScene `yaml:"scenes"`
}

// Load reads a project directory: exported state from forge-snapshot/ plus
// script and scene files found on disk. A missing export directory yields a
// snapshot with sources only.
func Load(root string) (*Snapshot, error) {
	log := logging.New("snapshot")

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project directory %s is not a directory", root)
	}

	s := New()
	s.Root = root

	if s.diskFiles, err = finder.FindSourceFiles(root); err != nil {
		return nil, fmt.Errorf("finding sources: %w", err)
	}
	if s.sceneFiles, err = finder.FindSceneFiles(root); err != nil {
		return nil, fmt.Errorf("finding scenes: %w", err)
	}

	export := filepath.Join(root, ExportDir)

	var types typesFile
	if ok, err := readYAML(filepath.Join(export, "types.yaml"), &types); err != nil {
		return nil, err
	} else if ok {
		s.AddTypes(types.Types...)
	}

	if err := loadDir(filepath.Join(export, "scenes"), func(path string) error {
		var scene project.Scene
		if _, err := readYAML(path, &scene); err != nil {
			return err
		}
		if scene.Path == "" {
			scene.Path = "Assets/Scenes/" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + finder.SceneExt
		}
		s.AddScene(&scene, scene.Active)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadDir(filepath.Join(export, "prefabs"), func(path string) error {
		var prefab prefabFile
		if _, err := readYAML(path, &prefab); err != nil {
			return err
		}
		if prefab.Root == nil {
			log.Warn("Skipping prefab without root", "file", path)
			return nil
		}
		if prefab.Path == "" {
			prefab.Path = "Assets/Prefabs/" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".prefab"
		}
		s.AddPrefab(prefab.Path, prefab.Root)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadDir(filepath.Join(export, "assets"), func(path string) error {
		var asset project.Asset
		if _, err := readYAML(path, &asset); err != nil {
			return err
		}
		if asset.Path == "" {
			asset.Path = "Assets/" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".asset"
		}
		s.AddAsset(&asset)
		return nil
	}); err != nil {
		return nil, err
	}

	var build buildFile
	if ok, err := readYAML(filepath.Join(export, "build.yaml"), &build); err != nil {
		return nil, err
	} else if ok {
		s.SetBuildScenes(build.Scenes...)
	}

	stats := s.Stats()
	log.Info("Loaded project snapshot",
		"root", root,
		"types", stats.Types,
		"sources", stats.Sources,
		"scenes", stats.Scenes,
		"prefabs", stats.Prefabs,
		"assets", stats.Assets)
	return s, nil
}

// readYAML decodes a file into v. A missing file reports false without error.
func readYAML(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// loadDir calls fn for every YAML file of dir in name order
func loadDir(dir string, fn func(path string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := fn(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Rescan returns a snapshot sharing the exported state of s with the script
// and scene file lists listed again from disk
func (s *Snapshot) Rescan() (*Snapshot, error) {
	if s.Root == "" {
		return s, nil
	}
	diskFiles, err := finder.FindSourceFiles(s.Root)
	if err != nil {
		return nil, fmt.Errorf("finding sources: %w", err)
	}
	sceneFiles, err := finder.FindSceneFiles(s.Root)
	if err != nil {
		return nil, fmt.Errorf("finding scenes: %w", err)
	}
	return &Snapshot{
		Root:         s.Root,
		projectTypes: s.projectTypes,
		builtinTypes: s.builtinTypes,
		byName:       s.byName,
		sources:      s.sources,
		diskFiles:    diskFiles,
		sceneFiles:   sceneFiles,
		scenes:       s.scenes,
		sceneOrder:   s.sceneOrder,
		activeScene:  s.activeScene,
		prefabs:      s.prefabs,
		assets:       s.assets,
		build:        s.build,
	}, nil
}
