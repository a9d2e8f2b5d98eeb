package project

import "errors"

// ErrNotFound is returned (wrapped) when a type, assembly, namespace, scene,
// object, prefab or script does not resolve.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument is returned (wrapped) for malformed query arguments such as
// an unknown symbol kind or a bad name pattern.
var ErrInvalidArgument = errors.New("invalid argument")

// SourceIndex gives read access to the project's source and scene files.
// Paths are project-relative with forward slashes.
type SourceIndex interface {
	// SourceFiles lists script files under scope; an empty scope means the whole project
	SourceFiles(scope string) ([]string, error)
	// ReadSource returns the content of a script file
	ReadSource(path string) (string, error)
	// SceneFiles lists every scene file of the project
	SceneFiles() ([]string, error)
}

// SceneProvider hands out loaded scene hierarchies
type SceneProvider interface {
	// ActiveScene returns the scene currently open in the editor
	ActiveScene() (*Scene, error)
	// OpenScene returns the scene stored at path, or ErrNotFound
	OpenScene(path string) (*Scene, error)
}

// PrefabLoader loads prefab assets into an editable context. Every
// successful load must be paired with UnloadPrefabContents.
type PrefabLoader interface {
	LoadPrefabContents(path string) (*Scene, error)
	UnloadPrefabContents(contents *Scene)
}

// BuildScene is one entry of the build manifest
type BuildScene struct {
	Path    string `yaml:"path" json:"path"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// BuildManifest is the ordered list of scenes in the build
type BuildManifest interface {
	BuildScenes() []BuildScene
}

// Asset is a loaded data asset, exposed as a generic field tree so analyzers
// can discover known shapes without a static type.
type Asset struct {
	Path   string         `yaml:"path" json:"path"`
	Type   string         `yaml:"type,omitempty" json:"type,omitempty"`
	Fields map[string]any `yaml:"fields" json:"fields"`
}

// AssetIndex enumerates loaded data assets
type AssetIndex interface {
	Assets() []*Asset
}

// Project bundles every collaborator an analysis may need
type Project interface {
	TypeUniverse
	SourceIndex
	SceneProvider
	PrefabLoader
	BuildManifest
	AssetIndex
}
