// Package scenerefs builds reference graphs between the objects of a scene:
// hierarchy, serialized object references and UI event bindings.
package scenerefs

import (
	"fmt"
	"log/slog"

	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
)

// Analyzer answers scene reference queries
type Analyzer struct {
	scenes project.SceneProvider
	log    *slog.Logger
}

// New creates an analyzer over the host's scenes
func New(scenes project.SceneProvider) *Analyzer {
	return &Analyzer{scenes: scenes, log: logging.New("analysis.scenerefs")}
}

// Scene opens the scene at scenePath, or the active scene when it is empty
func (a *Analyzer) Scene(scenePath string) (*project.Scene, error) {
	if scenePath == "" {
		return a.scenes.ActiveScene()
	}
	return a.scenes.OpenScene(project.NormalizePath(scenePath))
}

// AnalyzeScene builds the reference graph of a whole scene
func (a *Analyzer) AnalyzeScene(scenePath string, includeHierarchy, includeEvents bool) (*model.SceneReferenceGraph, error) {
	scene, err := a.Scene(scenePath)
	if err != nil {
		return nil, err
	}
	b := newBuilder(scene, includeHierarchy, includeEvents)
	for _, root := range scene.Roots {
		b.walk(root, true)
	}
	a.log.Debug("Scene analysis complete", "scene", scene.Path, "nodes", len(b.g.Nodes), "edges", len(b.g.Edges))
	return b.g, nil
}

// AnalyzeObject builds the reference graph of one object of the active scene
// and, with includeChildren, its subtree. References may point anywhere in
// the scene.
func (a *Analyzer) AnalyzeObject(objectPath string, includeChildren, includeEvents bool) (*model.SceneReferenceGraph, error) {
	scene, err := a.scenes.ActiveScene()
	if err != nil {
		return nil, err
	}
	obj, ok := scene.Find(objectPath)
	if !ok {
		return nil, fmt.Errorf("object %s in %s: %w", objectPath, scene.Path, project.ErrNotFound)
	}

	b := newBuilder(scene, includeChildren, includeEvents)
	b.walk(obj, includeChildren)
	b.g.Metadata["objectPath"] = obj.Path()
	return b.g, nil
}

// FindReferencesTo returns the edges of the active scene that point at the object
func (a *Analyzer) FindReferencesTo(objectPath string) (*model.SceneReferenceGraph, error) {
	return a.filterReferences(objectPath, func(e *model.GraphEdge, id string) bool { return e.Target == id })
}

// FindReferencesFrom returns the edges of the active scene that start at the object
func (a *Analyzer) FindReferencesFrom(objectPath string) (*model.SceneReferenceGraph, error) {
	return a.filterReferences(objectPath, func(e *model.GraphEdge, id string) bool { return e.Source == id })
}

func (a *Analyzer) filterReferences(objectPath string, keep func(*model.GraphEdge, string) bool) (*model.SceneReferenceGraph, error) {
	scene, err := a.scenes.ActiveScene()
	if err != nil {
		return nil, err
	}
	obj, ok := scene.Find(objectPath)
	if !ok {
		return nil, fmt.Errorf("object %s in %s: %w", objectPath, scene.Path, project.ErrNotFound)
	}
	full, err := a.AnalyzeScene(scene.Path, false, true)
	if err != nil {
		return nil, err
	}

	id := obj.Path()
	result := model.NewSceneReferenceGraph(scene.Path)
	result.Metadata["objectPath"] = id
	result.AddNode(full.GetNode(id))
	for _, e := range full.Edges {
		if !keep(e, id) {
			continue
		}
		result.AddNode(full.GetNode(e.Source))
		result.AddNode(full.GetNode(e.Target))
		result.AddEdge(e)
	}
	return result, nil
}

// FindOrphans lists the objects nothing references. Hierarchy is ignored;
// objects at the top of the hierarchy are never orphans.
func (a *Analyzer) FindOrphans(scenePath string) (*model.SceneReferenceGraph, error) {
	g, err := a.AnalyzeScene(scenePath, false, true)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, e := range g.Edges {
		referenced[e.Target] = true
	}
	orphans := []string{}
	for _, n := range g.Nodes {
		if referenced[n.ID] {
			continue
		}
		if isRoot, _ := n.Properties["isRoot"].(bool); isRoot {
			continue
		}
		orphans = append(orphans, n.ID)
	}
	g.Metadata[model.MetaOrphans] = orphans
	g.Metadata["orphanCount"] = len(orphans)
	return g, nil
}
