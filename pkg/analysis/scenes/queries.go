package scenes

import (
	"fmt"
	"sort"

	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
)

// Build issue types
const (
	IssueMissingFromBuild = "missing_from_build"
	IssueDisabledInBuild  = "disabled_in_build"
)

// AnalyzeScene returns the transitions into and out of one scene
func (a *Analyzer) AnalyzeScene(scenePath string) (*model.SceneRelationshipGraph, error) {
	return a.filter(scenePath, func(e *model.GraphEdge, id string) bool {
		return e.Source == id || e.Target == id
	})
}

// FindTransitionsFrom returns the transitions leaving a scene
func (a *Analyzer) FindTransitionsFrom(scenePath string) (*model.SceneRelationshipGraph, error) {
	return a.filter(scenePath, func(e *model.GraphEdge, id string) bool { return e.Source == id })
}

// FindTransitionsTo returns the transitions entering a scene
func (a *Analyzer) FindTransitionsTo(scenePath string) (*model.SceneRelationshipGraph, error) {
	return a.filter(scenePath, func(e *model.GraphEdge, id string) bool { return e.Target == id })
}

func (a *Analyzer) filter(scenePath string, keep func(*model.GraphEdge, string) bool) (*model.SceneRelationshipGraph, error) {
	full, err := a.AnalyzeAll()
	if err != nil {
		return nil, err
	}
	id, ok := lookupScene(full.GraphResult, scenePath)
	if !ok {
		return nil, fmt.Errorf("scene %s: %w", scenePath, project.ErrNotFound)
	}

	g := model.NewSceneRelationshipGraph()
	for k, v := range full.Metadata {
		g.Metadata[k] = v
	}
	g.Metadata["scene"] = id
	g.AddNode(full.GetNode(id))
	for _, e := range full.Edges {
		if !keep(e, id) {
			continue
		}
		g.AddNode(full.GetNode(e.Source))
		g.AddNode(full.GetNode(e.Target))
		g.AddEdge(e)
	}
	return g, nil
}

// lookupScene accepts a scene path or a bare scene name
func lookupScene(g *model.GraphResult, ref string) (string, bool) {
	p := project.NormalizePath(ref)
	if n := g.GetNode(p); n != nil && n.Type == model.NodeScene {
		return p, true
	}
	for _, n := range g.Nodes {
		if n.Type == model.NodeScene && project.SceneName(n.ID) == ref {
			return n.ID, true
		}
	}
	return "", false
}

// BuildIssue is a transition target the build cannot load
type BuildIssue struct {
	Type         string   `json:"type"`
	Scene        string   `json:"scene"`
	Message      string   `json:"message"`
	ReferencedBy []string `json:"referencedBy"`
}

// BuildValidation is the outcome of ValidateBuildSettings
type BuildValidation struct {
	IsValid            bool         `json:"isValid"`
	IssueCount         int          `json:"issueCount"`
	Issues             []BuildIssue `json:"issues"`
	BuildOrder         []string     `json:"buildOrder"`
	UnregisteredScenes []string     `json:"unregisteredScenes"`
}

// ValidateBuildSettings reports every transition target that is not an
// enabled build scene: each such scene gets exactly one issue, either
// disabled_in_build or missing_from_build.
func (a *Analyzer) ValidateBuildSettings() (*BuildValidation, error) {
	g, err := a.AnalyzeAll()
	if err != nil {
		return nil, err
	}
	manifest := make(map[string]bool)
	for _, b := range a.host.BuildScenes() {
		manifest[b.Path] = b.Enabled
	}

	referencedBy := make(map[string][]string)
	var targets []string
	for _, e := range g.Edges {
		if _, seen := referencedBy[e.Target]; !seen {
			targets = append(targets, e.Target)
		}
		if !contains(referencedBy[e.Target], e.Source) {
			referencedBy[e.Target] = append(referencedBy[e.Target], e.Source)
		}
	}

	v := &BuildValidation{
		Issues:             []BuildIssue{},
		BuildOrder:         g.BuildOrder(),
		UnregisteredScenes: g.UnregisteredScenes(),
	}
	for _, target := range targets {
		enabled, registered := manifest[target]
		if enabled {
			continue
		}
		refs := referencedBy[target]
		sort.Strings(refs)
		issue := BuildIssue{Scene: target, ReferencedBy: refs}
		if registered {
			issue.Type = IssueDisabledInBuild
			issue.Message = fmt.Sprintf("Scene %s is loaded but disabled in the build settings", target)
		} else {
			issue.Type = IssueMissingFromBuild
			issue.Message = fmt.Sprintf("Scene %s is loaded but not in the build settings", target)
		}
		v.Issues = append(v.Issues, issue)
	}
	v.IssueCount = len(v.Issues)
	v.IsValid = v.IssueCount == 0
	return v, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
