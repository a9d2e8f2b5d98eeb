// Package integrity runs read-only checks over scene and prefab object trees
// and reports severity-tagged issues. RemoveMissingScripts is the one
// operation with a write side effect.
package integrity

import (
	"fmt"
	"log/slog"

	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/project"
)

// Severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue types
const (
	IssueMissingScript = "missingScript"
	IssueNullReference = "nullReference"
	IssueBrokenEvent   = "brokenEvent"
	IssueBrokenPrefab  = "brokenPrefab"
	IssueTypeMismatch  = "typeMismatch"
)

// DefaultSuggestionLimit is the largest candidate list spelled out in a
// null reference suggestion
const DefaultSuggestionLimit = 5

// Issue is one integrity violation
type Issue struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Object     string `json:"object"`
	Component  string `json:"component,omitempty"`
	Property   string `json:"property,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// Summary counts issues by severity and type
type Summary struct {
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Info     int            `json:"info"`
	ByType   map[string]int `json:"byType"`
}

// Report is the result of one or more checks
type Report struct {
	Scene      string   `json:"scene"`
	Target     string   `json:"target,omitempty"`
	Checked    int      `json:"objectsChecked"`
	Issues     []Issue  `json:"issues"`
	IssueCount int      `json:"issueCount"`
	Summary    *Summary `json:"summary,omitempty"`
}

// Target selects the objects to check. An empty scene means the active
// scene; an empty object path means every object of the scene.
type Target struct {
	ScenePath       string
	ObjectPath      string
	IncludeChildren bool
}

// Host is what the checks read from the project
type Host interface {
	project.TypeUniverse
	project.SceneProvider
	project.PrefabLoader
}

// Analyzer runs integrity checks
type Analyzer struct {
	host            Host
	suggestionLimit int
	log             *slog.Logger
}

// New creates an analyzer over the host project
func New(host Host) *Analyzer {
	return &Analyzer{
		host:            host,
		suggestionLimit: DefaultSuggestionLimit,
		log:             logging.New("analysis.integrity"),
	}
}

// SetSuggestionLimit changes how many replacement candidates are listed by
// name. Larger candidate sets are reported as a count.
func (a *Analyzer) SetSuggestionLimit(n int) {
	if n > 0 {
		a.suggestionLimit = n
	}
}

// selection is a resolved Target
type selection struct {
	scene   *project.Scene
	objects []*project.SceneObject
	target  string
}

func (a *Analyzer) selectObjects(t Target) (*selection, error) {
	var scene *project.Scene
	var err error
	if t.ScenePath == "" {
		scene, err = a.host.ActiveScene()
	} else {
		scene, err = a.host.OpenScene(t.ScenePath)
	}
	if err != nil {
		return nil, err
	}

	sel := &selection{scene: scene, target: t.ObjectPath}
	if t.ObjectPath == "" {
		sel.objects = scene.Objects()
		return sel, nil
	}
	root, ok := scene.Find(t.ObjectPath)
	if !ok {
		return nil, fmt.Errorf("object %s in %s: %w", t.ObjectPath, scene.Path, project.ErrNotFound)
	}
	if !t.IncludeChildren {
		sel.objects = []*project.SceneObject{root}
		return sel, nil
	}
	root.Walk(func(o *project.SceneObject) bool {
		sel.objects = append(sel.objects, o)
		return true
	})
	return sel, nil
}

type check func(a *Analyzer, s *selection) []Issue

func (a *Analyzer) run(t Target, checks ...check) (*Report, error) {
	sel, err := a.selectObjects(t)
	if err != nil {
		return nil, err
	}
	return a.report(sel, checks...), nil
}

func (a *Analyzer) report(sel *selection, checks ...check) *Report {
	r := &Report{Scene: sel.scene.Path, Target: sel.target, Checked: len(sel.objects), Issues: []Issue{}}
	for _, c := range checks {
		r.Issues = append(r.Issues, c(a, sel)...)
	}
	r.IssueCount = len(r.Issues)
	return r
}

// CheckMissingScripts reports objects with unresolvable component slots
func (a *Analyzer) CheckMissingScripts(t Target) (*Report, error) {
	return a.run(t, missingScripts)
}

// CheckNullReferences reports object references to destroyed objects
func (a *Analyzer) CheckNullReferences(t Target) (*Report, error) {
	return a.run(t, nullReferences(false))
}

// CheckBrokenEvents reports event listeners with a null target or a method
// the target type does not declare
func (a *Analyzer) CheckBrokenEvents(t Target) (*Report, error) {
	return a.run(t, brokenEvents)
}

// CheckBrokenPrefabs reports prefab instances that lost or left their source
func (a *Analyzer) CheckBrokenPrefabs(t Target) (*Report, error) {
	return a.run(t, brokenPrefabs)
}

// CheckTypeMismatches reports references whose referent cannot be assigned
// to the declared field type
func (a *Analyzer) CheckTypeMismatches(t Target) (*Report, error) {
	return a.run(t, typeMismatches)
}

// FindAllIssues runs every check and summarizes the result. Null
// references carry replacement suggestions only here.
func (a *Analyzer) FindAllIssues(t Target) (*Report, error) {
	r, err := a.run(t, missingScripts, nullReferences(true), brokenEvents, brokenPrefabs, typeMismatches)
	if err != nil {
		return nil, err
	}
	r.Summary = summarize(r.Issues)
	a.log.Debug("Integrity checked", "scene", r.Scene, "objects", r.Checked, "issues", r.IssueCount)
	return r, nil
}

// CheckPrefab runs the missing script, null reference and broken event
// checks against a prefab asset. The editable copy is always unloaded.
func (a *Analyzer) CheckPrefab(prefabPath string) (*Report, error) {
	contents, err := a.host.LoadPrefabContents(prefabPath)
	if err != nil {
		return nil, err
	}
	defer a.host.UnloadPrefabContents(contents)

	sel := &selection{scene: contents, objects: contents.Objects()}
	r := a.report(sel, missingScripts, nullReferences(false), brokenEvents)
	r.Summary = summarize(r.Issues)
	return r, nil
}

// Removal lists what RemoveMissingScripts dropped
type Removal struct {
	Scene   string         `json:"scene"`
	Removed map[string]int `json:"removed"`
	Total   int            `json:"totalRemoved"`
}

// RemoveMissingScripts drops every missing script slot from the target
// objects. It mutates the loaded scene; callers serialize it against reads.
func (a *Analyzer) RemoveMissingScripts(t Target) (*Removal, error) {
	sel, err := a.selectObjects(t)
	if err != nil {
		return nil, err
	}
	r := &Removal{Scene: sel.scene.Path, Removed: make(map[string]int)}
	for _, o := range sel.objects {
		if n := sel.scene.RemoveMissingComponents(o); n > 0 {
			r.Removed[o.Path()] = n
			r.Total += n
		}
	}
	if r.Total > 0 {
		sel.scene.Link()
	}
	a.log.Info("Removed missing scripts", "scene", r.Scene, "objects", len(r.Removed), "total", r.Total)
	return r, nil
}

func summarize(issues []Issue) *Summary {
	s := &Summary{ByType: make(map[string]int)}
	for _, i := range issues {
		s.ByType[i.Type]++
		switch i.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Info++
		}
	}
	return s
}
