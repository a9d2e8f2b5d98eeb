package integrity

import (
	"fmt"
	"strings"

	"github.com/ritzau/forge-graph/pkg/project"
)

func missingScripts(_ *Analyzer, s *selection) []Issue {
	var issues []Issue
	for _, o := range s.objects {
		n := 0
		for _, c := range o.Components {
			if c.Missing {
				n++
			}
		}
		if n == 0 {
			continue
		}
		issues = append(issues, Issue{
			Type:       IssueMissingScript,
			Severity:   SeverityError,
			Object:     o.Path(),
			Message:    fmt.Sprintf("%d missing script(s)", n),
			Suggestion: "Remove the missing script components or restore the script files",
			Count:      n,
		})
	}
	return issues
}

// nullReferences reports non-zero reference tokens that resolve to nothing.
// A zero token is a field that was never assigned and is not reported.
func nullReferences(suggest bool) check {
	return func(a *Analyzer, s *selection) []Issue {
		var issues []Issue
		eachProperty(s, func(o *project.SceneObject, c *project.Component, field string, p *project.Property) {
			if p.Kind != project.PropertyObjectReference || p.Reference == 0 {
				return
			}
			if _, ok := s.scene.Resolve(p.Reference); ok {
				return
			}
			issue := Issue{
				Type:      IssueNullReference,
				Severity:  SeverityWarning,
				Object:    o.Path(),
				Component: c.Type,
				Property:  field,
				Message:   fmt.Sprintf("Field '%s' references a destroyed object", field),
			}
			if suggest {
				issue.Suggestion = a.suggestReplacement(s.scene, p.Type)
			}
			issues = append(issues, issue)
		})
		return issues
	}
}

// suggestReplacement lists live objects or components that could fill a
// reference of the expected type
func (a *Analyzer) suggestReplacement(scene *project.Scene, expected string) string {
	if expected == "" {
		return ""
	}
	var candidates []string
	for _, o := range scene.Objects() {
		if expected == project.GameObjectType {
			candidates = append(candidates, o.Path())
			continue
		}
		for _, c := range o.Components {
			if !c.Missing && project.IsAssignable(a.host, c.Type, expected) {
				candidates = append(candidates, o.Path())
				break
			}
		}
	}
	name := project.FriendlyName(expected)
	switch {
	case len(candidates) == 0:
		return ""
	case len(candidates) > a.suggestionLimit:
		return fmt.Sprintf("%d objects with %s found in the scene", len(candidates), name)
	}
	return fmt.Sprintf("Candidates with %s: %s", name, strings.Join(candidates, ", "))
}

func brokenEvents(a *Analyzer, s *selection) []Issue {
	var issues []Issue
	eachProperty(s, func(o *project.SceneObject, c *project.Component, field string, p *project.Property) {
		if p.Kind != project.PropertyEvent {
			return
		}
		for i, l := range p.Listeners {
			issue := Issue{
				Type:      IssueBrokenEvent,
				Severity:  SeverityError,
				Object:    o.Path(),
				Component: c.Type,
				Property:  fmt.Sprintf("%s[%d]", field, i),
			}
			ref, ok := s.scene.Resolve(l.Target)
			if !ok {
				issue.Message = fmt.Sprintf("Listener %d of '%s' has no target", i, field)
				issue.Suggestion = "Assign a target object or remove the listener"
				issues = append(issues, issue)
				continue
			}
			if l.Method == "" {
				issue.Message = fmt.Sprintf("Listener %d of '%s' has no method", i, field)
				issues = append(issues, issue)
				continue
			}
			// Types the universe does not know cannot be checked
			t, ok := a.host.Lookup(ref.TypeName())
			if !ok || project.FindMember(a.host, t, l.Method) {
				continue
			}
			issue.Message = fmt.Sprintf("%s has no method or setter '%s'", project.FriendlyName(t.FullName), l.Method)
			issue.Suggestion = fmt.Sprintf("Rebind the listener on %s", ref.Owner().Path())
			issues = append(issues, issue)
		}
	})
	return issues
}

func brokenPrefabs(_ *Analyzer, s *selection) []Issue {
	var issues []Issue
	for _, o := range s.objects {
		if o.Prefab == nil {
			continue
		}
		switch o.Prefab.Status {
		case project.PrefabMissingAsset:
			issues = append(issues, Issue{
				Type:       IssueBrokenPrefab,
				Severity:   SeverityError,
				Object:     o.Path(),
				Message:    fmt.Sprintf("Prefab asset %s is missing", o.Prefab.Source),
				Suggestion: "Restore the prefab asset or unpack the instance",
			})
		case project.PrefabDisconnected:
			issues = append(issues, Issue{
				Type:       IssueBrokenPrefab,
				Severity:   SeverityWarning,
				Object:     o.Path(),
				Message:    fmt.Sprintf("Instance is disconnected from %s", o.Prefab.Source),
				Suggestion: "Revert or reconnect the prefab instance",
			})
		}
	}
	return issues
}

// typeMismatches only checks references where both the declared field type
// and the referent's type are known to the universe
func typeMismatches(a *Analyzer, s *selection) []Issue {
	var issues []Issue
	eachProperty(s, func(o *project.SceneObject, c *project.Component, field string, p *project.Property) {
		if p.Kind != project.PropertyObjectReference || p.Type == "" {
			return
		}
		ref, ok := s.scene.Resolve(p.Reference)
		if !ok {
			return
		}
		if _, known := a.host.Lookup(p.Type); !known {
			return
		}
		actual := ref.TypeName()
		if _, known := a.host.Lookup(actual); !known && actual != project.GameObjectType {
			return
		}
		if project.IsAssignable(a.host, actual, p.Type) {
			return
		}
		issues = append(issues, Issue{
			Type:      IssueTypeMismatch,
			Severity:  SeverityWarning,
			Object:    o.Path(),
			Component: c.Type,
			Property:  field,
			Message: fmt.Sprintf("Field '%s' expects %s but references %s",
				field, project.FriendlyName(p.Type), project.FriendlyName(actual)),
		})
	})
	return issues
}

func eachProperty(s *selection, fn func(*project.SceneObject, *project.Component, string, *project.Property)) {
	for _, o := range s.objects {
		for _, c := range o.Components {
			if c.Missing {
				continue
			}
			project.WalkProperties(c.Properties, func(field string, p *project.Property) {
				fn(o, c, field, p)
			})
		}
	}
}
