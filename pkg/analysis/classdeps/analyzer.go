// Package classdeps builds class dependency graphs: what a type depends on
// through inheritance, interfaces, fields and required components, and which
// types depend on it.
package classdeps

import (
	"fmt"
	"log/slog"

	"github.com/ritzau/forge-graph/pkg/catalog"
	"github.com/ritzau/forge-graph/pkg/cycles"
	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
)

// MaxDepth bounds every traversal regardless of the requested depth
const MaxDepth = 10

// Analyzer answers class dependency queries
type Analyzer struct {
	types   project.TypeUniverse
	sources project.SourceIndex
	markers catalog.Markers
	log     *slog.Logger
}

// New creates an analyzer. Sources are only read by FindDependents and AnalyzeNamespace.
func New(types project.TypeUniverse, sources project.SourceIndex, markers catalog.Markers) *Analyzer {
	return &Analyzer{
		types:   types,
		sources: sources,
		markers: markers,
		log:     logging.New("analysis.classdeps"),
	}
}

// AnalyzeClass returns the types name depends on, up to depth hops away.
// Builtin types are left out unless includeBuiltins is set.
func (a *Analyzer) AnalyzeClass(name string, depth int, includeBuiltins bool) (*model.ClassGraph, error) {
	t, ok := project.Resolve(a.types, name)
	if !ok {
		return nil, fmt.Errorf("type %s: %w", name, project.ErrNotFound)
	}

	depth = clampDepth(depth)
	g := model.NewClassGraph(model.GraphClassDependency, t.FullName, depth)
	tr := newTraversal(a.types, a.markers, g.GraphResult, depth, includeBuiltins)
	tr.visit(t, 0)

	cycles.Annotate(g.GraphResult)
	a.log.Debug("Class analysis complete", "target", t.FullName, "depth", depth,
		"nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// FindDependencies is AnalyzeClass under the name clients look for
func (a *Analyzer) FindDependencies(name string, depth int, includeBuiltins bool) (*model.ClassGraph, error) {
	return a.AnalyzeClass(name, depth, includeBuiltins)
}

func clampDepth(depth int) int {
	return max(0, min(depth, MaxDepth))
}

type edgeKey struct {
	source, target, relation, discriminator string
}

// traversal holds the per-query state of a depth-bounded walk
type traversal struct {
	types           project.TypeUniverse
	catalog         *catalog.Catalog
	g               *model.GraphResult
	maxDepth        int
	includeBuiltins bool

	// shallowest depth each type was expanded at
	expanded map[string]int
	edges    map[edgeKey]bool
}

func newTraversal(types project.TypeUniverse, markers catalog.Markers, g *model.GraphResult, maxDepth int, includeBuiltins bool) *traversal {
	return &traversal{
		types:           types,
		catalog:         catalog.New(types, markers),
		g:               g,
		maxDepth:        maxDepth,
		includeBuiltins: includeBuiltins,
		expanded:        make(map[string]int),
		edges:           make(map[edgeKey]bool),
	}
}

// visit adds t and, while below the depth bound, its outgoing dependencies.
// A type reached again at a shallower depth is expanded again so that the
// bound is measured along the shortest path.
func (tr *traversal) visit(t *project.TypeInfo, depth int) {
	tr.addTypeNode(t)
	if d, ok := tr.expanded[t.FullName]; ok && d <= depth {
		return
	}
	tr.expanded[t.FullName] = depth
	if depth >= tr.maxDepth {
		return
	}

	inherited := make(map[string]bool)
	if t.BaseType != "" {
		tr.link(t, t.BaseType, model.RelationInherits, "", nil, depth)
		if base, ok := project.Resolve(tr.types, t.BaseType); ok {
			for _, iface := range project.AllInterfaces(tr.types, base) {
				inherited[iface] = true
			}
		}
	}

	for _, iface := range t.Interfaces {
		if inherited[iface] {
			continue
		}
		tr.link(t, iface, model.RelationImplements, "", nil, depth)
	}

	for _, f := range t.Fields {
		if f.Const {
			continue
		}
		target, ok := project.ParseTypeRef(f.Type).Unwrap(tr.includeBuiltins, tr.isBuiltin)
		if !ok || target == t.FullName || target == t.Name() {
			continue
		}
		tr.link(t, target, model.RelationFieldReference, f.Name, map[string]any{
			"fieldName":   f.Name,
			"declaration": catalog.FieldDeclaration(f),
		}, depth)
	}

	for _, marker := range t.Requires {
		for i, required := range marker {
			if i == 3 {
				break
			}
			tr.link(t, required, model.RelationRequiresComponent, "", nil, depth)
		}
	}
}

func (tr *traversal) isBuiltin(name string) bool {
	return project.IsBuiltin(tr.types, name)
}

// link records an edge from t to the named type and continues the walk there
func (tr *traversal) link(t *project.TypeInfo, targetName, relation, discriminator string, details map[string]any, depth int) {
	target, resolved := project.Resolve(tr.types, targetName)
	targetID := targetName
	if resolved {
		targetID = target.FullName
	}
	if targetID == t.FullName {
		return
	}
	if !tr.includeBuiltins && (resolved && target.Builtin || !resolved && tr.isBuiltin(targetName)) {
		return
	}

	if resolved {
		tr.addTypeNode(target)
	} else {
		tr.addExternalNode(targetID)
	}

	key := edgeKey{t.FullName, targetID, relation, discriminator}
	if !tr.edges[key] {
		tr.edges[key] = true
		edge := model.NewEdge(t.FullName, targetID, relation)
		for k, v := range details {
			edge.Details[k] = v
		}
		tr.g.AddEdge(edge)
	}

	if resolved {
		tr.visit(target, depth+1)
	}
}

func (tr *traversal) addTypeNode(t *project.TypeInfo) {
	if tr.g.HasNode(t.FullName) {
		return
	}
	kind := tr.catalog.Kind(t)
	if t.Builtin {
		kind = model.NodeBuiltin
	}
	node := model.NewNode(t.FullName, kind)
	node.Properties["name"] = t.Name()
	if ns := t.Namespace(); ns != "" {
		node.Properties["namespace"] = ns
	}
	if t.Assembly != "" {
		node.Properties["assembly"] = t.Assembly
	}
	if t.SourceFile != "" {
		node.Properties["file"] = t.SourceFile
	}
	if t.IsAbstract && !t.IsInterface {
		node.Properties["abstract"] = true
	}
	tr.g.AddNode(node)
}

func (tr *traversal) addExternalNode(name string) {
	kind := model.NodeExternal
	if tr.isBuiltin(name) {
		kind = model.NodeBuiltin
	}
	node := model.NewNode(name, kind)
	node.Properties["name"] = project.SimpleName(name)
	tr.g.AddNode(node)
}
