package classdeps

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ritzau/forge-graph/pkg/cycles"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/syntax"
)

// AnalyzeAssembly walks the dependencies of every type compiled into the
// named assembly. An assembly without types is not found.
func (a *Analyzer) AnalyzeAssembly(name string, depth int, includeBuiltins bool) (*model.ClassGraph, error) {
	var roots []*project.TypeInfo
	for _, t := range a.types.Types() {
		if t.Assembly == name {
			roots = append(roots, t)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("assembly %s: %w", name, project.ErrNotFound)
	}

	g := a.walkAll(a.types, name, roots, depth, includeBuiltins)
	g.Metadata["assembly"] = name
	g.Metadata["typeCount"] = len(roots)
	return g, nil
}

// AnalyzeNamespace walks the dependencies of every type in the namespace or
// below it. Types declared in sources but missing from the compiled universe
// are parsed and included. No match yields an empty graph.
func (a *Analyzer) AnalyzeNamespace(prefix string, depth int, includeBuiltins bool) (*model.ClassGraph, error) {
	universe := a.types
	if parsed := a.parseNamespaceSources(prefix); len(parsed) > 0 {
		universe = newOverlay(a.types, parsed)
	}

	var roots []*project.TypeInfo
	for _, t := range universe.Types() {
		if !t.Builtin && inNamespace(t.Namespace(), prefix) {
			roots = append(roots, t)
		}
	}

	g := a.walkAll(universe, prefix, roots, depth, includeBuiltins)
	g.Metadata["namespace"] = prefix
	g.Metadata["typeCount"] = len(roots)
	return g, nil
}

func (a *Analyzer) walkAll(universe project.TypeUniverse, target string, roots []*project.TypeInfo, depth int, includeBuiltins bool) *model.ClassGraph {
	depth = clampDepth(depth)
	g := model.NewClassGraph(model.GraphClassDependency, target, depth)
	tr := newTraversal(universe, a.markers, g.GraphResult, depth, includeBuiltins)
	for _, t := range roots {
		tr.visit(t, 0)
	}
	cycles.Annotate(g.GraphResult)
	a.log.Debug("Scope analysis complete", "target", target, "roots", len(roots),
		"nodes", len(g.Nodes), "edges", len(g.Edges))
	return g
}

func inNamespace(ns, prefix string) bool {
	return ns == prefix || strings.HasPrefix(ns, prefix+".")
}

// parseNamespaceSources turns source declarations under the namespace into
// type infos, skipping types the compiled universe already knows.
func (a *Analyzer) parseNamespaceSources(prefix string) []*project.TypeInfo {
	if a.sources == nil {
		return nil
	}
	paths, err := a.sources.SourceFiles("")
	if err != nil {
		a.log.Debug("Listing sources failed", "error", err)
		return nil
	}

	var parsed []*project.TypeInfo
	for _, p := range paths {
		text, err := a.sources.ReadSource(p)
		if err != nil {
			a.log.Debug("Skipping unreadable source", "file", p, "error", err)
			continue
		}
		info := syntax.ParseScript(p, text)
		if !inNamespace(info.Namespace, prefix) {
			continue
		}
		for _, decl := range info.Types {
			full := info.FullName(decl)
			if _, ok := a.types.Lookup(full); ok {
				continue
			}
			parsed = append(parsed, a.typeFromDecl(info, decl))
		}
	}
	return parsed
}

// typeFromDecl approximates a compiled type from its declaration. The first
// base that is not an interface becomes the base class.
func (a *Analyzer) typeFromDecl(info *syntax.ScriptInfo, decl syntax.TypeDecl) *project.TypeInfo {
	t := &project.TypeInfo{
		FullName:    info.FullName(decl),
		IsInterface: decl.Kind == "interface",
		IsEnum:      decl.Kind == "enum",
		IsValueType: decl.Kind == "struct" || decl.Kind == "record struct",
		SourceFile:  info.Path,
	}
	for _, m := range decl.Modifiers {
		switch m {
		case "abstract":
			t.IsAbstract = true
		case "sealed":
			t.IsSealed = true
		}
	}

	for i, b := range decl.BaseTypes {
		name := b
		if resolved, ok := project.Resolve(a.types, b); ok {
			name = resolved.FullName
		}
		if i == 0 && !t.IsInterface && !t.IsValueType && !a.isInterfaceName(b) {
			t.BaseType = name
			continue
		}
		t.Interfaces = append(t.Interfaces, name)
	}

	for _, f := range decl.Fields {
		t.Fields = append(t.Fields, project.FieldInfo{
			Name:       f.Name,
			Type:       f.Type,
			Access:     f.Access,
			Static:     hasWord(f.Modifiers, "static"),
			ReadOnly:   hasWord(f.Modifiers, "readonly"),
			Const:      hasWord(f.Modifiers, "const"),
			Attributes: f.Attributes,
		})
	}
	return t
}

// isInterfaceName asks the universe first and falls back to the I-prefix convention
func (a *Analyzer) isInterfaceName(name string) bool {
	if t, ok := project.Resolve(a.types, name); ok {
		return t.IsInterface
	}
	return looksLikeInterface(name)
}

func looksLikeInterface(name string) bool {
	simple := project.SimpleName(name)
	return len(simple) >= 2 && simple[0] == 'I' && unicode.IsUpper(rune(simple[1]))
}

func hasWord(words []string, want string) bool {
	for _, w := range words {
		if w == want {
			return true
		}
	}
	return false
}

// overlay extends a universe with parsed types
type overlay struct {
	base   project.TypeUniverse
	extra  []*project.TypeInfo
	byName map[string]*project.TypeInfo
}

func newOverlay(base project.TypeUniverse, extra []*project.TypeInfo) *overlay {
	o := &overlay{base: base, extra: extra, byName: make(map[string]*project.TypeInfo, len(extra))}
	for _, t := range extra {
		o.byName[t.FullName] = t
	}
	return o
}

func (o *overlay) Types() []*project.TypeInfo {
	return append(append([]*project.TypeInfo{}, o.extra...), o.base.Types()...)
}

func (o *overlay) Lookup(fullName string) (*project.TypeInfo, bool) {
	if t, ok := o.byName[fullName]; ok {
		return t, true
	}
	return o.base.Lookup(fullName)
}
