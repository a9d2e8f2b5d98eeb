package classdeps

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ritzau/forge-graph/pkg/cycles"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/syntax"
)

type dependentPatterns struct {
	field     *regexp.Regexp
	baseList  *regexp.Regexp
	attribute *regexp.Regexp
}

func newDependentPatterns(simple string) dependentPatterns {
	name := regexp.QuoteMeta(simple)
	return dependentPatterns{
		// [attrs] mods Type name; | Type[] name = ...; | List<Type> name;
		field: regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*(?:(?:public|private|protected|internal|static|readonly|new)\s+)*` +
			`(?:[\w.]+\s*<[^;=()\n]*\b` + name + `\b[^;=()\n]*>|(?:[\w.]+\.)?` + name + `\??(?:\[[,\s]*\])*)\s+(\w+)\s*[;=]`),
		// header through "{": the base list may span lines, constraints are cut off
		baseList: regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*(?:(?:public|private|protected|internal|static|abstract|sealed|partial|readonly|unsafe|new|ref)\s+)*` +
			`(?:class|struct|interface|record(?:\s+struct|\s+class)?)\s+(\w+)(?:\s*<[^{;:]*?>)?(?:\s*\([^)]*\))?\s*:\s*([^{;]*?)\s*(?:\bwhere\b[^{;]*)?\{`),
		attribute: regexp.MustCompile(`\[\s*RequireComponent\s*\(([^\]]*)\)\s*\]`),
	}
}

// FindDependents scans every source file for types that reference name
// through a field, their base list or a required-component attribute.
// Unknown names are matched textually rather than rejected.
func (a *Analyzer) FindDependents(name string) (*model.ClassGraph, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("type name is required: %w", project.ErrInvalidArgument)
	}
	simple := project.SimpleName(name)
	targetID := name
	target, resolved := project.Resolve(a.types, name)
	if resolved {
		targetID = target.FullName
	}

	g := model.NewClassGraph(model.GraphClassDependents, targetID, 0)
	tr := newTraversal(a.types, a.markers, g.GraphResult, 0, true)
	if resolved {
		tr.addTypeNode(target)
	} else {
		tr.addExternalNode(targetID)
	}

	paths, err := a.sources.SourceFiles("")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	pats := newDependentPatterns(simple)
	typeofTarget := regexp.MustCompile(`typeof\s*\(\s*(?:[\w.]+\.)?` + regexp.QuoteMeta(simple) + `\s*\)`)
	word := regexp.MustCompile(`\b` + regexp.QuoteMeta(simple) + `\b`)
	relation := model.RelationInherits
	if a.isInterfaceName(name) {
		relation = model.RelationImplements
	}

	for _, p := range paths {
		raw, err := a.sources.ReadSource(p)
		if err != nil {
			a.log.Debug("Skipping unreadable source", "file", p, "error", err)
			continue
		}
		text := syntax.StripCommentsAndStrings(raw)
		if !word.MatchString(text) {
			continue
		}
		info := syntax.ParseScript(p, raw)
		lines := newLineIndex(text)

		for _, m := range pats.field.FindAllStringSubmatchIndex(text, -1) {
			line := lines.line(m[2])
			decl, ok := enclosingType(info, line)
			if !ok {
				continue
			}
			fieldName := text[m[2]:m[3]]
			if !declaresField(decl, fieldName) {
				// a local variable, not a field
				continue
			}
			tr.dependent(info, decl, targetID, model.RelationFieldReference, fieldName, map[string]any{
				"fieldName": fieldName,
				"file":      p,
				"line":      line,
			})
		}

		for _, m := range pats.baseList.FindAllStringSubmatchIndex(text, -1) {
			bases := text[m[4]:m[5]]
			if !word.MatchString(bases) {
				continue
			}
			line := lines.line(m[2])
			decl, ok := declaredAt(info, text[m[2]:m[3]], line)
			if !ok {
				continue
			}
			tr.dependent(info, decl, targetID, relation, "", map[string]any{"file": p, "line": line})
		}

		for _, m := range pats.attribute.FindAllStringSubmatchIndex(text, -1) {
			if !typeofTarget.MatchString(text[m[2]:m[3]]) {
				continue
			}
			line := lines.line(m[0])
			decl, ok := followingType(info, line)
			if !ok {
				continue
			}
			tr.dependent(info, decl, targetID, model.RelationRequiresComponent, "", map[string]any{"file": p, "line": line})
		}
	}

	cycles.Annotate(g.GraphResult)
	g.Metadata["dependentCount"] = len(g.Nodes) - 1
	a.log.Debug("Dependents scan complete", "target", targetID, "files", len(paths), "dependents", len(g.Nodes)-1)
	return g, nil
}

// dependent records an edge from a declared type to the target
func (tr *traversal) dependent(info *syntax.ScriptInfo, decl syntax.TypeDecl, targetID, relation, discriminator string, details map[string]any) {
	sourceID := info.FullName(decl)
	if sourceID == targetID || !strings.Contains(targetID, ".") && decl.Name == targetID {
		return
	}

	if t, ok := tr.types.Lookup(sourceID); ok {
		tr.addTypeNode(t)
	} else {
		kind := model.NodeClass
		switch decl.Kind {
		case "interface":
			kind = model.NodeInterface
		case "struct", "record struct":
			kind = model.NodeStruct
		case "enum":
			kind = model.NodeEnum
		}
		node := model.NewNode(sourceID, kind)
		node.Properties["name"] = decl.Name
		node.Properties["file"] = info.Path
		tr.g.AddNode(node)
	}

	key := edgeKey{sourceID, targetID, relation, discriminator}
	if tr.edges[key] {
		return
	}
	tr.edges[key] = true
	edge := model.NewEdge(sourceID, targetID, relation)
	for k, v := range details {
		edge.Details[k] = v
	}
	tr.g.AddEdge(edge)
}

func declaresField(t syntax.TypeDecl, name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// enclosingType returns the innermost type declared around line
func enclosingType(info *syntax.ScriptInfo, line int) (syntax.TypeDecl, bool) {
	var best syntax.TypeDecl
	found := false
	for _, t := range info.Types {
		if t.StartLine <= line && line <= t.EndLine && (!found || t.StartLine >= best.StartLine) {
			best, found = t, true
		}
	}
	return best, found
}

func declaredAt(info *syntax.ScriptInfo, name string, line int) (syntax.TypeDecl, bool) {
	for _, t := range info.Types {
		if t.Name == name && t.StartLine == line {
			return t, true
		}
	}
	return syntax.TypeDecl{}, false
}

// followingType returns the first type declared at or after line
func followingType(info *syntax.ScriptInfo, line int) (syntax.TypeDecl, bool) {
	var best syntax.TypeDecl
	found := false
	for _, t := range info.Types {
		if t.StartLine >= line && (!found || t.StartLine < best.StartLine) {
			best, found = t, true
		}
	}
	return best, found
}

type lineIndex []int

func newLineIndex(text string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// line returns the 1-based line of an offset
func (li lineIndex) line(offset int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > offset })
}
