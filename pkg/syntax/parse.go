package syntax

import (
	"regexp"
	"sort"
	"strings"
)

// TypeDecl is a type declaration found in a script
type TypeDecl struct {
	Name          string         `json:"name"`
	Kind          string         `json:"kind"`
	Access        string         `json:"access"`
	Modifiers     []string       `json:"modifiers,omitempty"`
	GenericParams []string       `json:"genericParams,omitempty"`
	BaseTypes     []string       `json:"baseTypes,omitempty"`
	Parent        string         `json:"parent,omitempty"`
	StartLine     int            `json:"startLine"`
	EndLine       int            `json:"endLine"`
	Methods       []MethodDecl   `json:"methods"`
	Fields        []FieldDecl    `json:"fields"`
	Properties    []PropertyDecl `json:"properties"`

	bodyDepth int
	open      int
	close     int
}

// MethodDecl is a method or constructor declaration
type MethodDecl struct {
	Name       string   `json:"name"`
	ReturnType string   `json:"returnType,omitempty"`
	Access     string   `json:"access"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Parameters string   `json:"parameters"`
	StartLine  int      `json:"startLine"`
	EndLine    int      `json:"endLine"`
}

// Length returns the number of lines the method spans
func (m MethodDecl) Length() int {
	return m.EndLine - m.StartLine + 1
}

// FieldDecl is a field declaration
type FieldDecl struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Access     string   `json:"access"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
	Line       int      `json:"line"`
}

// PropertyDecl is a property declaration
type PropertyDecl struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Access    string   `json:"access"`
	Modifiers []string `json:"modifiers,omitempty"`
	Line      int      `json:"line"`
}

// ScriptInfo is the structure of one script file
type ScriptInfo struct {
	Path      string     `json:"path"`
	Usings    []string   `json:"usings"`
	Namespace string     `json:"namespace,omitempty"`
	Types     []TypeDecl `json:"types"`
	LineCount int        `json:"lineCount"`
}

// FullName returns the namespace-qualified name of a declared type
func (s *ScriptInfo) FullName(t TypeDecl) string {
	name := t.Name
	if t.Parent != "" {
		name = t.Parent + "." + name
	}
	if s.Namespace == "" {
		return name
	}
	return s.Namespace + "." + name
}

const modifierWords = `public|private|protected|internal|static|abstract|sealed|partial|readonly|unsafe|new|virtual|override|async|extern|const|volatile|required`

var (
	usingPattern     = regexp.MustCompile(`(?m)^\s*using\s+(?:static\s+)?([\w.]+(?:\s*=\s*[\w.<>]+)?)\s*;`)
	namespacePattern = regexp.MustCompile(`(?m)^\s*namespace\s+([\w.]+)`)
	typePattern      = regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*((?:(?:` + modifierWords + `)\s+)*)(class|struct|interface|enum|record(?:\s+struct|\s+class)?)\s+(\w+)(?:\s*<([^>\n]+)>)?(?:\s*\([^)]*\))?(?:\s*:\s*([^{\n]+?))?\s*(?:where\s[^{\n]*)?(?:\{|$)`)
	methodPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*((?:(?:` + modifierWords + `)\s+)*)(?:([\w.]+(?:\s*<[^()\n;]*>)?(?:\[[,\s]*\])*\??)\s+)?(\w+)\s*(?:<[^>\n]*>)?\s*\(([^)]*)\)\s*(?:where\s[^{;\n]*|:\s*(?:base|this)\s*\([^)]*\))?\s*(\{|=>|;|$)`)
	fieldPattern     = regexp.MustCompile(`(?m)^[ \t]*((?:\[[^\]\n]*\]\s*)*)((?:(?:` + modifierWords + `|event)\s+)*)([\w.]+(?:\s*<[^()\n;=]*>)?(?:\[[,\s]*\])*\??)\s+(\w+)\s*(?:=[^;{]*)?;`)
	propertyPattern  = regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*((?:(?:` + modifierWords + `)\s+)*)([\w.]+(?:\s*<[^()\n;=]*>)?(?:\[[,\s]*\])*\??)\s+(\w+)\s*(?:\{\s*(?:get|set|init|private|protected|internal)|=>)`)
	attributePattern = regexp.MustCompile(`\[\s*([\w.]+)`)
)

// words that can precede "(" without being a method declaration
var statementWords = map[string]bool{
	"if": true, "for": true, "foreach": true, "while": true, "switch": true, "catch": true,
	"using": true, "lock": true, "return": true, "new": true, "else": true, "await": true,
	"throw": true, "case": true, "yield": true, "nameof": true, "typeof": true, "sizeof": true,
	"default": true, "fixed": true, "when": true, "in": true, "is": true, "as": true,
}

var accessWords = map[string]bool{"public": true, "private": true, "protected": true, "internal": true}

// source is a stripped script with offset helpers
type source struct {
	raw        string
	text       string
	lineStarts []int
	depth      []int // brace depth before each byte
}

func newSource(raw string) *source {
	s := &source{raw: raw, text: StripCommentsAndStrings(raw)}
	s.lineStarts = []int{0}
	for i := 0; i < len(s.text); i++ {
		if s.text[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	s.depth = make([]int, len(s.text)+1)
	d := 0
	for i := 0; i < len(s.text); i++ {
		s.depth[i] = d
		switch s.text[i] {
		case '{':
			d++
		case '}':
			if d > 0 {
				d--
			}
		}
	}
	s.depth[len(s.text)] = d
	return s
}

// line returns the 1-based line of an offset
func (s *source) line(offset int) int {
	return sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > offset })
}

// lineCount returns the number of lines, not counting a trailing newline
func (s *source) lineCount() int {
	n := len(s.lineStarts)
	if strings.HasSuffix(s.text, "\n") {
		n--
	}
	return n
}

// lineText returns the raw text of a 1-based line
func (s *source) lineText(line int) string {
	if line < 1 || line > len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[line-1]
	end := len(s.raw)
	if line < len(s.lineStarts) {
		end = s.lineStarts[line] - 1
	}
	if start > len(s.raw) {
		return ""
	}
	if end > len(s.raw) {
		end = len(s.raw)
	}
	return strings.TrimRight(s.raw[start:end], "\r")
}

// matchBrace returns the offset of the brace closing the one at open, or the
// end of the text when unbalanced.
func (s *source) matchBrace(open int) int {
	depth := 0
	for i := open; i < len(s.text); i++ {
		switch s.text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(s.text)
}

// ParseScript extracts usings, namespace, types and members from a script
func ParseScript(path, text string) *ScriptInfo {
	src := newSource(text)
	info := &ScriptInfo{Path: path, Usings: []string{}, Types: []TypeDecl{}, LineCount: src.lineCount()}

	for _, m := range usingPattern.FindAllStringSubmatchIndex(src.text, -1) {
		// using statements inside methods are blocks, not directives
		if src.depth[m[0]] <= 1 {
			info.Usings = append(info.Usings, src.text[m[2]:m[3]])
		}
	}
	if m := namespacePattern.FindStringSubmatch(src.text); m != nil {
		info.Namespace = m[1]
	}

	types := parseTypes(src)
	for _, m := range methodPattern.FindAllStringSubmatchIndex(src.text, -1) {
		addMethod(src, types, m)
	}
	for _, m := range fieldPattern.FindAllStringSubmatchIndex(src.text, -1) {
		addField(src, types, m)
	}
	for _, m := range propertyPattern.FindAllStringSubmatchIndex(src.text, -1) {
		addProperty(src, types, m)
	}

	for _, t := range types {
		info.Types = append(info.Types, *t)
	}
	return info
}

func parseTypes(src *source) []*TypeDecl {
	var types []*TypeDecl
	for _, m := range typePattern.FindAllStringSubmatchIndex(src.text, -1) {
		mods := strings.Fields(group(src.text, m, 1))
		kind := strings.Join(strings.Fields(group(src.text, m, 2)), " ")

		t := &TypeDecl{
			Name:       group(src.text, m, 3),
			Kind:       kind,
			Access:     accessOf(mods, "internal"),
			Modifiers:  nonAccess(mods),
			StartLine:  src.line(m[4]),
			Methods:    []MethodDecl{},
			Fields:     []FieldDecl{},
			Properties: []PropertyDecl{},
		}
		if gp := group(src.text, m, 4); gp != "" {
			t.GenericParams = splitList(gp)
		}
		if bases := group(src.text, m, 5); bases != "" {
			t.BaseTypes = splitList(bases)
		}

		open := strings.IndexByte(src.text[m[1]-1:], '{')
		if open < 0 {
			t.EndLine = t.StartLine
			t.open, t.close = -1, -1
			types = append(types, t)
			continue
		}
		open += m[1] - 1
		t.open = open
		t.close = src.matchBrace(open)
		t.bodyDepth = src.depth[open] + 1
		t.EndLine = src.line(t.close)
		types = append(types, t)
	}

	// Nested types record their enclosing type
	for _, t := range types {
		if outer := innermost(types, t.open, t); outer != nil {
			t.Parent = outer.Name
			if outer.Parent != "" {
				t.Parent = outer.Parent + "." + outer.Name
			}
		}
	}
	return types
}

// innermost returns the deepest type whose body contains offset
func innermost(types []*TypeDecl, offset int, exclude *TypeDecl) *TypeDecl {
	var best *TypeDecl
	for _, t := range types {
		if t == exclude || t.open < 0 || offset <= t.open || offset >= t.close {
			continue
		}
		if best == nil || t.bodyDepth > best.bodyDepth {
			best = t
		}
	}
	return best
}

// memberOwner returns the type a member at offset belongs to, if the member
// sits directly in a type body.
func memberOwner(src *source, types []*TypeDecl, offset int) *TypeDecl {
	t := innermost(types, offset, nil)
	if t == nil || src.depth[offset] != t.bodyDepth {
		return nil
	}
	return t
}

func addMethod(src *source, types []*TypeDecl, m []int) {
	start := m[6]
	owner := memberOwner(src, types, start)
	if owner == nil || owner.Kind == "enum" {
		return
	}

	mods := strings.Fields(group(src.text, m, 1))
	ret := group(src.text, m, 2)
	name := group(src.text, m, 3)
	if statementWords[name] || statementWords[ret] {
		return
	}
	if ret == "" && name != owner.Name {
		// Only constructors lack a return type
		return
	}

	method := MethodDecl{
		Name:       name,
		ReturnType: ret,
		Access:     accessOf(mods, defaultMemberAccess(owner)),
		Modifiers:  nonAccess(mods),
		Parameters: strings.Join(strings.Fields(group(src.text, m, 4)), " "),
		StartLine:  src.line(start),
	}

	terminator := group(src.text, m, 5)
	switch terminator {
	case "{":
		method.EndLine = src.line(src.matchBrace(m[10]))
	case ";":
		method.EndLine = src.line(m[10])
	case "=>":
		end := strings.IndexByte(src.text[m[11]:], ';')
		if end < 0 {
			method.EndLine = method.StartLine
		} else {
			method.EndLine = src.line(m[11] + end)
		}
	default:
		// Brace on the following line
		open := strings.IndexByte(src.text[m[1]:], '{')
		semi := strings.IndexByte(src.text[m[1]:], ';')
		if open >= 0 && (semi < 0 || open < semi) {
			method.EndLine = src.line(src.matchBrace(m[1] + open))
		} else {
			method.EndLine = method.StartLine
		}
	}
	owner.Methods = append(owner.Methods, method)
}

func addField(src *source, types []*TypeDecl, m []int) {
	start := m[8]
	owner := memberOwner(src, types, start)
	if owner == nil || owner.Kind == "enum" || owner.Kind == "interface" {
		return
	}
	mods := strings.Fields(group(src.text, m, 2))
	typ := group(src.text, m, 3)
	if statementWords[typ] || typ == "using" || typ == "namespace" {
		return
	}
	var attrs []string
	for _, a := range attributePattern.FindAllStringSubmatch(group(src.text, m, 1), -1) {
		attrs = append(attrs, a[1])
	}
	owner.Fields = append(owner.Fields, FieldDecl{
		Name:       group(src.text, m, 4),
		Type:       strings.Join(strings.Fields(typ), ""),
		Access:     accessOf(mods, defaultMemberAccess(owner)),
		Modifiers:  nonAccess(mods),
		Attributes: attrs,
		Line:       src.line(start),
	})
}

func addProperty(src *source, types []*TypeDecl, m []int) {
	start := m[6]
	owner := memberOwner(src, types, start)
	if owner == nil || owner.Kind == "enum" {
		return
	}
	mods := strings.Fields(group(src.text, m, 1))
	typ := group(src.text, m, 2)
	if statementWords[typ] {
		return
	}
	owner.Properties = append(owner.Properties, PropertyDecl{
		Name:      group(src.text, m, 3),
		Type:      strings.Join(strings.Fields(typ), ""),
		Access:    accessOf(mods, defaultMemberAccess(owner)),
		Modifiers: nonAccess(mods),
		Line:      src.line(start),
	})
}

func defaultMemberAccess(owner *TypeDecl) string {
	if owner.Kind == "interface" {
		return "public"
	}
	return "private"
}

func group(text string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return strings.TrimSpace(text[m[2*i]:m[2*i+1]])
}

func accessOf(mods []string, def string) string {
	var parts []string
	for _, m := range mods {
		if accessWords[m] {
			parts = append(parts, m)
		}
	}
	if len(parts) == 0 {
		return def
	}
	return strings.Join(parts, " ")
}

func nonAccess(mods []string) []string {
	var out []string
	for _, m := range mods {
		if !accessWords[m] {
			out = append(out, m)
		}
	}
	return out
}

// splitList splits a comma separated list, respecting generic brackets
func splitList(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				if item := strings.TrimSpace(s[start:i]); item != "" {
					out = append(out, item)
				}
				start = i + 1
			}
		}
	}
	if item := strings.TrimSpace(s[start:]); item != "" {
		out = append(out, item)
	}
	return out
}
