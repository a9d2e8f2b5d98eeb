package project

import (
	"strings"
)

// TypeRef is a parsed type expression such as "List<Weapon>" or "Enemy[]".
// Arrays have Elem set and no Name.
type TypeRef struct {
	Name string
	Args []TypeRef
	Elem *TypeRef
}

// primitive keyword aliases and their runtime names
var primitiveAliases = map[string]string{
	"System.Boolean": "bool",
	"System.Byte":    "byte",
	"System.SByte":   "sbyte",
	"System.Char":    "char",
	"System.Int16":   "short",
	"System.UInt16":  "ushort",
	"System.Int32":   "int",
	"System.UInt32":  "uint",
	"System.Int64":   "long",
	"System.UInt64":  "ulong",
	"System.Single":  "float",
	"System.Double":  "double",
	"System.Decimal": "decimal",
	"System.String":  "string",
	"System.Object":  "object",
	"System.Void":    "void",
}

var primitiveKeywords = func() map[string]bool {
	m := make(map[string]bool, len(primitiveAliases))
	for _, kw := range primitiveAliases {
		m[kw] = true
	}
	return m
}()

// builtinNamespaces are treated as outside the project when a type is not
// in the universe
var builtinNamespaces = []string{"System.", "UnityEngine.", "UnityEditor.", "Unity.", "TMPro."}

// ParseTypeRef parses a C#-style type expression. Malformed input yields a
// best-effort result rather than an error.
func ParseTypeRef(s string) TypeRef {
	p := &typeParser{s: strings.TrimSpace(s)}
	return p.parse()
}

type typeParser struct {
	s   string
	pos int
}

func (p *typeParser) peek(c byte) bool {
	return p.pos < len(p.s) && p.s[p.pos] == c
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() TypeRef {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune("<>,[]? ", rune(p.s[p.pos])) {
		p.pos++
	}
	ref := TypeRef{Name: p.s[start:p.pos]}
	p.skipSpace()

	if p.peek('<') {
		p.pos++
		for p.pos < len(p.s) {
			ref.Args = append(ref.Args, p.parse())
			p.skipSpace()
			if p.peek(',') {
				p.pos++
				continue
			}
			if p.peek('>') {
				p.pos++
			}
			break
		}
		p.skipSpace()
	}

	// Nullable value types unwrap to the underlying type
	if p.peek('?') {
		p.pos++
		p.skipSpace()
	}

	for p.peek('[') {
		for p.pos < len(p.s) && p.s[p.pos] != ']' {
			p.pos++
		}
		if p.pos < len(p.s) {
			p.pos++
		}
		elem := ref
		ref = TypeRef{Elem: &elem}
		p.skipSpace()
	}
	return ref
}

// IsArray reports whether the reference is an array type
func (r TypeRef) IsArray() bool {
	return r.Elem != nil
}

// IsGeneric reports whether the reference has type arguments
func (r TypeRef) IsGeneric() bool {
	return len(r.Args) > 0
}

// String renders the reference with full names
func (r TypeRef) String() string {
	return r.render(func(n string) string { return n })
}

// Friendly renders the reference with unqualified, keyword-aliased names,
// e.g. "Dictionary<string, List<Weapon>>"
func (r TypeRef) Friendly() string {
	return r.render(FriendlyName)
}

func (r TypeRef) render(name func(string) string) string {
	if r.Elem != nil {
		return r.Elem.render(name) + "[]"
	}
	if len(r.Args) == 0 {
		return name(r.Name)
	}
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.render(name)
	}
	return name(r.Name) + "<" + strings.Join(args, ", ") + ">"
}

// FriendlyName returns the keyword alias or simple name of a single type name
func FriendlyName(name string) string {
	if alias, ok := primitiveAliases[name]; ok {
		return alias
	}
	return SimpleName(name)
}

// Unwrap resolves the type a field "really" references: arrays unwrap to
// their element, generics to their first non-builtin argument (or the first
// argument when includeBuiltins is set). The second result is false when
// nothing is left to reference.
func (r TypeRef) Unwrap(includeBuiltins bool, isBuiltin func(string) bool) (string, bool) {
	if r.Elem != nil {
		return r.Elem.Unwrap(includeBuiltins, isBuiltin)
	}
	if len(r.Args) == 0 {
		return r.Name, r.Name != ""
	}
	for _, arg := range r.Args {
		name, ok := arg.Unwrap(includeBuiltins, isBuiltin)
		if !ok {
			continue
		}
		if includeBuiltins || !isBuiltin(name) {
			return name, true
		}
	}
	return "", false
}

// IsBuiltin reports whether a type name belongs to the standard or engine
// universe. Types known to the universe answer for themselves; unknown names
// fall back to primitive keywords and well-known namespaces.
func IsBuiltin(u TypeUniverse, name string) bool {
	if u != nil {
		if t, ok := u.Lookup(name); ok {
			return t.Builtin
		}
	}
	if primitiveKeywords[name] {
		return true
	}
	if _, ok := primitiveAliases[name]; ok {
		return true
	}
	for _, ns := range builtinNamespaces {
		if strings.HasPrefix(name, ns) {
			return true
		}
	}
	return false
}
