package project

import (
	"strings"
)

// TypeInfo describes one type of the host's compiled type universe.
// Type references (base type, interfaces, field types) use full names.
type TypeInfo struct {
	FullName    string `yaml:"name" json:"name"`
	Assembly    string `yaml:"assembly,omitempty" json:"assembly,omitempty"`
	IsInterface bool   `yaml:"interface,omitempty" json:"interface,omitempty"`
	IsEnum      bool   `yaml:"enum,omitempty" json:"enum,omitempty"`
	IsValueType bool   `yaml:"struct,omitempty" json:"struct,omitempty"`
	IsAbstract  bool   `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	IsSealed    bool   `yaml:"sealed,omitempty" json:"sealed,omitempty"`
	// Builtin marks types of the standard/engine universe rather than project code
	Builtin bool `yaml:"builtin,omitempty" json:"builtin,omitempty"`

	BaseType   string   `yaml:"base,omitempty" json:"base,omitempty"`
	Interfaces []string `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Attributes []string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	// Requires lists capability markers; each marker names up to three required types
	Requires   [][]string `yaml:"requires,omitempty" json:"requires,omitempty"`
	SourceFile string     `yaml:"file,omitempty" json:"file,omitempty"`

	Fields     []FieldInfo    `yaml:"fields,omitempty" json:"fields,omitempty"`
	Methods    []MethodInfo   `yaml:"methods,omitempty" json:"methods,omitempty"`
	Properties []PropertyInfo `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Name returns the simple (unqualified) type name
func (t *TypeInfo) Name() string {
	return SimpleName(t.FullName)
}

// Namespace returns the namespace part of the full name
func (t *TypeInfo) Namespace() string {
	if i := strings.LastIndex(t.FullName, "."); i >= 0 {
		return t.FullName[:i]
	}
	return ""
}

// FieldInfo is a declared field
type FieldInfo struct {
	Name       string   `yaml:"name" json:"name"`
	Type       string   `yaml:"type" json:"type"`
	Access     string   `yaml:"access,omitempty" json:"access,omitempty"`
	Static     bool     `yaml:"static,omitempty" json:"static,omitempty"`
	ReadOnly   bool     `yaml:"readonly,omitempty" json:"readonly,omitempty"`
	Const      bool     `yaml:"const,omitempty" json:"const,omitempty"`
	Attributes []string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// AccessLevel returns the declared access, defaulting to private
func (f FieldInfo) AccessLevel() string {
	if f.Access == "" {
		return "private"
	}
	return f.Access
}

// ParameterInfo is a method parameter
type ParameterInfo struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// MethodInfo is a declared method
type MethodInfo struct {
	Name       string          `yaml:"name" json:"name"`
	ReturnType string          `yaml:"returns,omitempty" json:"returns,omitempty"`
	Access     string          `yaml:"access,omitempty" json:"access,omitempty"`
	Static     bool            `yaml:"static,omitempty" json:"static,omitempty"`
	Virtual    bool            `yaml:"virtual,omitempty" json:"virtual,omitempty"`
	Abstract   bool            `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Parameters []ParameterInfo `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// PropertyInfo is a declared property
type PropertyInfo struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Access   string `yaml:"access,omitempty" json:"access,omitempty"`
	Static   bool   `yaml:"static,omitempty" json:"static,omitempty"`
	CanRead  bool   `yaml:"get,omitempty" json:"get,omitempty"`
	CanWrite bool   `yaml:"set,omitempty" json:"set,omitempty"`
}

// TypeUniverse enumerates and resolves types visible to the host
type TypeUniverse interface {
	// Types returns every known type, project and builtin, in a stable order
	Types() []*TypeInfo
	// Lookup resolves a type by full name
	Lookup(fullName string) (*TypeInfo, bool)
}

// SimpleName strips the namespace and any generic arguments from a type name
func SimpleName(name string) string {
	if i := strings.IndexAny(name, "<`"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// FindBySimpleName scans the universe for a type with the given simple name.
// The first match in universe order wins.
func FindBySimpleName(u TypeUniverse, name string) (*TypeInfo, bool) {
	for _, t := range u.Types() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Resolve looks a type up by full name, then by simple name
func Resolve(u TypeUniverse, name string) (*TypeInfo, bool) {
	if t, ok := u.Lookup(name); ok {
		return t, true
	}
	return FindBySimpleName(u, SimpleName(name))
}

// BaseChain returns the base types of t, nearest first. Unknown bases end the chain.
func BaseChain(u TypeUniverse, t *TypeInfo) []*TypeInfo {
	var chain []*TypeInfo
	seen := map[string]bool{t.FullName: true}
	for base := t.BaseType; base != "" && !seen[base]; {
		seen[base] = true
		bt, ok := u.Lookup(base)
		if !ok {
			break
		}
		chain = append(chain, bt)
		base = bt.BaseType
	}
	return chain
}

// DerivesFrom reports whether t is, or inherits from, the named base type
func DerivesFrom(u TypeUniverse, t *TypeInfo, base string) bool {
	if t.FullName == base {
		return true
	}
	for _, bt := range BaseChain(u, t) {
		if bt.FullName == base {
			return true
		}
	}
	return false
}

// AllInterfaces returns the interfaces of t including those declared on its bases
func AllInterfaces(u TypeUniverse, t *TypeInfo) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(t.Interfaces)
	for _, bt := range BaseChain(u, t) {
		add(bt.Interfaces)
	}
	return out
}

// IsAssignable reports whether a value of type from can be stored in a
// variable of type to: identity, inheritance or interface implementation.
func IsAssignable(u TypeUniverse, from, to string) bool {
	if from == to {
		return true
	}
	ft, ok := u.Lookup(from)
	if !ok {
		return false
	}
	if DerivesFrom(u, ft, to) {
		return true
	}
	for _, iface := range AllInterfaces(u, ft) {
		if iface == to {
			return true
		}
	}
	return false
}
