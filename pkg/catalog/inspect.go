package catalog

import (
	"fmt"
	"strings"

	"github.com/ritzau/forge-graph/pkg/project"
)

// FieldSignature describes a field for inspection output
type FieldSignature struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Access      string   `json:"access"`
	Static      bool     `json:"static,omitempty"`
	ReadOnly    bool     `json:"readonly,omitempty"`
	Const       bool     `json:"const,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
	Declaration string   `json:"declaration"`
}

// MethodSignature describes a method for inspection output
type MethodSignature struct {
	Name       string   `json:"name"`
	ReturnType string   `json:"returnType"`
	Access     string   `json:"access"`
	Static     bool     `json:"static,omitempty"`
	Virtual    bool     `json:"virtual,omitempty"`
	Abstract   bool     `json:"abstract,omitempty"`
	Parameters []string `json:"parameters"`
	Signature  string   `json:"signature"`
}

// PropertySignature describes a property for inspection output
type PropertySignature struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Access   string `json:"access"`
	Static   bool   `json:"static,omitempty"`
	CanRead  bool   `json:"canRead"`
	CanWrite bool   `json:"canWrite"`
}

// TypeDetails is the outcome of InspectType
type TypeDetails struct {
	Name       string              `json:"name"`
	FullName   string              `json:"fullName"`
	Namespace  string              `json:"namespace,omitempty"`
	Kind       string              `json:"kind"`
	Assembly   string              `json:"assembly,omitempty"`
	File       string              `json:"file,omitempty"`
	BaseType   string              `json:"baseType,omitempty"`
	Interfaces []string            `json:"interfaces"`
	Attributes []string            `json:"attributes"`
	IsAbstract bool                `json:"isAbstract,omitempty"`
	IsSealed   bool                `json:"isSealed,omitempty"`
	Fields     []FieldSignature    `json:"fields,omitempty"`
	Methods    []MethodSignature   `json:"methods,omitempty"`
	Properties []PropertySignature `json:"properties,omitempty"`
}

// InspectOptions selects the member lists InspectType returns
type InspectOptions struct {
	IncludeFields     bool
	IncludeMethods    bool
	IncludeProperties bool
}

// InspectType resolves a type by full name, then by simple name, and
// describes it.
func (c *Catalog) InspectType(name string, opts InspectOptions) (*TypeDetails, error) {
	t, ok := project.Resolve(c.types, name)
	if !ok {
		return nil, fmt.Errorf("type %q: %w", name, project.ErrNotFound)
	}

	d := &TypeDetails{
		Name:       t.Name(),
		FullName:   t.FullName,
		Namespace:  t.Namespace(),
		Kind:       c.Kind(t),
		Assembly:   t.Assembly,
		File:       t.SourceFile,
		BaseType:   t.BaseType,
		Interfaces: append([]string{}, t.Interfaces...),
		Attributes: append([]string{}, t.Attributes...),
		IsAbstract: t.IsAbstract,
		IsSealed:   t.IsSealed,
	}

	if opts.IncludeFields {
		d.Fields = []FieldSignature{}
		for _, f := range t.Fields {
			d.Fields = append(d.Fields, fieldSignature(f))
		}
	}
	if opts.IncludeMethods {
		d.Methods = []MethodSignature{}
		for _, m := range t.Methods {
			d.Methods = append(d.Methods, methodSignature(m))
		}
	}
	if opts.IncludeProperties {
		d.Properties = []PropertySignature{}
		for _, p := range t.Properties {
			access := p.Access
			if access == "" {
				access = "private"
			}
			d.Properties = append(d.Properties, PropertySignature{
				Name:     p.Name,
				Type:     project.ParseTypeRef(p.Type).Friendly(),
				Access:   access,
				Static:   p.Static,
				CanRead:  p.CanRead,
				CanWrite: p.CanWrite,
			})
		}
	}
	return d, nil
}

func fieldSignature(f project.FieldInfo) FieldSignature {
	return FieldSignature{
		Name:        f.Name,
		Type:        project.ParseTypeRef(f.Type).Friendly(),
		Access:      f.AccessLevel(),
		Static:      f.Static,
		ReadOnly:    f.ReadOnly,
		Const:       f.Const,
		Attributes:  f.Attributes,
		Declaration: FieldDeclaration(f),
	}
}

// FieldDeclaration renders a field the way it would be declared, e.g. "private static readonly int count"
func FieldDeclaration(f project.FieldInfo) string {
	parts := []string{f.AccessLevel()}
	switch {
	case f.Const:
		parts = append(parts, "const")
	case f.Static:
		parts = append(parts, "static")
	}
	if f.ReadOnly && !f.Const {
		parts = append(parts, "readonly")
	}
	parts = append(parts, project.ParseTypeRef(f.Type).Friendly(), f.Name)
	return strings.Join(parts, " ")
}

func methodSignature(m project.MethodInfo) MethodSignature {
	access := m.Access
	if access == "" {
		access = "private"
	}
	ret := "void"
	if m.ReturnType != "" {
		ret = project.ParseTypeRef(m.ReturnType).Friendly()
	}

	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = project.ParseTypeRef(p.Type).Friendly() + " " + p.Name
	}

	mods := []string{access}
	switch {
	case m.Static:
		mods = append(mods, "static")
	case m.Abstract:
		mods = append(mods, "abstract")
	case m.Virtual:
		mods = append(mods, "virtual")
	}

	return MethodSignature{
		Name:       m.Name,
		ReturnType: ret,
		Access:     access,
		Static:     m.Static,
		Virtual:    m.Virtual,
		Abstract:   m.Abstract,
		Parameters: params,
		Signature:  fmt.Sprintf("%s %s %s(%s)", strings.Join(mods, " "), ret, m.Name, strings.Join(params, ", ")),
	}
}
