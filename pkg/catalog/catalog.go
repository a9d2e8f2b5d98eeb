// Package catalog lists and inspects the types of a project.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/ritzau/forge-graph/pkg/finder"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
)

// Result limits for ListTypes
const (
	DefaultMaxResults = 100
	MaxResultsLimit   = 1000
)

// Markers names the two base classes that give a type its host-specific kind
type Markers struct {
	ComponentBase string
	AssetBase     string
}

// DefaultMarkers returns the engine's component and data-asset base classes
func DefaultMarkers() Markers {
	return Markers{
		ComponentBase: project.MonoBehaviourType,
		AssetBase:     project.ScriptableObjectType,
	}
}

// Catalog answers type listing and inspection queries
type Catalog struct {
	types   project.TypeUniverse
	markers Markers
}

// New creates a catalog over a type universe. Empty marker names fall back to the defaults.
func New(types project.TypeUniverse, markers Markers) *Catalog {
	def := DefaultMarkers()
	if markers.ComponentBase == "" {
		markers.ComponentBase = def.ComponentBase
	}
	if markers.AssetBase == "" {
		markers.AssetBase = def.AssetBase
	}
	return &Catalog{types: types, markers: markers}
}

// Kind classifies a type. Checks run in priority order: interface, enum,
// struct, component marker, asset marker, class.
func (c *Catalog) Kind(t *project.TypeInfo) string {
	switch {
	case t.IsInterface:
		return model.NodeInterface
	case t.IsEnum:
		return model.NodeEnum
	case t.IsValueType:
		return model.NodeStruct
	case project.DerivesFrom(c.types, t, c.markers.ComponentBase):
		return model.NodeMonoBehaviour
	case project.DerivesFrom(c.types, t, c.markers.AssetBase):
		return model.NodeScriptableObject
	default:
		return model.NodeClass
	}
}

// ListOptions filters ListTypes. Empty fields do not filter.
type ListOptions struct {
	SearchScope     string
	TypeKind        string
	NamespaceFilter string
	BaseClassFilter string
	NamePattern     string
	MaxResults      int
}

// TypeSummary is one entry of a type listing
type TypeSummary struct {
	Name      string `json:"name"`
	FullName  string `json:"fullName"`
	Namespace string `json:"namespace,omitempty"`
	Kind      string `json:"kind"`
	BaseType  string `json:"baseType,omitempty"`
	Assembly  string `json:"assembly,omitempty"`
	File      string `json:"file,omitempty"`
}

// ListResult is the outcome of ListTypes
type ListResult struct {
	Types      []TypeSummary `json:"types"`
	Count      int           `json:"count"`
	MaxResults int           `json:"maxResults"`
	Truncated  bool          `json:"truncated"`
}

// ClampMaxResults applies the default and the [1, MaxResultsLimit] bounds
func ClampMaxResults(n int) int {
	switch {
	case n == 0:
		return DefaultMaxResults
	case n < 1:
		return 1
	case n > MaxResultsLimit:
		return MaxResultsLimit
	default:
		return n
	}
}

// ListTypes enumerates types matching every given filter, ordered by full name
func (c *Catalog) ListTypes(opts ListOptions) (*ListResult, error) {
	var pattern glob.Glob
	if opts.NamePattern != "" {
		g, err := glob.Compile(opts.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("name pattern %q: %w: %w", opts.NamePattern, project.ErrInvalidArgument, err)
		}
		pattern = g
	}

	limit := ClampMaxResults(opts.MaxResults)
	candidates := append([]*project.TypeInfo(nil), c.types.Types()...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FullName < candidates[j].FullName
	})

	result := &ListResult{Types: []TypeSummary{}, MaxResults: limit}
	for _, t := range candidates {
		if !c.inScope(t, opts.SearchScope) {
			continue
		}
		kind := c.Kind(t)
		if opts.TypeKind != "" && !strings.EqualFold(kind, opts.TypeKind) {
			continue
		}
		if opts.NamespaceFilter != "" && !inNamespace(t.Namespace(), opts.NamespaceFilter) {
			continue
		}
		if opts.BaseClassFilter != "" && !c.derivesFromName(t, opts.BaseClassFilter) {
			continue
		}
		if pattern != nil && !pattern.Match(t.Name()) && !pattern.Match(t.FullName) {
			continue
		}

		if len(result.Types) == limit {
			result.Truncated = true
			break
		}
		result.Types = append(result.Types, c.summarize(t, kind))
	}
	result.Count = len(result.Types)
	return result, nil
}

func (c *Catalog) inScope(t *project.TypeInfo, scope string) bool {
	if scope == "" {
		return !t.Builtin
	}
	return t.SourceFile != "" && finder.InScope(t.SourceFile, scope)
}

func inNamespace(ns, filter string) bool {
	filter = strings.TrimSuffix(filter, ".")
	return ns == filter || strings.HasPrefix(ns, filter+".")
}

// derivesFromName reports whether a base in t's chain matches by full or simple name
func (c *Catalog) derivesFromName(t *project.TypeInfo, base string) bool {
	for _, bt := range project.BaseChain(c.types, t) {
		if bt.FullName == base || bt.Name() == base {
			return true
		}
	}
	// Unknown bases still match on the declared name
	return t.BaseType == base || project.SimpleName(t.BaseType) == base
}

func (c *Catalog) summarize(t *project.TypeInfo, kind string) TypeSummary {
	return TypeSummary{
		Name:      t.Name(),
		FullName:  t.FullName,
		Namespace: t.Namespace(),
		Kind:      kind,
		BaseType:  t.BaseType,
		Assembly:  t.Assembly,
		File:      t.SourceFile,
	}
}
