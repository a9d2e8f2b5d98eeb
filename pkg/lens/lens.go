// Package lens crops analysis graphs to the neighbourhood of selected nodes.
package lens

import (
	"strings"

	"github.com/ritzau/forge-graph/pkg/model"
)

// DefaultRadius is the hop count kept around the focus when none is given
const DefaultRadius = 1

// Config selects the part of a graph to keep
type Config struct {
	Focus        []string `json:"focus"`
	Radius       int      `json:"radius"`
	Relations    []string `json:"relations,omitempty"`
	HideBuiltins bool     `json:"hideBuiltins,omitempty"`
}

// ParseList splits a comma separated list of ids or relations
func ParseList(s string) []string {
	var focus []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			focus = append(focus, part)
		}
	}
	return focus
}

// Active reports whether the config changes anything
func (c Config) Active() bool {
	return len(c.Focus) > 0 || len(c.Relations) > 0 || c.HideBuiltins
}

// Apply returns the subgraph of nodes within Radius hops of the focus. An
// empty focus keeps every node. Relations limits both the hops and the edges
// kept. The input graph is not modified.
func Apply(g *model.GraphResult, c Config) *model.GraphResult {
	if !c.Active() {
		return g
	}
	radius := c.Radius
	if radius < 0 {
		radius = DefaultRadius
	}

	var distances map[string]int
	if len(c.Focus) > 0 {
		distances = ComputeDistances(g, c.Focus, c.Relations...)
	}

	keep := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if c.HideBuiltins && (n.Type == model.NodeBuiltin || n.Type == model.NodeExternal) {
			continue
		}
		if distances != nil {
			d := distances[n.ID]
			if d == Unreachable || d > radius {
				continue
			}
		}
		keep[n.ID] = true
	}

	sub := g.Subgraph(keep)
	if len(c.Relations) > 0 {
		sub.Edges = filterEdges(sub.Edges, c.Relations)
	}
	if len(c.Focus) > 0 {
		sub.Metadata["lens"] = map[string]any{
			"focus":  expandFocus(c.Focus, g),
			"radius": radius,
		}
	}
	return sub
}

func filterEdges(edges []*model.GraphEdge, relations []string) []*model.GraphEdge {
	kept := make([]*model.GraphEdge, 0, len(edges))
	for _, e := range edges {
		for _, r := range relations {
			if e.Relation == r {
				kept = append(kept, e)
				break
			}
		}
	}
	return kept
}
