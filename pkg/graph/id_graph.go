package graph

import (
	"github.com/ritzau/forge-graph/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// IDGraph maps the string node ids of a result onto a gonum directed graph
type IDGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64 // node id -> graph id
	names  map[int64]string // graph id -> node id
	order  []string         // node ids in insertion order
	nextID int64
}

// NewIDGraph creates an empty graph
func NewIDGraph() *IDGraph {
	return &IDGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// FromResult builds a directed graph from a result's nodes and edges.
// Relations restricts the edges taken over; none means all.
func FromResult(g *model.GraphResult, relations ...string) *IDGraph {
	keep := make(map[string]bool, len(relations))
	for _, r := range relations {
		keep[r] = true
	}

	ig := NewIDGraph()
	for _, n := range g.Nodes {
		ig.AddNode(n.ID)
	}
	for _, e := range g.Edges {
		if len(keep) > 0 && !keep[e.Relation] {
			continue
		}
		ig.AddDependency(e.Source, e.Target)
	}
	return ig
}

// AddNode adds a node id to the graph
func (ig *IDGraph) AddNode(id string) {
	if _, exists := ig.ids[id]; exists {
		return
	}
	ig.ids[id] = ig.nextID
	ig.names[ig.nextID] = id
	ig.order = append(ig.order, id)
	ig.graph.AddNode(simple.Node(ig.nextID))
	ig.nextID++
}

// AddDependency adds an edge from source to target. Self loops are dropped
// since the underlying graph does not support them.
func (ig *IDGraph) AddDependency(source, target string) {
	ig.AddNode(source)
	ig.AddNode(target)
	if source == target {
		return
	}

	sourceID := ig.ids[source]
	targetID := ig.ids[target]
	if !ig.graph.HasEdgeFromTo(sourceID, targetID) {
		ig.graph.SetEdge(ig.graph.NewEdge(ig.graph.Node(sourceID), ig.graph.Node(targetID)))
	}
}

// ID returns the graph id of a node id
func (ig *IDGraph) ID(id string) (int64, bool) {
	gid, ok := ig.ids[id]
	return gid, ok
}

// Name returns the node id of a graph id
func (ig *IDGraph) Name(gid int64) string {
	return ig.names[gid]
}

// Nodes returns node ids in insertion order
func (ig *IDGraph) Nodes() []string {
	return ig.order
}

// Graph returns the underlying directed graph
func (ig *IDGraph) Graph() *simple.DirectedGraph {
	return ig.graph
}

// Dependencies returns the node ids the given node has edges to
func (ig *IDGraph) Dependencies(id string) []string {
	gid, ok := ig.ids[id]
	if !ok {
		return nil
	}
	var deps []string
	iter := ig.graph.From(gid)
	for iter.Next() {
		deps = append(deps, ig.names[iter.Node().ID()])
	}
	return deps
}

// Neighbors returns the node ids connected to the given node in either direction
func (ig *IDGraph) Neighbors(id string) []string {
	gid, ok := ig.ids[id]
	if !ok {
		return nil
	}
	seen := make(map[int64]bool)
	var out []string
	from := ig.graph.From(gid)
	for from.Next() {
		nid := from.Node().ID()
		if !seen[nid] {
			seen[nid] = true
			out = append(out, ig.names[nid])
		}
	}
	to := ig.graph.To(gid)
	for to.Next() {
		nid := to.Node().ID()
		if !seen[nid] {
			seen[nid] = true
			out = append(out, ig.names[nid])
		}
	}
	return out
}
