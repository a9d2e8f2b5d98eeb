package model

import "encoding/json"

// GraphType identifies which analysis produced a graph
type GraphType string

const (
	GraphClassDependency   GraphType = "class_dependency"
	GraphClassDependents   GraphType = "class_dependents"
	GraphSceneReference    GraphType = "scene_reference"
	GraphSceneRelationship GraphType = "scene_relationship"
)

// Edge relations. Each graph kind uses a closed subset.
const (
	// class dependency graphs
	RelationInherits          = "inherits"
	RelationImplements        = "implements"
	RelationFieldReference    = "field_reference"
	RelationRequiresComponent = "requires_component"

	// scene reference graphs
	RelationHierarchyChild     = "hierarchy_child"
	RelationComponentReference = "component_reference"
	RelationUIEvent            = "ui_event"

	// scene relationship graphs
	RelationSceneLoad      = "scene_load"
	RelationFlowTransition = "flow_transition"
)

// Node types used by the analyzers
const (
	NodeClass            = "class"
	NodeInterface        = "interface"
	NodeEnum             = "enum"
	NodeStruct           = "struct"
	NodeMonoBehaviour    = "MonoBehaviour"
	NodeScriptableObject = "ScriptableObject"
	NodeBuiltin          = "builtin"
	NodeExternal         = "external"
	NodeGameObject       = "GameObject"
	NodeScene            = "Scene"
	NodeScript           = "Script"
)

// GraphNode is a vertex in an analysis graph.
// Id is a full type name, a hierarchy path or a scene path depending on the graph kind.
type GraphNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// GraphEdge is a directed relation between two node ids.
type GraphEdge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Relation string         `json:"relation"`
	Details  map[string]any `json:"details"`
}

// NewNode creates a node with an empty property map
func NewNode(id, nodeType string) *GraphNode {
	return &GraphNode{ID: id, Type: nodeType, Properties: make(map[string]any)}
}

// NewEdge creates an edge with an empty details map
func NewEdge(source, target, relation string) *GraphEdge {
	return &GraphEdge{Source: source, Target: target, Relation: relation, Details: make(map[string]any)}
}

// GraphResult is the output of one analysis query. It owns its nodes and
// edges and is not modified once the analyzer returns it.
type GraphResult struct {
	GraphType GraphType
	Nodes     []*GraphNode
	Edges     []*GraphEdge
	Metadata  map[string]any

	index map[string]int
}

// NewGraphResult creates an empty graph of the given kind
func NewGraphResult(graphType GraphType) *GraphResult {
	return &GraphResult{
		GraphType: graphType,
		Nodes:     make([]*GraphNode, 0),
		Edges:     make([]*GraphEdge, 0),
		Metadata:  make(map[string]any),
		index:     make(map[string]int),
	}
}

// AddNode inserts the node unless a node with the same id exists.
// The first writer wins so that multi-pass traversals never overwrite properties.
func (g *GraphResult) AddNode(node *GraphNode) {
	if g.index == nil {
		g.reindex()
	}
	if _, exists := g.index[node.ID]; exists {
		return
	}
	if node.Properties == nil {
		node.Properties = make(map[string]any)
	}
	g.index[node.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, node)
}

// AddEdge appends an edge. Callers dedupe when needed.
func (g *GraphResult) AddEdge(edge *GraphEdge) {
	if edge.Details == nil {
		edge.Details = make(map[string]any)
	}
	g.Edges = append(g.Edges, edge)
}

// GetNode returns the node with the given id, or nil
func (g *GraphResult) GetNode(id string) *GraphNode {
	if g.index == nil {
		g.reindex()
	}
	if i, ok := g.index[id]; ok {
		return g.Nodes[i]
	}
	return nil
}

// HasNode reports whether a node with the given id exists
func (g *GraphResult) HasNode(id string) bool {
	return g.GetNode(id) != nil
}

// GetEdgesFrom returns edges whose source is id, in discovery order
func (g *GraphResult) GetEdgesFrom(id string) []*GraphEdge {
	var edges []*GraphEdge
	for _, e := range g.Edges {
		if e.Source == id {
			edges = append(edges, e)
		}
	}
	return edges
}

// GetEdgesTo returns edges whose target is id, in discovery order
func (g *GraphResult) GetEdgesTo(id string) []*GraphEdge {
	var edges []*GraphEdge
	for _, e := range g.Edges {
		if e.Target == id {
			edges = append(edges, e)
		}
	}
	return edges
}

// Subgraph returns a new graph of the same kind holding the given nodes
// (in original order) and only the edges between them. Metadata is copied.
func (g *GraphResult) Subgraph(keep map[string]bool) *GraphResult {
	sub := NewGraphResult(g.GraphType)
	for k, v := range g.Metadata {
		sub.Metadata[k] = v
	}
	for _, n := range g.Nodes {
		if keep[n.ID] {
			sub.AddNode(n)
		}
	}
	for _, e := range g.Edges {
		if keep[e.Source] && keep[e.Target] {
			sub.AddEdge(e)
		}
	}
	return sub
}

// MarshalJSON encodes the graph in its dictionary form
func (g *GraphResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.ToDictionary())
}

func (g *GraphResult) reindex() {
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, exists := g.index[n.ID]; !exists {
			g.index[n.ID] = i
		}
	}
}
