package model

import (
	"fmt"
)

// reserved keys of the dictionary form; everything else is metadata
var reservedKeys = map[string]bool{
	"graphType": true,
	"nodes":     true,
	"edges":     true,
	"nodeCount": true,
	"edgeCount": true,
}

// ToDictionary flattens the graph into the canonical structured form:
// graphType, nodes, edges, nodeCount, edgeCount and the metadata keys.
func (g *GraphResult) ToDictionary() map[string]any {
	nodes := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, map[string]any{
			"id":         n.ID,
			"type":       n.Type,
			"properties": copyMap(n.Properties),
		})
	}

	edges := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, map[string]any{
			"source":   e.Source,
			"target":   e.Target,
			"relation": e.Relation,
			"details":  copyMap(e.Details),
		})
	}

	d := make(map[string]any, len(g.Metadata)+5)
	for k, v := range g.Metadata {
		if !reservedKeys[k] {
			d[k] = v
		}
	}
	d["graphType"] = string(g.GraphType)
	d["nodes"] = nodes
	d["edges"] = edges
	d["nodeCount"] = len(nodes)
	d["edgeCount"] = len(edges)
	return d
}

// FromDictionary rebuilds a graph from ToDictionary output. It accepts both
// the in-memory form and the generic form produced by decoding JSON.
func FromDictionary(d map[string]any) (*GraphResult, error) {
	graphType, ok := d["graphType"].(string)
	if !ok {
		return nil, fmt.Errorf("graphType missing or not a string")
	}
	g := NewGraphResult(GraphType(graphType))

	nodes, err := objectList(d["nodes"])
	if err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}
	for i, n := range nodes {
		id, ok := n["id"].(string)
		if !ok {
			return nil, fmt.Errorf("node %d: id missing", i)
		}
		nodeType, _ := n["type"].(string)
		props, _ := n["properties"].(map[string]any)
		g.AddNode(&GraphNode{ID: id, Type: nodeType, Properties: copyMap(props)})
	}

	edges, err := objectList(d["edges"])
	if err != nil {
		return nil, fmt.Errorf("edges: %w", err)
	}
	for i, e := range edges {
		source, okS := e["source"].(string)
		target, okT := e["target"].(string)
		if !okS || !okT {
			return nil, fmt.Errorf("edge %d: source or target missing", i)
		}
		relation, _ := e["relation"].(string)
		details, _ := e["details"].(map[string]any)
		g.AddEdge(&GraphEdge{Source: source, Target: target, Relation: relation, Details: copyMap(details)})
	}

	for k, v := range d {
		if !reservedKeys[k] {
			g.Metadata[k] = v
		}
	}
	return g, nil
}

func objectList(v any) ([]map[string]any, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return list, nil
	case []any:
		out := make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not an object", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
