package lens

import (
	"strings"

	"github.com/ritzau/forge-graph/pkg/model"
)

// Unreachable is the distance of a node no focus node connects to
const Unreachable = -1

// distanceQueueNode represents a node in the BFS queue
type distanceQueueNode struct {
	nodeID   string
	distance int
}

// expandFocus resolves focus ids against the graph. An id that is a node
// stays as is. Otherwise it selects every node nested below it, so a
// namespace selects its types and an object path selects its descendants.
func expandFocus(focus []string, g *model.GraphResult) []string {
	expanded := make(map[string]bool)
	var result []string
	add := func(id string) {
		if !expanded[id] {
			expanded[id] = true
			result = append(result, id)
		}
	}

	for _, id := range focus {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if g.HasNode(id) {
			add(id)
			continue
		}
		found := false
		for _, n := range g.Nodes {
			if strings.HasPrefix(n.ID, id+".") || strings.HasPrefix(n.ID, id+"/") {
				add(n.ID)
				found = true
			}
		}
		if !found {
			// Unknown ids still count so that the caller can report them
			add(id)
		}
	}
	return result
}

// ComputeDistances calculates the shortest hop count from each node to the
// nearest focus node, ignoring edge direction. Relations restricts the edges
// walked; none means all.
func ComputeDistances(g *model.GraphResult, focus []string, relations ...string) map[string]int {
	distances := make(map[string]int, len(g.Nodes))

	if len(focus) == 0 {
		for _, n := range g.Nodes {
			distances[n.ID] = Unreachable
		}
		return distances
	}

	adjacency := buildAdjacencyList(g, relations)

	queue := []distanceQueueNode{}
	for _, id := range expandFocus(focus, g) {
		if !g.HasNode(id) {
			continue
		}
		distances[id] = 0
		queue = append(queue, distanceQueueNode{nodeID: id, distance: 0})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current.nodeID] {
			if _, exists := distances[neighbor]; !exists {
				d := current.distance + 1
				distances[neighbor] = d
				queue = append(queue, distanceQueueNode{nodeID: neighbor, distance: d})
			}
		}
	}

	// Nodes the walk missed inherit from their hierarchy parent
	for _, n := range g.Nodes {
		if _, exists := distances[n.ID]; !exists {
			distances[n.ID] = inheritedDistance(n.ID, distances)
		}
	}
	return distances
}

// buildAdjacencyList creates an undirected adjacency list from graph edges
func buildAdjacencyList(g *model.GraphResult, relations []string) map[string][]string {
	keep := make(map[string]bool, len(relations))
	for _, r := range relations {
		keep[r] = true
	}

	adjacency := make(map[string][]string)
	for _, e := range g.Edges {
		if len(keep) > 0 && !keep[e.Relation] {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		adjacency[e.Target] = append(adjacency[e.Target], e.Source)
	}
	return adjacency
}

func inheritedDistance(nodeID string, distances map[string]int) int {
	for parent := parentID(nodeID); parent != ""; parent = parentID(parent) {
		if d, ok := distances[parent]; ok && d != Unreachable {
			return d
		}
	}
	return Unreachable
}

// parentID returns the hierarchy parent of an object path:
//
//	UI/Panel/Button -> UI/Panel
//	UI -> ""
//
// Scene and script asset paths have no parent.
func parentID(nodeID string) string {
	if strings.HasPrefix(nodeID, "Assets/") || strings.HasPrefix(nodeID, "Packages/") {
		return ""
	}
	if idx := strings.LastIndex(nodeID, "/"); idx > 0 {
		return nodeID[:idx]
	}
	return ""
}
