package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Output formats understood by Encode
const (
	FormatJSON    = "json"
	FormatDot     = "dot"
	FormatMermaid = "mermaid"
	FormatSummary = "summary"
)

// Formats lists the supported encodings
var Formats = []string{FormatJSON, FormatDot, FormatMermaid, FormatSummary}

// node fill colors by node type
var nodeColors = map[string]string{
	NodeClass:            "#bbdefb",
	NodeInterface:        "#c8e6c9",
	NodeEnum:             "#fff9c4",
	NodeStruct:           "#ffe0b2",
	NodeMonoBehaviour:    "#b3e5fc",
	NodeScriptableObject: "#e1bee7",
	NodeBuiltin:          "#eeeeee",
	NodeExternal:         "#f5f5f5",
	NodeGameObject:       "#dcedc8",
	NodeScene:            "#ffccbc",
	NodeScript:           "#d7ccc8",
}

const defaultNodeColor = "#ffffff"

// edge line styles by relation, in DOT vocabulary
var edgeStyles = map[string]string{
	RelationInherits:           "bold",
	RelationImplements:         "dashed",
	RelationFieldReference:     "solid",
	RelationRequiresComponent:  "dashed",
	RelationHierarchyChild:     "dotted",
	RelationComponentReference: "solid",
	RelationUIEvent:            "dashed",
	RelationSceneLoad:          "solid",
	RelationFlowTransition:     "bold",
}

// NodeColor returns the fill color used for a node type
func NodeColor(nodeType string) string {
	if c, ok := nodeColors[nodeType]; ok {
		return c
	}
	return defaultNodeColor
}

// EdgeStyle returns the line style used for a relation
func EdgeStyle(relation string) string {
	if s, ok := edgeStyles[relation]; ok {
		return s
	}
	return "solid"
}

// Encode renders the graph in one of the supported formats
func (g *GraphResult) Encode(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		data, err := json.MarshalIndent(g.ToDictionary(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding graph as JSON: %w", err)
		}
		return string(data), nil
	case FormatDot:
		return g.ToDot(), nil
	case FormatMermaid:
		return g.ToMermaid(), nil
	case FormatSummary:
		return g.ToSummary(), nil
	default:
		return "", fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ToDot renders the graph as a Graphviz digraph
func (g *GraphResult) ToDot() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %s {\n", dotQuote(string(g.GraphType)))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, "  %s [label=%s, fillcolor=%s];\n",
			dotQuote(n.ID), dotQuote(nodeLabel(n)), dotQuote(NodeColor(n.Type)))
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "  %s -> %s [label=%s, style=%s];\n",
			dotQuote(e.Source), dotQuote(e.Target), dotQuote(e.Relation), EdgeStyle(e.Relation))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// ToMermaid renders the graph as a Mermaid flowchart
func (g *GraphResult) ToMermaid() string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := mermaidIDs(g)

	// Edge targets may not have a node of their own
	declared := make(map[string]bool)
	declare := func(id, label string) {
		if declared[id] {
			return
		}
		declared[id] = true
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", ids[id], mermaidEscape(label))
	}

	for _, n := range g.Nodes {
		declare(n.ID, nodeLabel(n))
	}
	for _, e := range g.Edges {
		declare(e.Source, e.Source)
		declare(e.Target, e.Target)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "  %s %s|%s| %s\n", ids[e.Source], mermaidArrow(e.Relation), e.Relation, ids[e.Target])
	}

	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, "  style %s fill:%s\n", ids[n.ID], NodeColor(n.Type))
	}

	return sb.String()
}

// ToSummary renders node and edge counts grouped by type and relation
func (g *GraphResult) ToSummary() string {
	nodeCounts := make(map[string]int)
	for _, n := range g.Nodes {
		nodeCounts[n.Type]++
	}
	edgeCounts := make(map[string]int)
	for _, e := range g.Edges {
		edgeCounts[e.Relation]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Graph: %s\n", g.GraphType)
	if target := stringMeta(g.Metadata, MetaAnalysisTarget); target != "" {
		fmt.Fprintf(&sb, "Target: %s\n", target)
	}
	fmt.Fprintf(&sb, "Nodes: %d\n", len(g.Nodes))
	writeCounts(&sb, nodeCounts)
	fmt.Fprintf(&sb, "Edges: %d\n", len(g.Edges))
	writeCounts(&sb, edgeCounts)
	return sb.String()
}

func writeCounts(sb *strings.Builder, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sb, "  %s: %d\n", k, counts[k])
	}
}

func nodeLabel(n *GraphNode) string {
	if name, ok := n.Properties["name"].(string); ok && name != "" {
		return name
	}
	return n.ID
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func mermaidArrow(relation string) string {
	switch EdgeStyle(relation) {
	case "bold":
		return "==>"
	case "dashed", "dotted":
		return "-.->"
	default:
		return "-->"
	}
}

func mermaidEscape(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `<`, "#lt;")
	s = strings.ReplaceAll(s, `>`, "#gt;")
	return s
}

// mermaidIDs assigns every node and edge endpoint a sanitized, unique id
func mermaidIDs(g *GraphResult) map[string]string {
	ids := make(map[string]string)
	used := make(map[string]bool)

	assign := func(id string) {
		if _, ok := ids[id]; ok {
			return
		}
		base := sanitizeMermaidID(id)
		mid := base
		for i := 2; used[mid]; i++ {
			mid = fmt.Sprintf("%s_%d", base, i)
		}
		used[mid] = true
		ids[id] = mid
	}

	for _, n := range g.Nodes {
		assign(n.ID)
	}
	for _, e := range g.Edges {
		assign(e.Source)
		assign(e.Target)
	}
	return ids
}

func sanitizeMermaidID(nodeID string) string {
	id := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, nodeID)
	if id == "" {
		return "node"
	}
	// Mermaid ids may not start with a digit and "end" is a keyword
	if id[0] >= '0' && id[0] <= '9' || strings.EqualFold(id, "end") {
		id = "n_" + id
	}
	return id
}
