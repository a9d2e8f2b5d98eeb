package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/forge-graph/pkg/graph"
	"github.com/ritzau/forge-graph/pkg/model"
)

// FindCycles returns the groups of mutually dependent nodes of a result.
// Each group is sorted, and groups are ordered by their first member.
// Relations restricts the edges considered; none means all.
func FindCycles(g *model.GraphResult, relations ...string) [][]string {
	ig := graph.FromResult(g, relations...)
	var cycles [][]string
	for _, scc := range topo.TarjanSCC(ig.Graph()) {
		// Single nodes are components too; only groups form a cycle
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, ig.Name(n.ID()))
		}
		sort.Strings(members)
		cycles = append(cycles, members)
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}

// Annotate stores the cycles of a class graph in its metadata. Nothing is
// stored when the graph is acyclic.
func Annotate(g *model.GraphResult) {
	found := FindCycles(g)
	if len(found) > 0 {
		g.Metadata[model.MetaCycles] = found
	}
}
