package model

// Metadata keys shared by the analyzers and the encoders
const (
	MetaAnalysisTarget     = "analysisTarget"
	MetaDepth              = "depth"
	MetaCycles             = "cycles"
	MetaScenePath          = "scenePath"
	MetaOrphans            = "orphans"
	MetaBuildOrder         = "buildOrder"
	MetaUnregisteredScenes = "unregisteredScenes"
)

// ClassGraph narrows a class dependency (or dependents) graph
type ClassGraph struct {
	*GraphResult
}

// NewClassGraph creates a class dependency graph for the given target
func NewClassGraph(graphType GraphType, target string, depth int) *ClassGraph {
	g := &ClassGraph{NewGraphResult(graphType)}
	g.Metadata[MetaAnalysisTarget] = target
	if graphType == GraphClassDependency {
		g.Metadata[MetaDepth] = depth
	}
	return g
}

// AnalysisTarget is the type, assembly or namespace the graph was built for
func (g *ClassGraph) AnalysisTarget() string {
	return stringMeta(g.Metadata, MetaAnalysisTarget)
}

// Depth is the traversal bound used
func (g *ClassGraph) Depth() int {
	switch v := g.Metadata[MetaDepth].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Cycles returns dependency cycles detected in the graph, if any
func (g *ClassGraph) Cycles() [][]string {
	switch v := g.Metadata[MetaCycles].(type) {
	case [][]string:
		return v
	case []any:
		out := make([][]string, 0, len(v))
		for _, c := range v {
			out = append(out, toStrings(c))
		}
		return out
	}
	return nil
}

// SceneReferenceGraph narrows a scene reference graph
type SceneReferenceGraph struct {
	*GraphResult
}

// NewSceneReferenceGraph creates a reference graph for a scene
func NewSceneReferenceGraph(scenePath string) *SceneReferenceGraph {
	g := &SceneReferenceGraph{NewGraphResult(GraphSceneReference)}
	g.Metadata[MetaScenePath] = scenePath
	return g
}

// ScenePath is the analyzed scene
func (g *SceneReferenceGraph) ScenePath() string {
	return stringMeta(g.Metadata, MetaScenePath)
}

// Orphans lists unreferenced non-root objects; only set by orphan queries
func (g *SceneReferenceGraph) Orphans() []string {
	return toStrings(g.Metadata[MetaOrphans])
}

// SceneRelationshipGraph narrows a scene transition graph
type SceneRelationshipGraph struct {
	*GraphResult
}

// NewSceneRelationshipGraph creates an empty transition graph
func NewSceneRelationshipGraph() *SceneRelationshipGraph {
	return &SceneRelationshipGraph{NewGraphResult(GraphSceneRelationship)}
}

// BuildOrder is the enabled scenes of the build manifest in manifest order
func (g *SceneRelationshipGraph) BuildOrder() []string {
	return toStrings(g.Metadata[MetaBuildOrder])
}

// UnregisteredScenes are project scenes absent from the build manifest
func (g *SceneRelationshipGraph) UnregisteredScenes() []string {
	return toStrings(g.Metadata[MetaUnregisteredScenes])
}

func stringMeta(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
