package command

import (
	"github.com/ritzau/forge-graph/pkg/analysis/classdeps"
	"github.com/ritzau/forge-graph/pkg/analysis/integrity"
	"github.com/ritzau/forge-graph/pkg/analysis/scenerefs"
	"github.com/ritzau/forge-graph/pkg/analysis/scenes"
	"github.com/ritzau/forge-graph/pkg/catalog"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/snapshot"
	"github.com/ritzau/forge-graph/pkg/syntax"
)

// env is what an operation runs against
type env struct {
	snap *snapshot.Snapshot
	opts Options
}

// operation is one entry of the operation table. Target names the parameter
// a bare "target" fills in. Graph operations return *model.GraphResult.
type operation struct {
	target string
	write  bool
	run    func(e *env, p Params) (any, error)
}

var operations = map[string]operation{
	// type catalog
	"list_types":   {target: "search_scope", run: listTypes},
	"inspect_type": {target: "type_name", run: inspectType},

	// class dependencies
	"analyze_class":     {target: "type_name", run: analyzeClass},
	"find_dependencies": {target: "type_name", run: findDependencies},
	"analyze_assembly":  {target: "assembly_name", run: analyzeAssembly},
	"analyze_namespace": {target: "namespace", run: analyzeNamespace},
	"find_dependents":   {target: "type_name", run: findDependents},

	// scene references
	"analyze_scene_references":  {target: "scene_path", run: analyzeSceneReferences},
	"analyze_object_references": {target: "object_path", run: analyzeObjectReferences},
	"find_references_to":        {target: "object_path", run: findReferencesTo},
	"find_references_from":      {target: "object_path", run: findReferencesFrom},
	"find_orphans":              {target: "scene_path", run: findOrphans},

	// scene relationships
	"analyze_scene_relationships": {run: analyzeSceneRelationships},
	"analyze_scene_transitions":   {target: "scene_path", run: analyzeSceneTransitions},
	"find_transitions_from":       {target: "scene_path", run: findTransitionsFrom},
	"find_transitions_to":         {target: "scene_path", run: findTransitionsTo},
	"validate_build_settings":     {run: validateBuildSettings},

	// integrity
	"check_missing_scripts":  {target: "object_path", run: integrityCheck((*integrity.Analyzer).CheckMissingScripts)},
	"check_null_references":  {target: "object_path", run: integrityCheck((*integrity.Analyzer).CheckNullReferences)},
	"check_broken_events":    {target: "object_path", run: integrityCheck((*integrity.Analyzer).CheckBrokenEvents)},
	"check_broken_prefabs":   {target: "object_path", run: integrityCheck((*integrity.Analyzer).CheckBrokenPrefabs)},
	"check_type_mismatches":  {target: "object_path", run: integrityCheck((*integrity.Analyzer).CheckTypeMismatches)},
	"find_all_issues":        {target: "object_path", run: integrityCheck((*integrity.Analyzer).FindAllIssues)},
	"remove_missing_scripts": {target: "object_path", write: true, run: removeMissingScripts},
	"check_prefab":           {target: "prefab_path", run: checkPrefab},

	// syntax
	"analyze_script":   {target: "script_path", run: analyzeScript},
	"find_references":  {target: "symbol_name", run: findReferences},
	"find_unused_code": {target: "scope", run: findUnusedCode},
	"analyze_metrics":  {target: "scope", run: analyzeMetrics},
}

func listTypes(e *env, p Params) (any, error) {
	var opts catalog.ListOptions
	var err error
	for key, dst := range map[string]*string{
		"search_scope":      &opts.SearchScope,
		"type_kind":         &opts.TypeKind,
		"namespace_filter":  &opts.NamespaceFilter,
		"base_class_filter": &opts.BaseClassFilter,
		"name_pattern":      &opts.NamePattern,
	} {
		if *dst, err = p.String(key); err != nil {
			return nil, err
		}
	}
	if opts.MaxResults, err = p.Int("max_results", catalog.DefaultMaxResults); err != nil {
		return nil, err
	}
	return catalog.New(e.snap, e.opts.Markers).ListTypes(opts)
}

func inspectType(e *env, p Params) (any, error) {
	name, err := p.RequiredString("type_name")
	if err != nil {
		return nil, err
	}
	var opts catalog.InspectOptions
	for key, dst := range map[string]*bool{
		"include_fields":     &opts.IncludeFields,
		"include_methods":    &opts.IncludeMethods,
		"include_properties": &opts.IncludeProperties,
	} {
		if *dst, err = p.Bool(key, true); err != nil {
			return nil, err
		}
	}
	return catalog.New(e.snap, e.opts.Markers).InspectType(name, opts)
}

// classQuery reads the parameters shared by the class dependency operations
type classQuery struct {
	name     string
	depth    int
	builtins bool
}

func parseClassQuery(e *env, p Params, key string) (classQuery, error) {
	var q classQuery
	var err error
	if q.name, err = p.RequiredString(key); err != nil {
		return q, err
	}
	if q.depth, err = p.Int("depth", e.opts.Depth); err != nil {
		return q, err
	}
	q.builtins, err = p.Bool("include_builtins", false)
	return q, err
}

func (e *env) classDeps() *classdeps.Analyzer {
	return classdeps.New(e.snap, e.snap, e.opts.Markers)
}

func analyzeClass(e *env, p Params) (any, error) {
	q, err := parseClassQuery(e, p, "type_name")
	if err != nil {
		return nil, err
	}
	g, err := e.classDeps().AnalyzeClass(q.name, q.depth, q.builtins)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func findDependencies(e *env, p Params) (any, error) {
	q, err := parseClassQuery(e, p, "type_name")
	if err != nil {
		return nil, err
	}
	g, err := e.classDeps().FindDependencies(q.name, q.depth, q.builtins)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func analyzeAssembly(e *env, p Params) (any, error) {
	q, err := parseClassQuery(e, p, "assembly_name")
	if err != nil {
		return nil, err
	}
	g, err := e.classDeps().AnalyzeAssembly(q.name, q.depth, q.builtins)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func analyzeNamespace(e *env, p Params) (any, error) {
	q, err := parseClassQuery(e, p, "namespace")
	if err != nil {
		return nil, err
	}
	g, err := e.classDeps().AnalyzeNamespace(q.name, q.depth, q.builtins)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func findDependents(e *env, p Params) (any, error) {
	name, err := p.RequiredString("type_name")
	if err != nil {
		return nil, err
	}
	g, err := e.classDeps().FindDependents(name)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func analyzeSceneReferences(e *env, p Params) (any, error) {
	scenePath, err := p.String("scene_path")
	if err != nil {
		return nil, err
	}
	hierarchy, err := p.Bool("include_hierarchy", true)
	if err != nil {
		return nil, err
	}
	events, err := p.Bool("include_events", true)
	if err != nil {
		return nil, err
	}
	g, err := scenerefs.New(e.snap).AnalyzeScene(scenePath, hierarchy, events)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func analyzeObjectReferences(e *env, p Params) (any, error) {
	objectPath, err := p.RequiredString("object_path")
	if err != nil {
		return nil, err
	}
	children, err := p.Bool("include_children", false)
	if err != nil {
		return nil, err
	}
	events, err := p.Bool("include_events", true)
	if err != nil {
		return nil, err
	}
	g, err := scenerefs.New(e.snap).AnalyzeObject(objectPath, children, events)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func findReferencesTo(e *env, p Params) (any, error) {
	objectPath, err := p.RequiredString("object_path")
	if err != nil {
		return nil, err
	}
	g, err := scenerefs.New(e.snap).FindReferencesTo(objectPath)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func findReferencesFrom(e *env, p Params) (any, error) {
	objectPath, err := p.RequiredString("object_path")
	if err != nil {
		return nil, err
	}
	g, err := scenerefs.New(e.snap).FindReferencesFrom(objectPath)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func findOrphans(e *env, p Params) (any, error) {
	scenePath, err := p.String("scene_path")
	if err != nil {
		return nil, err
	}
	g, err := scenerefs.New(e.snap).FindOrphans(scenePath)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func analyzeSceneRelationships(e *env, _ Params) (any, error) {
	g, err := scenes.New(e.snap).AnalyzeAll()
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

// sceneQuery runs a scene relationship query that takes a required scene
func sceneQuery(p Params, query func(string) (*model.SceneRelationshipGraph, error)) (any, error) {
	scenePath, err := p.RequiredString("scene_path")
	if err != nil {
		return nil, err
	}
	g, err := query(scenePath)
	if err != nil {
		return nil, err
	}
	return g.GraphResult, nil
}

func analyzeSceneTransitions(e *env, p Params) (any, error) {
	return sceneQuery(p, scenes.New(e.snap).AnalyzeScene)
}

func findTransitionsFrom(e *env, p Params) (any, error) {
	return sceneQuery(p, scenes.New(e.snap).FindTransitionsFrom)
}

func findTransitionsTo(e *env, p Params) (any, error) {
	return sceneQuery(p, scenes.New(e.snap).FindTransitionsTo)
}

func validateBuildSettings(e *env, _ Params) (any, error) {
	return scenes.New(e.snap).ValidateBuildSettings()
}

func integrityTarget(p Params) (integrity.Target, error) {
	var t integrity.Target
	var err error
	if t.ScenePath, err = p.String("scene_path"); err != nil {
		return t, err
	}
	if t.ObjectPath, err = p.String("object_path"); err != nil {
		return t, err
	}
	t.IncludeChildren, err = p.Bool("include_children", true)
	return t, err
}

func (e *env) integrity() *integrity.Analyzer {
	a := integrity.New(e.snap)
	a.SetSuggestionLimit(e.opts.SuggestionLimit)
	return a
}

func integrityCheck(check func(*integrity.Analyzer, integrity.Target) (*integrity.Report, error)) func(*env, Params) (any, error) {
	return func(e *env, p Params) (any, error) {
		t, err := integrityTarget(p)
		if err != nil {
			return nil, err
		}
		return check(e.integrity(), t)
	}
}

func removeMissingScripts(e *env, p Params) (any, error) {
	t, err := integrityTarget(p)
	if err != nil {
		return nil, err
	}
	return e.integrity().RemoveMissingScripts(t)
}

func checkPrefab(e *env, p Params) (any, error) {
	prefabPath, err := p.RequiredString("prefab_path")
	if err != nil {
		return nil, err
	}
	return e.integrity().CheckPrefab(prefabPath)
}

func analyzeScript(e *env, p Params) (any, error) {
	scriptPath, err := p.RequiredString("script_path")
	if err != nil {
		return nil, err
	}
	return syntax.New(e.snap).AnalyzeScript(scriptPath)
}

func findReferences(e *env, p Params) (any, error) {
	symbol, err := p.RequiredString("symbol_name")
	if err != nil {
		return nil, err
	}
	kind, err := p.String("symbol_kind")
	if err != nil {
		return nil, err
	}
	scope, err := p.String("scope")
	if err != nil {
		return nil, err
	}
	return syntax.New(e.snap).FindReferences(symbol, kind, scope)
}

func findUnusedCode(e *env, p Params) (any, error) {
	scope, err := p.String("scope")
	if err != nil {
		return nil, err
	}
	kind, err := p.String("symbol_kind")
	if err != nil {
		return nil, err
	}
	return syntax.New(e.snap).FindUnusedCode(scope, kind)
}

func analyzeMetrics(e *env, p Params) (any, error) {
	scope, err := p.String("scope")
	if err != nil {
		return nil, err
	}
	topN, err := p.Int("top_n", e.opts.MetricsTopN)
	if err != nil {
		return nil, err
	}
	return syntax.New(e.snap).AnalyzeMetrics(scope, topN)
}
