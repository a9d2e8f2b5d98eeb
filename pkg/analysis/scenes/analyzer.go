// Package scenes builds the graph of transitions between scenes, from load
// calls in scripts and from flow assets, and checks it against the build
// manifest.
package scenes

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/syntax"
)

// Load modes recorded on scene_load edges
const (
	LoadModeSingle   = "Single"
	LoadModeAdditive = "Additive"
)

// Host is what the analyzer reads from the project
type Host interface {
	project.SourceIndex
	project.SceneProvider
	project.BuildManifest
	project.AssetIndex
}

// Analyzer answers scene relationship queries
type Analyzer struct {
	host Host
	log  *slog.Logger
}

// New creates an analyzer over the host project
func New(host Host) *Analyzer {
	return &Analyzer{host: host, log: logging.New("analysis.scenes")}
}

var loadCallPattern = regexp.MustCompile(`\bSceneManager\s*\.\s*(LoadScene(?:Async)?)\s*\(\s*("(?:[^"\\\n]|\\.)*"|[^,)\n]+?)\s*(?:,\s*(?:UnityEngine\.SceneManagement\.)?LoadSceneMode\s*\.\s*(\w+))?\s*[,)]`)

// sceneIndex is the per-query view of scenes and the build manifest
type sceneIndex struct {
	build      []project.BuildScene
	buildOrder []string
	inBuild    map[string]project.BuildScene
	byName     map[string]string
	discovered []string
}

func (a *Analyzer) newSceneIndex() *sceneIndex {
	c := &sceneIndex{
		build:   a.host.BuildScenes(),
		inBuild: make(map[string]project.BuildScene),
		byName:  make(map[string]string),
	}
	for _, b := range c.build {
		c.inBuild[b.Path] = b
		if b.Enabled {
			c.buildOrder = append(c.buildOrder, b.Path)
		}
		c.remember(b.Path)
	}
	files, err := a.host.SceneFiles()
	if err != nil {
		a.log.Debug("Listing scene files failed", "error", err)
	}
	for _, f := range files {
		c.discovered = append(c.discovered, f)
		c.remember(f)
	}
	return c
}

func (c *sceneIndex) remember(scenePath string) {
	name := project.SceneName(scenePath)
	if _, ok := c.byName[name]; !ok {
		c.byName[name] = scenePath
	}
}

// resolve turns a load-call argument into a scene id. Paths are normalized,
// bare names go through the name map and integers index the enabled build
// scenes. Unresolvable names are returned as given.
func (c *sceneIndex) resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 0 && n < len(c.buildOrder) {
			return c.buildOrder[n], true
		}
		return "#" + ref, false
	}
	if strings.Contains(ref, "/") || strings.HasSuffix(ref, ".unity") {
		p := project.NormalizePath(ref)
		if !strings.HasSuffix(p, ".unity") {
			p += ".unity"
		}
		if _, ok := c.inBuild[p]; ok {
			return p, true
		}
		if v, ok := c.byName[project.SceneName(p)]; ok && v == p {
			return p, true
		}
		return p, false
	}
	if p, ok := c.byName[ref]; ok {
		return p, true
	}
	return ref, false
}

// AnalyzeAll builds the full scene relationship graph
func (a *Analyzer) AnalyzeAll() (*model.SceneRelationshipGraph, error) {
	c := a.newSceneIndex()
	g := model.NewSceneRelationshipGraph()
	b := &graphBuilder{g: g.GraphResult, sceneIndex: c}

	for _, p := range c.discovered {
		b.addScene(p, true)
	}
	for _, entry := range c.build {
		b.addScene(entry.Path, true)
	}

	dynamic, unresolved, err := a.scanLoadCalls(b)
	if err != nil {
		return nil, err
	}
	flows := a.scanFlowAssets(b)

	registered := make(map[string]bool, len(c.build))
	for _, entry := range c.build {
		registered[entry.Path] = true
	}
	unregistered := []string{}
	for _, p := range c.discovered {
		if !registered[p] {
			unregistered = append(unregistered, p)
		}
	}

	g.Metadata[model.MetaBuildOrder] = append([]string{}, c.buildOrder...)
	g.Metadata[model.MetaUnregisteredScenes] = unregistered
	g.Metadata["flowCount"] = flows
	g.Metadata["dynamicLoads"] = dynamic
	g.Metadata["unresolvedLoads"] = unresolved
	a.log.Debug("Scene relationships analyzed", "scenes", len(g.Nodes), "transitions", len(g.Edges), "flows", flows)
	return g, nil
}

// scanLoadCalls adds an edge per load call found in scripts. The edge source
// is each scene that uses a type declared in the script, or the script
// itself when no scene does. Calls with computed arguments and calls naming
// no known scene add no edge; both are only counted.
func (a *Analyzer) scanLoadCalls(b *graphBuilder) (dynamic, unresolved int, err error) {
	paths, err := a.host.SourceFiles("")
	if err != nil {
		return 0, 0, err
	}
	users := a.componentUsers(b.sceneIndex.discovered)

	for _, p := range paths {
		raw, err := a.host.ReadSource(p)
		if err != nil {
			a.log.Debug("Skipping unreadable source", "file", p, "error", err)
			continue
		}
		calls := findLoadCalls(raw)
		if len(calls) == 0 {
			continue
		}

		var sources []string
		for _, call := range calls {
			if !call.literal && !isInteger(call.arg) {
				dynamic++
				a.log.Debug("Skipping computed scene argument", "file", p, "line", call.line, "arg", call.arg)
				continue
			}
			target, known := b.sceneIndex.resolve(call.arg)
			if !known {
				unresolved++
				a.log.Debug("Skipping load of unknown scene", "file", p, "line", call.line, "arg", call.arg)
				continue
			}
			if sources == nil {
				sources = scriptScenes(syntax.ParseScript(p, raw), users)
				if len(sources) == 0 {
					b.addScript(p)
					sources = []string{p}
				}
			}
			b.addScene(target, true)
			for _, src := range sources {
				b.addEdge(src, target, model.RelationSceneLoad, p+":"+strconv.Itoa(call.line), map[string]any{
					"method":     call.method,
					"loadMode":   call.mode,
					"async":      call.method == "LoadSceneAsync",
					"sourceFile": p,
					"line":       call.line,
				})
			}
		}
	}
	return dynamic, unresolved, nil
}

type loadCall struct {
	method  string
	arg     string
	literal bool
	mode    string
	line    int
}

// findLoadCalls locates calls on the stripped text and reads their arguments
// from the raw line at the same offset, so calls inside comments or strings
// are ignored. Stripping keeps column offsets up to a line comment.
func findLoadCalls(raw string) []loadCall {
	stripped := strings.Split(syntax.StripCommentsAndStrings(raw), "\n")
	rawLines := strings.Split(raw, "\n")

	var calls []loadCall
	for i, line := range stripped {
		if i >= len(rawLines) {
			break
		}
		for _, loc := range loadCallPattern.FindAllStringIndex(line, -1) {
			if loc[0] > len(rawLines[i]) {
				continue
			}
			m := loadCallPattern.FindStringSubmatchIndex(rawLines[i][loc[0]:])
			if m == nil || m[0] != 0 {
				continue
			}
			calls = append(calls, newLoadCall(rawLines[i][loc[0]:], m, i+1))
		}
	}
	return calls
}

func newLoadCall(s string, m []int, line int) loadCall {
	group := func(n int) string {
		if m[2*n] < 0 {
			return ""
		}
		return s[m[2*n]:m[2*n+1]]
	}
	call := loadCall{method: group(1), arg: group(2), mode: LoadModeSingle, line: line}
	if strings.HasPrefix(call.arg, `"`) {
		if unquoted, err := strconv.Unquote(call.arg); err == nil {
			call.arg = unquoted
			call.literal = true
		}
	}
	if mode := group(3); mode != "" {
		call.mode = mode
	}
	return call
}

func isInteger(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

// componentUsers maps simple component type names to the scenes using them
func (a *Analyzer) componentUsers(scenePaths []string) map[string][]string {
	users := make(map[string][]string)
	for _, p := range scenePaths {
		scene, err := a.host.OpenScene(p)
		if err != nil {
			continue
		}
		seen := make(map[string]bool)
		for _, o := range scene.Objects() {
			for _, t := range o.ComponentTypes() {
				name := project.SimpleName(t)
				if !seen[name] {
					seen[name] = true
					users[name] = append(users[name], scene.Path)
				}
			}
		}
	}
	return users
}

func scriptScenes(info *syntax.ScriptInfo, users map[string][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range info.Types {
		for _, s := range users[t.Name] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

type edgeKey struct {
	source, target, relation, origin string
}

// graphBuilder adds scene nodes and deduplicated transition edges
type graphBuilder struct {
	g          *model.GraphResult
	sceneIndex *sceneIndex
	edges      map[edgeKey]bool
}

func (b *graphBuilder) addScene(id string, known bool) {
	if b.g.HasNode(id) {
		return
	}
	node := model.NewNode(id, model.NodeScene)
	node.Properties["name"] = project.SceneName(id)
	entry, registered := b.sceneIndex.inBuild[id]
	node.Properties["inBuild"] = registered
	if registered {
		node.Properties["enabled"] = entry.Enabled
		for i, p := range b.sceneIndex.buildOrder {
			if p == id {
				node.Properties["buildIndex"] = i
				break
			}
		}
	}
	if !known {
		node.Properties["unresolved"] = true
	}
	b.g.AddNode(node)
}

func (b *graphBuilder) addScript(path string) {
	if b.g.HasNode(path) {
		return
	}
	node := model.NewNode(path, model.NodeScript)
	node.Properties["name"] = project.SceneName(path)
	b.g.AddNode(node)
}

func (b *graphBuilder) addEdge(source, target, relation, origin string, details map[string]any) {
	if b.edges == nil {
		b.edges = make(map[edgeKey]bool)
	}
	key := edgeKey{source, target, relation, origin}
	if b.edges[key] {
		return
	}
	b.edges[key] = true
	edge := model.NewEdge(source, target, relation)
	for k, v := range details {
		edge.Details[k] = v
	}
	b.g.AddEdge(edge)
}
