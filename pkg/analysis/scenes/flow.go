package scenes

import (
	"fmt"

	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
)

// flowScene is one scene entry of a flow asset
type flowScene struct {
	name        string
	path        string
	transitions []flowTransition
}

type flowTransition struct {
	to      string
	trigger string
}

// scanFlowAssets adds an edge per transition of every asset shaped like a
// flow (a flowId and a scenes list) and returns the number of flows found.
func (a *Analyzer) scanFlowAssets(b *graphBuilder) int {
	flows := 0
	for _, asset := range a.host.Assets() {
		flowID, scenes, ok := parseFlow(asset)
		if !ok {
			continue
		}
		flows++

		// Transition targets name scenes of the same flow
		byName := make(map[string]string, len(scenes))
		for _, s := range scenes {
			if s.name != "" && s.path != "" {
				byName[s.name] = s.path
			}
		}

		for _, s := range scenes {
			if s.path == "" {
				continue
			}
			from, known := b.sceneIndex.resolve(s.path)
			b.addScene(from, known)
			for _, t := range s.transitions {
				ref, ok := byName[t.to]
				if !ok {
					ref = t.to
				}
				target, known := b.sceneIndex.resolve(ref)
				b.addScene(target, known)
				b.addEdge(from, target, model.RelationFlowTransition, asset.Path+"#"+t.trigger, map[string]any{
					"flowId":  flowID,
					"trigger": t.trigger,
					"asset":   asset.Path,
				})
			}
		}
	}
	return flows
}

// parseFlow reads the flow shape out of an asset's field tree
func parseFlow(asset *project.Asset) (string, []flowScene, bool) {
	id, hasID := asset.Fields["flowId"]
	rawScenes, hasScenes := asset.Fields["scenes"].([]any)
	if !hasID || !hasScenes {
		return "", nil, false
	}

	var scenes []flowScene
	for _, item := range rawScenes {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		s := flowScene{name: asString(m["name"]), path: asString(m["scenePath"])}
		if s.name == "" && s.path != "" {
			s.name = project.SceneName(s.path)
		}
		transitions, _ := m["transitions"].([]any)
		for _, ti := range transitions {
			tm, ok := asMap(ti)
			if !ok {
				continue
			}
			if to := asString(tm["toScene"]); to != "" {
				s.transitions = append(s.transitions, flowTransition{to: to, trigger: asString(tm["trigger"])})
			}
		}
		scenes = append(scenes, s)
	}
	return fmt.Sprint(id), scenes, true
}

// asMap accepts both decoder map flavors
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
