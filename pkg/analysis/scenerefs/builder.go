package scenerefs

import (
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
)

type edgeKey struct {
	source, target, component, field string
}

// builder accumulates one reference graph. It is discarded after the query.
type builder struct {
	scene            *project.Scene
	g                *model.SceneReferenceGraph
	includeHierarchy bool
	includeEvents    bool
	edges            map[edgeKey]bool
}

func newBuilder(scene *project.Scene, includeHierarchy, includeEvents bool) *builder {
	return &builder{
		scene:            scene,
		g:                model.NewSceneReferenceGraph(scene.Path),
		includeHierarchy: includeHierarchy,
		includeEvents:    includeEvents,
		edges:            make(map[edgeKey]bool),
	}
}

// walk adds o, its outgoing references and, when recurse is set, its subtree
func (b *builder) walk(o *project.SceneObject, recurse bool) {
	b.addObject(o)
	for _, c := range o.Components {
		if c.Missing {
			continue
		}
		b.addComponentReferences(o, c)
	}
	if !recurse {
		return
	}
	for _, child := range o.Children {
		b.addObject(child)
		if b.includeHierarchy {
			b.addEdge(o.Path(), child.Path(), model.RelationHierarchyChild, "", "", nil)
		}
		b.walk(child, true)
	}
}

func (b *builder) addObject(o *project.SceneObject) {
	id := o.Path()
	if b.g.HasNode(id) {
		return
	}
	node := model.NewNode(id, model.NodeGameObject)
	node.Properties["name"] = o.Name
	node.Properties["instanceId"] = o.InstanceID
	node.Properties["components"] = o.ComponentTypes()
	node.Properties["isPrefabInstance"] = o.Prefab != nil
	if o.Prefab != nil {
		node.Properties["prefabSource"] = o.Prefab.Source
	}
	node.Properties["active"] = !o.Inactive
	node.Properties["isRoot"] = o.IsRoot()
	b.g.AddNode(node)
}

// addComponentReferences emits reference and event edges for one component.
// Dangling references and listeners are skipped; the integrity checks report them.
func (b *builder) addComponentReferences(o *project.SceneObject, c *project.Component) {
	source := o.Path()
	project.WalkProperties(c.Properties, func(field string, p *project.Property) {
		switch p.Kind {
		case project.PropertyObjectReference:
			ref, ok := b.scene.Resolve(p.Reference)
			if !ok {
				return
			}
			target := ref.Owner()
			if target == o {
				return
			}
			details := map[string]any{"component": c.Type, "field": field}
			if ref.Component != nil {
				details["targetComponent"] = ref.Component.Type
			}
			b.addObject(target)
			b.addEdge(source, target.Path(), model.RelationComponentReference, c.Type, field, details)

		case project.PropertyEvent:
			if !b.includeEvents {
				return
			}
			for _, l := range p.Listeners {
				if l.Method == "" {
					continue
				}
				ref, ok := b.scene.Resolve(l.Target)
				if !ok {
					continue
				}
				target := ref.Owner()
				b.addObject(target)
				details := map[string]any{"component": c.Type, "event": field, "method": l.Method}
				if ref.Component != nil {
					details["targetComponent"] = ref.Component.Type
				}
				b.addEdge(source, target.Path(), model.RelationUIEvent, c.Type, field+"#"+l.Method, details)
			}
		}
	})
}

func (b *builder) addEdge(source, target, relation, component, field string, details map[string]any) {
	key := edgeKey{source, target, component, relation + ":" + field}
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
