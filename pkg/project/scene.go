package project

import (
	"path"
	"strconv"
	"strings"
)

// GameObjectType is the runtime type reported for scene objects themselves
const GameObjectType = "UnityEngine.GameObject"

// PropertyKind classifies a serialized property
type PropertyKind string

const (
	PropertyValue           PropertyKind = "value"
	PropertyObjectReference PropertyKind = "object_reference"
	PropertyEvent           PropertyKind = "event"
	PropertyGeneric         PropertyKind = "generic"
	PropertyArray           PropertyKind = "array"
)

// Property is one serialized field of a component. Object references keep
// the stored instance id as an identity token; the live referent is looked up
// in the scene arena, so a non-zero token that resolves to nothing is a
// dangling reference.
type Property struct {
	Name      string               `yaml:"name" json:"name"`
	Kind      PropertyKind         `yaml:"kind" json:"kind"`
	Type      string               `yaml:"type,omitempty" json:"type,omitempty"`
	Value     any                  `yaml:"value,omitempty" json:"value,omitempty"`
	Reference int64                `yaml:"ref,omitempty" json:"ref,omitempty"`
	Listeners []PersistentListener `yaml:"listeners,omitempty" json:"listeners,omitempty"`
	// Children holds members of generic properties and elements of arrays
	Children []*Property `yaml:"children,omitempty" json:"children,omitempty"`
}

// PersistentListener is a pre-wired event binding: target object and method name
type PersistentListener struct {
	Target int64  `yaml:"target" json:"target"`
	Method string `yaml:"method" json:"method"`
}

// Component is a script or engine component attached to a scene object.
// Missing marks a slot whose script can no longer be resolved.
type Component struct {
	InstanceID int64       `yaml:"id" json:"id"`
	Type       string      `yaml:"type,omitempty" json:"type,omitempty"`
	Missing    bool        `yaml:"missing,omitempty" json:"missing,omitempty"`
	Properties []*Property `yaml:"properties,omitempty" json:"properties,omitempty"`

	owner *SceneObject
}

// Owner returns the object the component is attached to
func (c *Component) Owner() *SceneObject {
	return c.owner
}

// PrefabStatus is the host's view of a prefab instance link
type PrefabStatus string

const (
	PrefabConnected    PrefabStatus = "connected"
	PrefabMissingAsset PrefabStatus = "missing_asset"
	PrefabDisconnected PrefabStatus = "disconnected"
)

// PrefabLink marks an object as the root of a prefab instance
type PrefabLink struct {
	Source string       `yaml:"source" json:"source"`
	Status PrefabStatus `yaml:"status,omitempty" json:"status,omitempty"`
}

// SceneObject is a node of the scene hierarchy
type SceneObject struct {
	InstanceID int64          `yaml:"id" json:"id"`
	Name       string         `yaml:"name" json:"name"`
	Inactive   bool           `yaml:"inactive,omitempty" json:"inactive,omitempty"`
	Prefab     *PrefabLink    `yaml:"prefab,omitempty" json:"prefab,omitempty"`
	Components []*Component   `yaml:"components,omitempty" json:"components,omitempty"`
	Children   []*SceneObject `yaml:"children,omitempty" json:"children,omitempty"`

	parent *SceneObject
}

// Parent returns the parent object, or nil for roots
func (o *SceneObject) Parent() *SceneObject {
	return o.parent
}

// IsRoot reports whether the object sits at the top of the hierarchy
func (o *SceneObject) IsRoot() bool {
	return o.parent == nil
}

// Path returns the slash-separated hierarchy path, e.g. "Canvas/Menu/Play"
func (o *SceneObject) Path() string {
	if o.parent == nil {
		return o.Name
	}
	return o.parent.Path() + "/" + o.Name
}

// ComponentTypes lists the types of attached components; missing slots are skipped
func (o *SceneObject) ComponentTypes() []string {
	types := make([]string, 0, len(o.Components))
	for _, c := range o.Components {
		if !c.Missing {
			types = append(types, c.Type)
		}
	}
	return types
}

// Walk visits the object and its descendants depth-first. Returning false
// from fn skips the children of that object.
func (o *SceneObject) Walk(fn func(*SceneObject) bool) {
	if !fn(o) {
		return
	}
	for _, child := range o.Children {
		child.Walk(fn)
	}
}

// Referent is whatever an instance id resolves to: an object or a component
type Referent struct {
	Object    *SceneObject
	Component *Component
}

// Owner returns the scene object of the referent
func (r Referent) Owner() *SceneObject {
	if r.Component != nil {
		return r.Component.owner
	}
	return r.Object
}

// TypeName returns the runtime type of the referent
func (r Referent) TypeName() string {
	if r.Component != nil {
		return r.Component.Type
	}
	return GameObjectType
}

// Scene is a loaded object hierarchy plus an arena resolving instance ids
type Scene struct {
	Path   string         `yaml:"path" json:"path"`
	Active bool           `yaml:"active,omitempty" json:"active,omitempty"`
	Roots  []*SceneObject `yaml:"roots" json:"roots"`

	arena map[int64]Referent
}

// NewScene creates a linked scene from root objects
func NewScene(scenePath string, roots ...*SceneObject) *Scene {
	s := &Scene{Path: scenePath, Roots: roots}
	s.Link()
	return s
}

// Link sets parent pointers and rebuilds the instance id arena. Loaders call
// it after decoding; it is idempotent.
func (s *Scene) Link() {
	s.arena = make(map[int64]Referent)
	var link func(o *SceneObject, parent *SceneObject)
	link = func(o *SceneObject, parent *SceneObject) {
		o.parent = parent
		if o.InstanceID != 0 {
			s.arena[o.InstanceID] = Referent{Object: o}
		}
		for _, c := range o.Components {
			c.owner = o
			if c.InstanceID != 0 && !c.Missing {
				s.arena[c.InstanceID] = Referent{Component: c}
			}
		}
		for _, child := range o.Children {
			link(child, o)
		}
	}
	for _, root := range s.Roots {
		link(root, nil)
	}
}

// Name returns the scene file name without extension
func (s *Scene) Name() string {
	return SceneName(s.Path)
}

// Resolve returns the live referent of an instance id
func (s *Scene) Resolve(id int64) (Referent, bool) {
	if id == 0 {
		return Referent{}, false
	}
	if s.arena == nil {
		s.Link()
	}
	r, ok := s.arena[id]
	return r, ok
}

// Find looks an object up by hierarchy path
func (s *Scene) Find(objectPath string) (*SceneObject, bool) {
	objectPath = strings.Trim(objectPath, "/")
	var found *SceneObject
	for _, root := range s.Roots {
		root.Walk(func(o *SceneObject) bool {
			if found != nil {
				return false
			}
			p := o.Path()
			if p == objectPath {
				found = o
				return false
			}
			// Only descend where the path can still match
			return strings.HasPrefix(objectPath, p+"/")
		})
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// Objects returns every object of the scene in depth-first order
func (s *Scene) Objects() []*SceneObject {
	var objects []*SceneObject
	for _, root := range s.Roots {
		root.Walk(func(o *SceneObject) bool {
			objects = append(objects, o)
			return true
		})
	}
	return objects
}

// RemoveMissingComponents drops every missing script slot from the object
// and returns how many were removed.
func (s *Scene) RemoveMissingComponents(o *SceneObject) int {
	kept := o.Components[:0]
	removed := 0
	for _, c := range o.Components {
		if c.Missing {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	// Clear the tail so dropped components can be collected
	for i := len(kept); i < len(o.Components); i++ {
		o.Components[i] = nil
	}
	o.Components = kept
	return removed
}

// WalkProperties visits properties recursively. Generic members get
// "parent.child" paths and array elements "parent[i]" paths.
func WalkProperties(props []*Property, fn func(propertyPath string, p *Property)) {
	for _, p := range props {
		walkProperty(p.Name, p, fn)
	}
}

func walkProperty(propertyPath string, p *Property, fn func(string, *Property)) {
	fn(propertyPath, p)
	for i, child := range p.Children {
		var childPath string
		if p.Kind == PropertyArray {
			childPath = propertyPath + "[" + strconv.Itoa(i) + "]"
		} else {
			childPath = propertyPath + "." + child.Name
		}
		walkProperty(childPath, child, fn)
	}
}

// SceneName returns the file name of a scene path without extension
func SceneName(scenePath string) string {
	base := path.Base(NormalizePath(scenePath))
	return strings.TrimSuffix(base, path.Ext(base))
}

// NormalizePath converts a path to the canonical project-relative form:
// forward slashes, no leading "./".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return p
	}
	return path.Clean(p)
}

// Clone returns a deep, linked copy of the scene
func (s *Scene) Clone() *Scene {
	roots := make([]*SceneObject, len(s.Roots))
	for i, r := range s.Roots {
		roots[i] = r.clone()
	}
	c := &Scene{Path: s.Path, Active: s.Active, Roots: roots}
	c.Link()
	return c
}

func (o *SceneObject) clone() *SceneObject {
	c := *o
	c.parent = nil
	if o.Prefab != nil {
		link := *o.Prefab
		c.Prefab = &link
	}
	c.Components = make([]*Component, len(o.Components))
	for i, comp := range o.Components {
		cc := *comp
		cc.owner = nil
		cc.Properties = cloneProperties(comp.Properties)
		c.Components[i] = &cc
	}
	c.Children = make([]*SceneObject, len(o.Children))
	for i, child := range o.Children {
		c.Children[i] = child.clone()
	}
	return &c
}

func cloneProperties(props []*Property) []*Property {
	if props == nil {
		return nil
	}
	out := make([]*Property, len(props))
	for i, p := range props {
		cp := *p
		cp.Listeners = append([]PersistentListener(nil), p.Listeners...)
		cp.Children = cloneProperties(p.Children)
		out[i] = &cp
	}
	return out
}
