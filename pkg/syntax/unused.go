package syntax

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ritzau/forge-graph/pkg/project"
)

// UnusedSymbol is a declaration with no occurrences outside its file
type UnusedSymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Access    string `json:"access"`
	Signature string `json:"signature,omitempty"`
}

// UnusedResult is the outcome of FindUnusedCode
type UnusedResult struct {
	Scope        string         `json:"scope,omitempty"`
	Kind         string         `json:"kind,omitempty"`
	Unused       []UnusedSymbol `json:"unused"`
	Count        int            `json:"count"`
	FilesScanned int            `json:"filesScanned"`
	Candidates   int            `json:"candidates"`
}

// Callbacks invoked by the engine through messaging
var lifecycleMethods = map[string]bool{
	"Awake": true, "Start": true, "Update": true, "FixedUpdate": true, "LateUpdate": true,
	"OnEnable": true, "OnDisable": true, "OnDestroy": true, "OnValidate": true, "Reset": true,
	"OnGUI": true, "OnApplicationQuit": true, "OnApplicationPause": true, "OnApplicationFocus": true,
	"OnTriggerEnter": true, "OnTriggerExit": true, "OnTriggerStay": true,
	"OnTriggerEnter2D": true, "OnTriggerExit2D": true, "OnTriggerStay2D": true,
	"OnCollisionEnter": true, "OnCollisionExit": true, "OnCollisionStay": true,
	"OnCollisionEnter2D": true, "OnCollisionExit2D": true, "OnCollisionStay2D": true,
	"OnMouseDown": true, "OnMouseUp": true, "OnMouseEnter": true, "OnMouseExit": true, "OnMouseOver": true,
	"OnBecameVisible": true, "OnBecameInvisible": true, "OnDrawGizmos": true, "OnDrawGizmosSelected": true,
	"OnAnimatorMove": true, "OnAnimatorIK": true, "OnRenderObject": true, "OnPreRender": true, "OnPostRender": true,
	"OnRenderImage": true, "OnTransformParentChanged": true, "OnTransformChildrenChanged": true,
	"OnInspectorGUI": true, "OnSceneGUI": true, "OnEnterState": true, "OnExitState": true,
	"OnBeforeSerialize": true, "OnAfterDeserialize": true,
}

// Entry points called by the runtime or tooling
var entryPoints = map[string]bool{
	"Main": true, "Dispose": true, "ToString": true, "Equals": true, "GetHashCode": true,
	"CompareTo": true, "GetEnumerator": true, "MoveNext": true,
}

// Base types whose subclasses the host instantiates on its own
var hostInstantiated = map[string]bool{
	"MonoBehaviour": true, "ScriptableObject": true, "Editor": true, "EditorWindow": true,
	"PropertyDrawer": true, "StateMachineBehaviour": true, "NetworkBehaviour": true,
	"AssetPostprocessor": true,
}

var unusedKinds = map[string]bool{"": true, "type": true, "method": true, "field": true, "property": true}

type candidate struct {
	sym   UnusedSymbol
	file  string
	count int
}

// FindUnusedCode reports declarations whose name never appears, on a word
// boundary, in any project file other than the declaring one. Lifecycle
// callbacks, entry points, constructors, overrides and types the host
// instantiates are never candidates. Kind is "type", "method", "field",
// "property" or empty for all.
func (a *Analyzer) FindUnusedCode(scope, kind string) (*UnusedResult, error) {
	kind = strings.ToLower(kind)
	if kind == "class" {
		kind = "type"
	}
	if !unusedKinds[kind] {
		return nil, fmt.Errorf("symbol kind %q (want type, method, field or property): %w", kind, project.ErrInvalidArgument)
	}

	// Candidates come from the scope; occurrences are counted project-wide
	scoped, err := a.load(scope)
	if err != nil {
		return nil, err
	}
	all := scoped
	if scope != "" {
		if all, err = a.load(""); err != nil {
			return nil, err
		}
	}

	var cands []*candidate
	for _, f := range scoped {
		cands = append(cands, candidatesOf(f, kind)...)
	}

	byName := make(map[string][]*candidate)
	for _, c := range cands {
		byName[c.sym.Name] = append(byName[c.sym.Name], c)
	}
	for name, cs := range byName {
		word := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		for _, f := range all {
			if !word.MatchString(f.src.text) {
				continue
			}
			for _, c := range cs {
				if c.file != f.path {
					c.count++
				}
			}
		}
	}

	result := &UnusedResult{
		Scope:        scope,
		Kind:         kind,
		Unused:       []UnusedSymbol{},
		FilesScanned: len(all),
		Candidates:   len(cands),
	}
	for _, c := range cands {
		if c.count == 0 {
			result.Unused = append(result.Unused, c.sym)
		}
	}
	sort.SliceStable(result.Unused, func(i, j int) bool {
		ui, uj := result.Unused[i], result.Unused[j]
		if ui.File != uj.File {
			return ui.File < uj.File
		}
		return ui.Line < uj.Line
	})
	result.Count = len(result.Unused)
	return result, nil
}

func candidatesOf(f *scriptFile, kind string) []*candidate {
	var out []*candidate
	add := func(s UnusedSymbol) {
		s.File = f.path
		out = append(out, &candidate{sym: s, file: f.path})
	}

	for _, t := range f.info.Types {
		owner := f.info.FullName(t)
		managed := isHostInstantiated(t)

		if (kind == "" || kind == "type") && !managed {
			add(UnusedSymbol{Name: t.Name, Kind: t.Kind, Type: owner, Line: t.StartLine, Access: t.Access})
		}
		if kind == "" || kind == "method" {
			for _, m := range t.Methods {
				if m.Name == t.Name || lifecycleMethods[m.Name] || entryPoints[m.Name] ||
					hasModifier(m.Modifiers, "override") || t.Kind == "interface" {
					continue
				}
				add(UnusedSymbol{
					Name:      m.Name,
					Kind:      "method",
					Type:      owner,
					Line:      m.StartLine,
					Access:    m.Access,
					Signature: strings.TrimSpace(m.ReturnType + " " + m.Name + "(" + m.Parameters + ")"),
				})
			}
		}
		if kind == "" || kind == "field" {
			for _, fd := range t.Fields {
				// Serialized fields are written by the host
				if managed && (fd.Access == "public" || hasAttribute(fd.Attributes, "SerializeField")) {
					continue
				}
				add(UnusedSymbol{Name: fd.Name, Kind: "field", Type: owner, Line: fd.Line, Access: fd.Access,
					Signature: fd.Type + " " + fd.Name})
			}
		}
		if kind == "" || kind == "property" {
			for _, p := range t.Properties {
				if hasModifier(p.Modifiers, "override") || t.Kind == "interface" {
					continue
				}
				add(UnusedSymbol{Name: p.Name, Kind: "property", Type: owner, Line: p.Line, Access: p.Access,
					Signature: p.Type + " " + p.Name})
			}
		}
	}
	return out
}

func isHostInstantiated(t TypeDecl) bool {
	for _, b := range t.BaseTypes {
		name := b
		if i := strings.IndexByte(name, '<'); i >= 0 {
			name = name[:i]
		}
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if hostInstantiated[name] {
			return true
		}
	}
	return false
}

func hasModifier(mods []string, want string) bool {
	for _, m := range mods {
		if m == want {
			return true
		}
	}
	return false
}

func hasAttribute(attrs []string, want string) bool {
	for _, a := range attrs {
		if a == want || a == want+"Attribute" || strings.HasSuffix(a, "."+want) {
			return true
		}
	}
	return false
}
