package project

// Well-known engine type names
const (
	ObjectType           = "UnityEngine.Object"
	ComponentType        = "UnityEngine.Component"
	BehaviourType        = "UnityEngine.Behaviour"
	MonoBehaviourType    = "UnityEngine.MonoBehaviour"
	ScriptableObjectType = "UnityEngine.ScriptableObject"
	TransformType        = "UnityEngine.Transform"
)

func builtin(name, base string, members ...any) *TypeInfo {
	t := &TypeInfo{FullName: name, BaseType: base, Assembly: "UnityEngine", Builtin: true}
	for _, m := range members {
		switch m := m.(type) {
		case MethodInfo:
			t.Methods = append(t.Methods, m)
		case PropertyInfo:
			t.Properties = append(t.Properties, m)
		}
	}
	return t
}

func method(name string, params ...string) MethodInfo {
	m := MethodInfo{Name: name, ReturnType: "System.Void", Access: "public"}
	for i, p := range params {
		m.Parameters = append(m.Parameters, ParameterInfo{Name: "arg" + string(rune('0'+i)), Type: p})
	}
	return m
}

func settable(name, typ string) PropertyInfo {
	return PropertyInfo{Name: name, Type: typ, Access: "public", CanRead: true, CanWrite: true}
}

// BuiltinTypes returns the engine type universe merged into every project.
// Only the members event bindings commonly target are listed.
func BuiltinTypes() []*TypeInfo {
	types := []*TypeInfo{
		{FullName: "System.Object", Assembly: "mscorlib", Builtin: true},
		{FullName: "System.String", Assembly: "mscorlib", Builtin: true, IsSealed: true},
		builtin(ObjectType, "System.Object", settable("name", "System.String")),
		builtin(ComponentType, ObjectType, method("SendMessage", "System.String")),
		builtin(BehaviourType, ComponentType, settable("enabled", "System.Boolean")),
		builtin(MonoBehaviourType, BehaviourType,
			method("Invoke", "System.String", "System.Single"),
			method("StartCoroutine", "System.String"),
			method("StopAllCoroutines")),
		builtin(ScriptableObjectType, ObjectType),
		builtin(GameObjectType, ObjectType,
			method("SetActive", "System.Boolean"),
			method("SendMessage", "System.String"),
			settable("tag", "System.String"),
			settable("layer", "System.Int32")),
		builtin(TransformType, ComponentType, method("SetParent", TransformType), method("DetachChildren")),
		builtin("UnityEngine.RectTransform", TransformType),
		builtin("UnityEngine.Camera", BehaviourType),
		builtin("UnityEngine.Light", BehaviourType),
		builtin("UnityEngine.AudioSource", BehaviourType,
			method("Play"), method("Stop"), method("Pause"),
			settable("volume", "System.Single"), settable("mute", "System.Boolean")),
		builtin("UnityEngine.Animator", BehaviourType,
			method("SetTrigger", "System.String"), method("Play", "System.String")),
		builtin("UnityEngine.Rigidbody", ComponentType, settable("isKinematic", "System.Boolean")),
		builtin("UnityEngine.Rigidbody2D", ComponentType, settable("isKinematic", "System.Boolean")),
		builtin("UnityEngine.Collider", ComponentType, settable("isTrigger", "System.Boolean")),
		builtin("UnityEngine.BoxCollider", "UnityEngine.Collider"),
		builtin("UnityEngine.SphereCollider", "UnityEngine.Collider"),
		builtin("UnityEngine.Collider2D", BehaviourType, settable("isTrigger", "System.Boolean")),
		builtin("UnityEngine.Renderer", ComponentType, settable("enabled", "System.Boolean")),
		builtin("UnityEngine.MeshRenderer", "UnityEngine.Renderer"),
		builtin("UnityEngine.SpriteRenderer", "UnityEngine.Renderer"),
		builtin("UnityEngine.ParticleSystem", ComponentType, method("Play"), method("Stop")),
		builtin("UnityEngine.EventSystems.UIBehaviour", MonoBehaviourType),
		builtin("UnityEngine.UI.Graphic", "UnityEngine.EventSystems.UIBehaviour"),
		builtin("UnityEngine.UI.Image", "UnityEngine.UI.Graphic"),
		builtin("UnityEngine.UI.Text", "UnityEngine.UI.Graphic", settable("text", "System.String")),
		builtin("UnityEngine.UI.Selectable", "UnityEngine.EventSystems.UIBehaviour", settable("interactable", "System.Boolean")),
		builtin("UnityEngine.UI.Button", "UnityEngine.UI.Selectable"),
		builtin("UnityEngine.UI.Toggle", "UnityEngine.UI.Selectable", settable("isOn", "System.Boolean")),
		builtin("UnityEngine.UI.Slider", "UnityEngine.UI.Selectable", settable("value", "System.Single")),
		builtin("TMPro.TextMeshProUGUI", "UnityEngine.UI.Graphic", settable("text", "System.String")),
		builtin("UnityEngine.Events.UnityEvent", "System.Object", method("Invoke")),
	}
	return types
}

// FindMember reports whether t or one of its bases declares a method or a
// writable property with the given name.
func FindMember(u TypeUniverse, t *TypeInfo, name string) bool {
	chain := append([]*TypeInfo{t}, BaseChain(u, t)...)
	for _, ct := range chain {
		for _, m := range ct.Methods {
			if m.Name == name {
				return true
			}
		}
		// Setter bindings are serialized either bare or as "set_<name>"
		for _, p := range ct.Properties {
			if p.CanWrite && (p.Name == name || "set_"+p.Name == name) {
				return true
			}
		}
	}
	return false
}
