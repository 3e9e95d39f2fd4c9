package compdef

import (
	"encoding/json"
	"fmt"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindText
	KindObject
	KindList
	KindComponent
)

var kindNames = [...]string{
	KindNull:      "null",
	KindText:      "text",
	KindObject:    "object",
	KindList:      "list",
	KindComponent: "component",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", k)
}

// Value is a prop or variable value: a scalar, an object built from field
// children, an ordered list (item children or a repeated name), a nested
// component, or null. The zero Value is null.
type Value struct {
	Kind      Kind
	Text      string
	Object    map[string]Value
	List      []Value
	Component *ComponentDef
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Text returns a scalar value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Object returns an object value.
func Object(fields map[string]Value) Value {
	return Value{Kind: KindObject, Object: fields}
}

// List returns an ordered list value.
func List(items ...Value) Value {
	return Value{Kind: KindList, List: items}
}

// Component returns a component-valued value.
func Component(def *ComponentDef) Value {
	return Value{Kind: KindComponent, Component: def}
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// MarshalJSON encodes v as null, a string, an object, an array or a
// component object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindText:
		return json.Marshal(v.Text)
	case KindObject:
		if v.Object == nil {
			return []byte("{}"), nil
		}

		return json.Marshal(v.Object)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.List)
	case KindComponent:
		return json.Marshal(v.Component)
	default:
		return nil, fmt.Errorf("compdef: cannot encode value of %s", v.Kind)
	}
}

// Interface converts v to plain Go values (nil, string, map, slice), with
// components rendered as *ComponentDef.
func (v Value) Interface() any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindObject:
		out := make(map[string]any, len(v.Object))
		for key, field := range v.Object {
			out[key] = field.Interface()
		}

		return out
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Interface()
		}

		return out
	case KindComponent:
		return v.Component
	default:
		return nil
	}
}
