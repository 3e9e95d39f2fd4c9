// Package compdef defines the component definition tree produced by the
// markup transformer and consumed by renderers.
//
// Definitions are plain data. They contain no back-references, so a
// pre-order walk always terminates and every tree encodes to JSON (and gob)
// without cycle handling.
package compdef

import (
	"encoding/json"
	"errors"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/scripting"
)

// Synthetic component types emitted by the transformer.
const (
	TypeFragment      = "Fragment"
	TypeTextNode      = "TextNode"
	TypeTextNodeCData = "TextNodeCData"
)

// ErrEmptyDefinition is returned when encoding a Definition that holds nothing.
var ErrEmptyDefinition = errors.New("compdef: empty definition")

// Source is the byte range in file FileID that produced a definition.
type Source struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	FileID int `json:"fileId"`
}

// Debug carries source metadata.
type Debug struct {
	Source Source `json:"source"`
}

// Declaration is one harvested top-level script binding.
type Declaration struct {
	Tree *scripting.Node `json:"tree"`
}

// ScriptCollected summarizes the top-level declarations of a script.
type ScriptCollected struct {
	Vars      map[string]Declaration `json:"vars"`
	Functions map[string]Declaration `json:"functions"`
}

// ComponentDef is one lowered markup element.
type ComponentDef struct {
	Type            string                       `json:"type"`
	UID             string                       `json:"uid,omitempty"`
	TestID          string                       `json:"testId,omitempty"`
	When            *string                      `json:"when,omitempty"`
	Props           map[string]Value             `json:"props,omitempty"`
	Events          map[string]string            `json:"events,omitempty"`
	Vars            map[string]Value             `json:"vars,omitempty"`
	GlobalVars      map[string]Value             `json:"globalVars,omitempty"`
	API             map[string]string            `json:"api,omitempty"`
	Uses            []string                     `json:"uses,omitempty"`
	Loaders         []*ComponentDef              `json:"loaders,omitempty"`
	Script          string                       `json:"script,omitempty"`
	ScriptCollected *ScriptCollected             `json:"scriptCollected,omitempty"`
	ScriptError     map[string][]diag.Diagnostic `json:"scriptError,omitempty"`
	Children        []*ComponentDef              `json:"children,omitempty"`
	Debug           Debug                        `json:"debug"`
}

// CompoundComponentDef is a reusable component declared with <Component>.
type CompoundComponentDef struct {
	Name       string            `json:"name"`
	Component  *ComponentDef     `json:"component"`
	API        map[string]string `json:"api,omitempty"`
	CodeBehind string            `json:"codeBehind,omitempty"`
	Debug      Debug             `json:"debug"`
}

// Definition holds the result of one transform: exactly one of Component or
// Compound is set. It encodes as the held definition.
type Definition struct {
	Component *ComponentDef
	Compound  *CompoundComponentDef
}

// IsCompound reports whether d holds a reusable component.
func (d Definition) IsCompound() bool {
	return d.Compound != nil
}

// Root returns the top-level ComponentDef: the component itself, or the
// compound's wrapped component.
func (d Definition) Root() *ComponentDef {
	if d.Compound != nil {
		return d.Compound.Component
	}

	return d.Component
}

// Debug returns the source metadata of the held definition.
func (d Definition) Debug() Debug {
	switch {
	case d.Compound != nil:
		return d.Compound.Debug
	case d.Component != nil:
		return d.Component.Debug
	default:
		return Debug{}
	}
}

// MarshalJSON implements json.Marshaler.
func (d Definition) MarshalJSON() ([]byte, error) {
	switch {
	case d.Compound != nil:
		return json.Marshal(d.Compound)
	case d.Component != nil:
		return json.Marshal(d.Component)
	default:
		return nil, ErrEmptyDefinition
	}
}
