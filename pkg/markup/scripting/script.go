// Package scripting harvests top-level declarations from embedded scripts.
//
// The transformer only depends on the Parser interface: it hands over the
// concatenated script text and receives a syntax tree, the ordered list of
// top-level declarations and any syntax diagnostics. The bundled
// implementation is backed by the tree-sitter JavaScript grammar.
package scripting

import (
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

// DeclKind is the declaration keyword of a top-level binding.
type DeclKind string

// Declaration kinds.
const (
	DeclVar      DeclKind = "var"
	DeclLet      DeclKind = "let"
	DeclConst    DeclKind = "const"
	DeclFunction DeclKind = "function"
)

// IsFunction reports whether the declaration is a function declaration.
func (k DeclKind) IsFunction() bool {
	return k == DeclFunction
}

// Function declaration trees are normalized to the matching anonymous
// expression type, so variable and function trees share one shape.
const (
	FunctionExpressionType  = "function_expression"
	GeneratorExpressionType = "generator_function"
)

// Node is a language-neutral syntax tree node. Leaves carry their source
// text; inner nodes carry only their children. Field is the grammar field
// the node fills in its parent, if any.
type Node struct {
	Type     string  `json:"type"`
	Field    string  `json:"field,omitempty"`
	Text     string  `json:"text,omitempty"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Children []*Node `json:"children,omitempty"`
}

// Declaration is one top-level binding. Tree is the initializer for variable
// declarations (nil when there is none) and the normalized function
// expression for function declarations.
type Declaration struct {
	Name  string
	Kind  DeclKind
	Tree  *Node
	Start int
	End   int
}

// Script is the result of parsing one script text.
type Script struct {
	Source       string
	Tree         *Node
	Declarations []Declaration
	Diagnostics  []diag.Diagnostic
}

// HasErrors reports whether the script produced syntax diagnostics.
func (s *Script) HasErrors() bool {
	return len(s.Diagnostics) > 0
}

// Parser parses script text. Syntax problems are reported as diagnostics on
// the returned Script; the error return is reserved for parser failures.
type Parser interface {
	Parse(text string) (*Script, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(text string) (*Script, error)

// Parse calls f.
func (f ParserFunc) Parse(text string) (*Script, error) {
	return f(text)
}
