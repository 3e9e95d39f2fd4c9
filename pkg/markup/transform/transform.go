// Package transform lowers a markup concrete syntax tree into component
// definitions.
//
// Transform is a pure recursive descent over an immutable cst.Document. It
// stops at the first structural violation in document order and returns it
// as a *diag.Error; script problems are collected into the ScriptError map of
// the owning definition instead. Independent documents may be transformed
// concurrently.
package transform

import (
	"sync"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/scripting"
)

// DefaultModuleName keys script diagnostics when no module name is given.
const DefaultModuleName = "Main"

var defaultParser = sync.OnceValue(func() scripting.Parser {
	return scripting.NewTreeSitterParser()
})

type options struct {
	moduleName string
	parser     scripting.Parser
}

// Option configures a Transform call.
type Option func(*options)

// WithModuleName sets the logical module name that keys ScriptError.
func WithModuleName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.moduleName = name
		}
	}
}

// WithScriptParser injects the parser used for embedded scripts.
func WithScriptParser(p scripting.Parser) Option {
	return func(o *options) {
		if p != nil {
			o.parser = p
		}
	}
}

type transformer struct {
	fileID     int
	moduleName string
	parser     scripting.Parser
	// inCompound is set once the root turns out to be a <Component>; only
	// the root may be one, so everything below it shares the flag.
	inCompound bool
}

// Transform lowers doc into a component definition. fileID is copied into
// the debug source of every emitted definition.
func Transform(doc *cst.Document, fileID int, opts ...Option) (compdef.Definition, error) {
	o := options{moduleName: DefaultModuleName}
	for _, opt := range opts {
		opt(&o)
	}

	if o.parser == nil {
		o.parser = defaultParser()
	}

	t := &transformer{fileID: fileID, moduleName: o.moduleName, parser: o.parser}

	root, err := t.rootElement(doc)
	if err != nil {
		return compdef.Definition{}, err
	}

	switch kindOf(root) {
	case kindCompound:
		t.inCompound = true

		compound, err := t.compound(root)
		if err != nil {
			return compdef.Definition{}, err
		}

		return compdef.Definition{Compound: compound}, nil
	case kindComponent:
		def, err := t.component(root)
		if err != nil {
			return compdef.Definition{}, err
		}

		return compdef.Definition{Component: def}, nil
	default:
		return compdef.Definition{}, t.errorAt(diag.CodeInvalidPosition, root.Span, root.Name)
	}
}

// rootElement returns the single root element of doc. Comments and
// whitespace may surround it; anything else is a second root.
func (t *transformer) rootElement(doc *cst.Document) (*cst.Element, error) {
	var root *cst.Element

	for _, child := range doc.Children {
		switch n := child.(type) {
		case *cst.Element:
			if root != nil {
				return nil, t.errorAt(diag.CodeMultipleRoots, n.Span)
			}

			root = n
		case *cst.Text:
			if !isBlank(n.Raw) {
				return nil, t.errorAt(diag.CodeMultipleRoots, n.Span)
			}
		case *cst.CDATA:
			return nil, t.errorAt(diag.CodeMultipleRoots, n.Span)
		}
	}

	if root == nil {
		return nil, t.errorAt(diag.CodeEmptySource, doc.Span())
	}

	return root, nil
}
