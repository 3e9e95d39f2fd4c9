package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/javascript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

var (
	errPoolType   = errors.New("script parser: pool returned unexpected type")
	errNoRootNode = errors.New("script parser: no root node")
)

// Tree-sitter JavaScript node types consulted during harvesting.
const (
	nodeError               = "ERROR"
	nodeVariableDeclaration = "variable_declaration"
	nodeLexicalDeclaration  = "lexical_declaration"
	nodeVariableDeclarator  = "variable_declarator"
	nodeFunctionDeclaration = "function_declaration"
	nodeGeneratorFunction   = "generator_function_declaration"
	nodeIdentifier          = "identifier"
	nodeShorthandPattern    = "shorthand_property_identifier_pattern"
	nodePairPattern         = "pair_pattern"
	nodeAssignmentPattern   = "assignment_pattern"
	nodeObjectAssignPattern = "object_assignment_pattern"
	nodeRestPattern         = "rest_pattern"
	nodeObjectPattern       = "object_pattern"
	nodeArrayPattern        = "array_pattern"
)

// maxErrorSnippet bounds the offending text quoted in a syntax diagnostic.
const maxErrorSnippet = 24

// TreeSitterParser is a Parser backed by the tree-sitter JavaScript grammar.
// It is safe for concurrent use; native parsers are pooled.
type TreeSitterParser struct {
	pool sync.Pool
}

// NewTreeSitterParser creates a pooled JavaScript parser.
func NewTreeSitterParser() *TreeSitterParser {
	lang := sitter.NewLanguage(javascript.GetLanguage())

	return &TreeSitterParser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse implements Parser.
func (p *TreeSitterParser) Parse(text string) (*Script, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	content := []byte(text)

	tree, err := tsParser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("script parser: failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	h := &harvester{src: content, lines: cst.NewLineIndex(text)}
	script := &Script{Source: text, Tree: h.convert(root)}

	h.collectErrors(root)

	if len(h.diagnostics) > 0 {
		script.Diagnostics = h.diagnostics

		return script, nil
	}

	for idx := range root.NamedChildCount() {
		script.Declarations = append(script.Declarations, h.declarations(root.NamedChild(idx))...)
	}

	return script, nil
}

type harvester struct {
	src         []byte
	lines       *cst.LineIndex
	diagnostics []diag.Diagnostic
}

func (h *harvester) text(n sitter.Node) string {
	return string(h.src[n.StartByte():n.EndByte()])
}

func (h *harvester) convert(n sitter.Node) *Node {
	out := &Node{
		Type:  n.Type(),
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
	}

	if n.NamedChildCount() == 0 {
		out.Text = h.text(n)

		return out
	}

	for idx := range n.NamedChildCount() {
		child := h.convert(n.NamedChild(idx))
		child.Field = n.FieldNameForNamedChild(idx)
		out.Children = append(out.Children, child)
	}

	return out
}

func (h *harvester) collectErrors(n sitter.Node) {
	switch {
	case n.Type() == nodeError:
		h.report(n, fmt.Sprintf("unexpected %q", snippet(h.text(n))))

		return
	case n.IsMissing():
		h.report(n, fmt.Sprintf("missing %q", n.Type()))

		return
	}

	for idx := range n.ChildCount() {
		h.collectErrors(n.Child(idx))
	}
}

func (h *harvester) report(n sitter.Node, detail string) {
	d := diag.NewDiagnostic(diag.CodeScriptSyntax, diag.SeverityError, int(n.StartByte()), int(n.EndByte()), detail)
	d.Line, d.Column = h.lines.Position(d.Start)
	h.diagnostics = append(h.diagnostics, d)
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxErrorSnippet {
		return s[:maxErrorSnippet] + "..."
	}

	return s
}

func (h *harvester) declarations(stmt sitter.Node) []Declaration {
	switch stmt.Type() {
	case nodeVariableDeclaration, nodeLexicalDeclaration:
		return h.variableDeclarations(stmt)
	case nodeFunctionDeclaration, nodeGeneratorFunction:
		name := stmt.ChildByFieldName("name")
		if name.IsNull() {
			return nil
		}

		return []Declaration{{
			Name:  h.text(name),
			Kind:  DeclFunction,
			Tree:  h.functionExpression(stmt),
			Start: int(stmt.StartByte()),
			End:   int(stmt.EndByte()),
		}}
	default:
		return nil
	}
}

func (h *harvester) variableDeclarations(stmt sitter.Node) []Declaration {
	kind := DeclVar
	if stmt.ChildCount() > 0 {
		switch stmt.Child(0).Type() {
		case string(DeclLet):
			kind = DeclLet
		case string(DeclConst):
			kind = DeclConst
		}
	}

	var decls []Declaration

	for idx := range stmt.NamedChildCount() {
		declarator := stmt.NamedChild(idx)
		if declarator.Type() != nodeVariableDeclarator {
			continue
		}

		var tree *Node
		if value := declarator.ChildByFieldName("value"); !value.IsNull() {
			tree = h.convert(value)
		}

		for _, name := range h.boundNames(declarator.ChildByFieldName("name")) {
			decls = append(decls, Declaration{
				Name:  name,
				Kind:  kind,
				Tree:  tree,
				Start: int(declarator.StartByte()),
				End:   int(declarator.EndByte()),
			})
		}
	}

	return decls
}

// boundNames lists the identifiers bound by a declarator name, which may be
// a destructuring pattern.
func (h *harvester) boundNames(pattern sitter.Node) []string {
	if pattern.IsNull() {
		return nil
	}

	switch pattern.Type() {
	case nodeIdentifier, nodeShorthandPattern:
		return []string{h.text(pattern)}
	case nodePairPattern:
		return h.boundNames(pattern.ChildByFieldName("value"))
	case nodeAssignmentPattern, nodeObjectAssignPattern:
		return h.boundNames(pattern.ChildByFieldName("left"))
	case nodeRestPattern, nodeObjectPattern, nodeArrayPattern:
		var names []string

		for idx := range pattern.NamedChildCount() {
			names = append(names, h.boundNames(pattern.NamedChild(idx))...)
		}

		return names
	default:
		return nil
	}
}

// functionExpression rewrites a function declaration as the anonymous
// function expression that would be assigned to its name. Generators stay
// generators.
func (h *harvester) functionExpression(decl sitter.Node) *Node {
	typ := FunctionExpressionType
	if decl.Type() == nodeGeneratorFunction {
		typ = GeneratorExpressionType
	}

	out := &Node{
		Type:  typ,
		Start: int(decl.StartByte()),
		End:   int(decl.EndByte()),
	}

	for _, field := range []string{"parameters", "body"} {
		child := decl.ChildByFieldName(field)
		if child.IsNull() {
			continue
		}

		converted := h.convert(child)
		converted.Field = field
		out.Children = append(out.Children, converted)
	}

	return out
}
