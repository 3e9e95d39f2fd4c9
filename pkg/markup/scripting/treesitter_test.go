package scripting

import (
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

func declNames(script *Script) []string {
	names := make([]string, 0, len(script.Declarations))
	for _, decl := range script.Declarations {
		names = append(names, decl.Name)
	}

	return names
}

func TestTreeSitterParser_TopLevelDeclarations(t *testing.T) {
	t.Parallel()

	src := "var a = 1;\nlet b = 'x', c;\nconst d = () => a;\nfunction e(p) { var inner = p; return inner; }\nif (a) { var nested = 2; }"

	script, err := NewTreeSitterParser().Parse(src)
	require.NoError(t, err)
	require.False(t, script.HasErrors())

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, declNames(script))

	kinds := make([]DeclKind, 0, len(script.Declarations))
	for _, decl := range script.Declarations {
		kinds = append(kinds, decl.Kind)
	}

	assert.Equal(t, []DeclKind{DeclVar, DeclLet, DeclLet, DeclConst, DeclFunction}, kinds)

	assert.Nil(t, script.Declarations[2].Tree, "declarator without initializer")
	require.NotNil(t, script.Declarations[0].Tree)
	assert.Equal(t, "1", script.Declarations[0].Tree.Text)
	require.NotNil(t, script.Tree)
	assert.Equal(t, "program", script.Tree.Type)
}

func TestTreeSitterParser_FunctionNormalizedToExpression(t *testing.T) {
	t.Parallel()

	script, err := NewTreeSitterParser().Parse("function greet(name) { return name; }")
	require.NoError(t, err)
	require.Len(t, script.Declarations, 1)

	tree := script.Declarations[0].Tree
	require.NotNil(t, tree)
	assert.Equal(t, FunctionExpressionType, tree.Type)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "parameters", tree.Children[0].Field)
	assert.Equal(t, "body", tree.Children[1].Field)

	for _, child := range tree.Children {
		assert.NotEqual(t, "greet", child.Text, "the function name is not part of the expression")
	}
}

func TestTreeSitterParser_FunctionShapesAgree(t *testing.T) {
	t.Parallel()

	ignorePositions := cmpopts.IgnoreFields(Node{}, "Start", "End")

	tests := []struct {
		name       string
		decl, expr string
		wantType   string
	}{
		{"function", "function f(a, b) { return a + b; }", "var f = function (a, b) { return a + b; };", FunctionExpressionType},
		{"named expression", "function f(a) { return a; }", "var f = function g(a) { return a; };", FunctionExpressionType},
		{"generator", "function* f(a) { yield a; }", "var f = function* (a) { yield a; };", GeneratorExpressionType},
	}

	parser := NewTreeSitterParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decl, err := parser.Parse(tt.decl)
			require.NoError(t, err)
			require.Len(t, decl.Declarations, 1)

			expr, err := parser.Parse(tt.expr)
			require.NoError(t, err)
			require.Len(t, expr.Declarations, 1)

			got := decl.Declarations[0].Tree
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)

			want := expr.Declarations[0].Tree
			require.NotNil(t, want)

			// The name of a named function expression is not part of the
			// declaration's tree.
			want.Children = slices.DeleteFunc(want.Children, func(n *Node) bool { return n.Field == "name" })

			if diff := cmp.Diff(want, got, ignorePositions); diff != "" {
				t.Errorf("declaration tree mismatch (-expression +declaration):\n%s", diff)
			}
		})
	}
}

func TestTreeSitterParser_FieldsFollowGrammar(t *testing.T) {
	t.Parallel()

	script, err := NewTreeSitterParser().Parse("var total = add(1, 2);")
	require.NoError(t, err)
	require.Len(t, script.Declarations, 1)

	call := script.Declarations[0].Tree
	require.NotNil(t, call)
	assert.Equal(t, "call_expression", call.Type)
	require.Len(t, call.Children, 2)
	assert.Equal(t, "function", call.Children[0].Field)
	assert.Equal(t, "arguments", call.Children[1].Field)

	for _, arg := range call.Children[1].Children {
		assert.Empty(t, arg.Field)
	}
}

func TestTreeSitterParser_DestructuringPatterns(t *testing.T) {
	t.Parallel()

	script, err := NewTreeSitterParser().Parse("const { x, y: z, ...rest } = o;\nlet [first, , second = 2] = list;")
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "z", "rest", "first", "second"}, declNames(script))
}

func TestTreeSitterParser_DuplicatesAreReported(t *testing.T) {
	t.Parallel()

	script, err := NewTreeSitterParser().Parse("function a(){}\nfunction a(){}")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a"}, declNames(script))
	assert.Empty(t, script.Diagnostics, "duplicate detection belongs to the caller")
}

func TestTreeSitterParser_SyntaxError(t *testing.T) {
	t.Parallel()

	script, err := NewTreeSitterParser().Parse("var a = 1;\n}}")
	require.NoError(t, err)
	require.True(t, script.HasErrors())

	first := script.Diagnostics[0]
	assert.Equal(t, diag.CodeScriptSyntax, first.Code)
	assert.Equal(t, diag.SeverityError, first.Severity)
	assert.Equal(t, 2, first.Line)
	assert.Empty(t, script.Declarations)
}

func TestTreeSitterParser_ConcurrentUse(t *testing.T) {
	t.Parallel()

	parser := NewTreeSitterParser()

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			script, err := parser.Parse("let v = 1; function f() {}")
			assert.NoError(t, err)
			assert.Equal(t, []string{"v", "f"}, declNames(script))
		}()
	}

	wg.Wait()
}

func TestParserFunc(t *testing.T) {
	t.Parallel()

	var p Parser = ParserFunc(func(text string) (*Script, error) {
		return &Script{Source: text}, nil
	})

	script, err := p.Parse("x")
	require.NoError(t, err)
	assert.Equal(t, "x", script.Source)
	assert.True(t, DeclFunction.IsFunction())
	assert.False(t, DeclConst.IsFunction())
}
