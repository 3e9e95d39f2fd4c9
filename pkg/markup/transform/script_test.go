package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/scripting"
)

// recordingParser returns declarations named by the lines of the script:
// "f name" declares a function, anything else a variable.
type recordingParser struct {
	calls []string
}

func (p *recordingParser) Parse(text string) (*scripting.Script, error) {
	p.calls = append(p.calls, text)

	script := &scripting.Script{Source: text}
	offset := 0

	for _, line := range strings.Split(text, "\n") {
		if name, ok := strings.CutPrefix(line, "f "); ok {
			script.Declarations = append(script.Declarations, scripting.Declaration{
				Name: name, Kind: scripting.DeclFunction, Start: offset, End: offset + len(line),
			})
		} else if line != "" {
			script.Declarations = append(script.Declarations, scripting.Declaration{
				Name: line, Kind: scripting.DeclVar, Start: offset, End: offset + len(line),
			})
		}

		offset += len(line) + 1
	}

	return script, nil
}

func TestScripts_ConcatenatedVerbatim(t *testing.T) {
	t.Parallel()

	parser := &recordingParser{}
	def := mustComponent(t, "<A><script>\n  a\n</script><B/><script>b  </script></A>", WithScriptParser(parser))

	want := "\n  a\n\nb  "
	assert.Equal(t, want, def.Script)
	assert.Equal(t, []string{want}, parser.calls)
}

func TestScripts_DuplicatesKeepFirstDeclaration(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<A><script>x\nf g\nf g\nx\nf x</script></A>",
		WithScriptParser(&recordingParser{}), WithModuleName("Widget"))

	require.NotNil(t, def.ScriptCollected)
	assert.Len(t, def.ScriptCollected.Vars, 1)
	assert.Contains(t, def.ScriptCollected.Vars, "x")
	assert.Len(t, def.ScriptCollected.Functions, 1)
	assert.Contains(t, def.ScriptCollected.Functions, "g")

	require.Contains(t, def.ScriptError, "Widget")

	diags := def.ScriptError["Widget"]
	require.Len(t, diags, 3)
	assert.Equal(t, diag.CodeDuplicateFunction, diags[0].Code)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, diag.CodeDuplicateVariable, diags[1].Code)
	assert.Equal(t, diag.CodeDuplicateVariable, diags[2].Code, "function redeclaring a variable")
	assert.Contains(t, diags[2].Message, "'x'")
}

func TestScripts_NoDuplicatesMeansNoScriptError(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<A><script>a\nf b</script></A>", WithScriptParser(&recordingParser{}))

	assert.Nil(t, def.ScriptError)
	require.NotNil(t, def.ScriptCollected)
	assert.Contains(t, def.ScriptCollected.Vars, "a")
	assert.Contains(t, def.ScriptCollected.Functions, "b")
}

func TestScripts_ScopedPerElement(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<A><B><script>f a</script></B><C><script>f a</script></C></A>",
		WithScriptParser(&recordingParser{}))

	require.Len(t, def.Children, 2)
	assert.Empty(t, def.Script)

	for _, child := range def.Children {
		assert.Nil(t, child.ScriptError, child.Type)
		assert.Contains(t, child.ScriptCollected.Functions, "a")
	}
}

func TestScripts_SyntaxErrorWithTreeSitter(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<A><script>var a = 1;\n}}</script><B/></A>")

	assert.Equal(t, []string{"B"}, childTypes(def), "the rest of the tree is still produced")
	assert.Nil(t, def.ScriptCollected)
	require.Contains(t, def.ScriptError, DefaultModuleName)
	assert.Equal(t, diag.CodeScriptSyntax, def.ScriptError[DefaultModuleName][0].Code)
}

func TestScripts_TreeSitterDuplicateVariables(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<A><script>var a = 1;</script><script>let a = 2; const b = 3;</script></A>")

	require.NotNil(t, def.ScriptCollected)
	assert.Len(t, def.ScriptCollected.Vars, 2)
	require.NotNil(t, def.ScriptCollected.Vars["a"].Tree)
	assert.Equal(t, "1", def.ScriptCollected.Vars["a"].Tree.Text)

	diags := def.ScriptError[DefaultModuleName]
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeDuplicateVariable, diags[0].Code)
}

func TestScripts_FunctionAndVariableTreesShareShape(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<A><script>function f(x) { return x; }\nvar g = function (x) { return x; };</script></A>")

	require.NotNil(t, def.ScriptCollected)
	f := def.ScriptCollected.Functions["f"].Tree
	g := def.ScriptCollected.Vars["g"].Tree

	require.NotNil(t, f)
	require.NotNil(t, g)
	assert.Equal(t, scripting.FunctionExpressionType, f.Type)

	if diff := cmp.Diff(g, f, cmpopts.IgnoreFields(scripting.Node{}, "Start", "End")); diff != "" {
		t.Errorf("function tree differs from the variable tree (-var +function):\n%s", diff)
	}

	for _, child := range f.Children {
		assert.NotEmpty(t, child.Field, child.Type)
	}
}

func TestScripts_ParserFailureAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := scripting.ParserFunc(func(string) (*scripting.Script, error) { return nil, boom })

	_, err := transformSource(t, "<A><script>x</script></A>", WithScriptParser(failing))
	require.ErrorIs(t, err, boom)
}
