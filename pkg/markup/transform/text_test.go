package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
)

func TestDecodeEntities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"&amp;&lt;&gt;&apos;&quot;", "&<>'\""},
		{"a&nbsp;b", "a\u00a0b"},
		{"&#65;&#x42;&#X43;", "ABC"},
		{"&unknown; & &;", "&unknown; & &;"},
		{"&#xZZ;", "&#xZZ;"},
		{"&#1114112;", "&#1114112;"},
		{"&amp", "&amp"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeEntities(tt.in), "input %q", tt.in)
	}
}

func TestUnwrapLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"hello"`, "hello", true},
		{`'hello'`, "hello", true},
		{`""`, "", true},
		{`"it's"`, "it's", true},
		{`"a" + "b"`, "", false},
		{`"a" b`, "", false},
		{`'mixed"`, "", false},
		{`"`, "", false},
		{"plain", "", false},
	}

	for _, tt := range tests {
		got, ok := unwrapLiteral(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func varText(t *testing.T, body string) compdef.Value {
	t.Helper()

	def := mustComponent(t, `<A><var name="v">`+body+`</var></A>`)
	require.Contains(t, def.Vars, "v")

	return def.Vars["v"]
}

func TestTextContent_Normalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want compdef.Value
	}{
		{"trimmed", "\n   hello world  \n", compdef.Text("hello world")},
		{"comment between words without spaces", "a<!-- c -->b", compdef.Text("ab")},
		{"comment with spaces collapses", "a   <!-- c -->   b", compdef.Text("a b")},
		{"comment with space on one side", "a<!-- c -->  b", compdef.Text("a b")},
		{"adjacent comments", "a <!-- 1 --><!-- 2 --> b", compdef.Text("a b")},
		{"leading comment", "<!-- c -->  x", compdef.Text("x")},
		{"only comments", "  <!-- c -->  ", compdef.Null()},
		{"empty", "", compdef.Null()},
		{"sole double literal", ` "quoted" `, compdef.Text("quoted")},
		{"sole single literal", `'quoted'`, compdef.Text("quoted")},
		{"literal followed by text", `"quoted" and more`, compdef.Text(`"quoted" and more`)},
		{"literal entities decoded", `"a &amp; b"`, compdef.Text("a & b")},
		{"entities", "1 &lt; 2", compdef.Text("1 < 2")},
		{"nbsp survives trim", "&nbsp;x&nbsp;", compdef.Text("\u00a0x\u00a0")},
		{"backslash kept", `a\nb`, compdef.Text(`a\nb`)},
		{"cdata verbatim", "<![CDATA[ &amp; '<x>' ]]>", compdef.Text(" &amp; '<x>' ")},
		{"cdata concatenated", "  pre &amp; <![CDATA[<raw>]]> post  ", compdef.Text("pre & <raw> post")},
		{"cdata literal not unwrapped", `<![CDATA["q"]]>`, compdef.Text(`"q"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, varText(t, tt.body))
		})
	}
}

func TestTextNode_CDataTagging(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, `<Markdown>intro <![CDATA[# Title]]></Markdown>`)

	require.Len(t, def.Children, 1)
	assert.Equal(t, compdef.TypeTextNodeCData, def.Children[0].Type)
	assert.Equal(t, compdef.Text("intro # Title"), def.Children[0].Props["value"])
}

func TestTextNode_WhitespaceOnlyRunsDropped(t *testing.T) {
	t.Parallel()

	def := mustComponent(t, "<Stack>\n  <A/>\n  <!-- c -->\n  <B/>\n</Stack>")

	assert.Equal(t, []string{"A", "B"}, childTypes(def))
}
