package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()

	doc, err := Parse(src)
	require.NoError(t, err)

	return doc
}

func rootElement(t *testing.T, doc *Document) *Element {
	t.Helper()

	for _, child := range doc.Children {
		if el, ok := child.(*Element); ok {
			return el
		}
	}

	require.Fail(t, "no root element")

	return nil
}

func TestParse_SelfClosingElement(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<Stack enabled />`)
	el := rootElement(t, doc)

	assert.Equal(t, "Stack", el.Name)
	assert.True(t, el.SelfClosing)
	assert.Equal(t, Span{Start: 0, End: 17}, el.Span)
	assert.Equal(t, el.Span.End, el.OpenEnd)
	assert.Equal(t, el.Span.End, el.CloseStart)
	require.Len(t, el.Attrs, 1)
	assert.Equal(t, "enabled", el.Attrs[0].Name)
	assert.Equal(t, QuoteNone, el.Attrs[0].Quote)
	assert.False(t, el.Attrs[0].HasValue())
}

func TestParse_AttributeQuoting(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "<A d=\"1\" s='2' b=`3` u=4 k x:y=\"5\"/>")
	el := rootElement(t, doc)

	require.Len(t, el.Attrs, 6)

	tests := []struct {
		ns    string
		name  string
		value string
		quote QuoteKind
	}{
		{"", "d", "1", QuoteDouble},
		{"", "s", "2", QuoteSingle},
		{"", "b", "3", QuoteBacktick},
		{"", "u", "4", QuoteUnquoted},
		{"", "k", "", QuoteNone},
		{"x", "y", "5", QuoteDouble},
	}

	for i, tt := range tests {
		attr := el.Attrs[i]
		assert.Equal(t, tt.ns, attr.Namespace, "attr %d", i)
		assert.Equal(t, tt.name, attr.Name, "attr %d", i)
		assert.Equal(t, tt.value, attr.Value, "attr %d", i)
		assert.Equal(t, tt.quote, attr.Quote, "attr %d", i)
	}

	assert.Equal(t, "x:y", el.Attrs[5].QualifiedName())
}

func TestParse_UnquotedValueStopsAtSelfClose(t *testing.T) {
	t.Parallel()

	el := rootElement(t, mustParse(t, `<A path=a/b/>`))

	require.Len(t, el.Attrs, 1)
	assert.Equal(t, "a/b", el.Attrs[0].Value)
	assert.True(t, el.SelfClosing)
}

func TestParse_NestedChildrenAndSpans(t *testing.T) {
	t.Parallel()

	src := `<Stack><Text>hi</Text><!-- c --><![CDATA[<raw>]]></Stack>`
	el := rootElement(t, mustParse(t, src))

	assert.Equal(t, len(src), el.Span.End)
	assert.Equal(t, len("<Stack>"), el.OpenEnd)
	assert.Equal(t, len(src)-len("</Stack>"), el.CloseStart)
	require.Len(t, el.Children, 3)

	text, ok := el.Children[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "Text", text.Name)
	assert.Equal(t, "<Text>hi</Text>", src[text.Span.Start:text.Span.End])
	require.Len(t, text.Children, 1)
	assert.Equal(t, "hi", text.Children[0].(*Text).Raw)

	comment, ok := el.Children[1].(*Comment)
	require.True(t, ok)
	assert.Equal(t, " c ", comment.Raw)

	cdata, ok := el.Children[2].(*CDATA)
	require.True(t, ok)
	assert.Equal(t, "<raw>", cdata.Raw)
	assert.Equal(t, "<![CDATA[<raw>]]>", src[cdata.Span.Start:cdata.Span.End])

	for _, child := range el.Children {
		assert.True(t, el.Span.Contains(child.NodeSpan()))
	}
}

func TestParse_ScriptIsRawText(t *testing.T) {
	t.Parallel()

	src := "<Stack><script>if (a < b) { x = '</div>' }</script></Stack>"
	el := rootElement(t, mustParse(t, src))

	require.Len(t, el.Children, 1)
	script := el.Children[0].(*Element)
	require.Len(t, script.Children, 1)
	assert.Equal(t, "if (a < b) { x = '</div>' }", script.Children[0].(*Text).Raw)
}

func TestParse_SkipsProcessingInstructions(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<?xml version="1.0"?><!DOCTYPE x><A/>`)

	require.Len(t, doc.Children, 1)
	assert.Equal(t, "A", doc.Children[0].(*Element).Name)
}

func TestParse_StrayLessThanIsText(t *testing.T) {
	t.Parallel()

	el := rootElement(t, mustParse(t, `<A>1 < 2</A>`))

	require.Len(t, el.Children, 1)
	assert.Equal(t, "1 < 2", el.Children[0].(*Text).Raw)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unclosed element", `<A><B></B>`, ErrUnexpectedEOF},
		{"mismatched close", `<A></B>`, ErrMismatchedTag},
		{"stray close", `</A>`, ErrMismatchedTag},
		{"unterminated comment", `<A><!-- x</A>`, ErrUnterminated},
		{"unterminated cdata", `<A><![CDATA[x</A>`, ErrUnterminated},
		{"unterminated value", `<A b="x/>`, ErrUnterminated},
		{"unterminated open tag", `<A b="x"`, ErrUnexpectedEOF},
		{"missing space between attributes", `<A b="x"c="y"/>`, ErrMalformedTag},
		{"unclosed script", `<script>x`, ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.src)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.want)

			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr)
			assert.GreaterOrEqual(t, synErr.Offset, 0)
		})
	}
}

func TestElement_AttrAndChildElements(t *testing.T) {
	t.Parallel()

	el := rootElement(t, mustParse(t, `<A x:name="n" name="m"> t <B/><C/></A>`))

	attr := el.Attr("name")
	require.NotNil(t, attr)
	assert.Equal(t, "m", attr.Value)
	assert.Nil(t, el.Attr("missing"))

	children := el.ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "B", children[0].Name)
	assert.Equal(t, "C", children[1].Name)
}
