package transform

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
)

// structuralSpace is the whitespace trimmed from text edges. It excludes
// U+00A0 so that a decoded &nbsp; survives trimming.
const structuralSpace = " \t\r\n\f"

// maxEntityLen bounds the name of an entity reference, "#x10FFFF" included.
const maxEntityLen = 10

var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"apos": "'",
	"quot": "\"",
	"nbsp": "\u00a0",
}

func isBlank(s string) bool {
	return strings.Trim(s, structuralSpace) == ""
}

// decodeEntities replaces the named and numeric character references in s.
// Unknown references are kept verbatim.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] == '&' {
			if semi := strings.IndexByte(s[i:], ';'); semi > 1 && semi <= maxEntityLen+1 {
				if decoded, ok := lookupEntity(s[i+1 : i+semi]); ok {
					b.WriteString(decoded)
					i += semi + 1

					continue
				}
			}
		}

		b.WriteByte(s[i])
		i++
	}

	return b.String()
}

func lookupEntity(name string) (string, bool) {
	if decoded, ok := namedEntities[name]; ok {
		return decoded, true
	}

	digits, ok := strings.CutPrefix(name, "#")
	if !ok || digits == "" {
		return "", false
	}

	base := 10
	if hex, isHex := strings.CutPrefix(digits, "x"); isHex {
		digits, base = hex, 16
	} else if hex, isHex = strings.CutPrefix(digits, "X"); isHex {
		digits, base = hex, 16
	}

	code, err := strconv.ParseUint(digits, base, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return "", false
	}

	return string(rune(code)), true
}

// textRun is a maximal sequence of adjacent text, CDATA and comment nodes.
type textRun struct {
	parts []cst.Node
}

func (r *textRun) add(n cst.Node) {
	r.parts = append(r.parts, n)
}

func (r *textRun) reset() {
	r.parts = r.parts[:0]
}

func (r *textRun) span() cst.Span {
	return cst.Span{
		Start: r.parts[0].NodeSpan().Start,
		End:   r.parts[len(r.parts)-1].NodeSpan().End,
	}
}

// textValue is the rendered content of a run.
type textValue struct {
	value string
	cdata bool
	span  cst.Span
}

// segment is a text or CDATA piece that survives comment removal.
type segment struct {
	raw   string
	cdata bool
	// gapBefore is true when a comment preceded this segment.
	gapBefore bool
}

// render normalizes the run. It reports false when the run holds nothing but
// whitespace and comments.
//
// Whitespace touching a comment collapses to one space, and a comment with
// no whitespace around it leaves no space at all. Plain text is entity
// decoded and trimmed at the run edges; CDATA is kept verbatim. A plain run
// whose whole trimmed content is one quoted string literal is unwrapped.
func (r *textRun) render() (textValue, bool) {
	if len(r.parts) == 0 {
		return textValue{}, false
	}

	segments := r.segments()
	cdata := false

	for _, seg := range segments {
		cdata = cdata || seg.cdata
	}

	if !cdata {
		var raw strings.Builder

		for _, seg := range segments {
			raw.WriteString(seg.raw)
		}

		trimmed := strings.Trim(raw.String(), structuralSpace)
		if trimmed == "" {
			return textValue{}, false
		}

		if inner, ok := unwrapLiteral(trimmed); ok {
			trimmed = inner
		}

		return textValue{value: decodeEntities(trimmed), span: r.span()}, true
	}

	var b strings.Builder

	for i, seg := range segments {
		text := seg.raw
		if !seg.cdata {
			if i == 0 {
				text = strings.TrimLeft(text, structuralSpace)
			}

			if i == len(segments)-1 {
				text = strings.TrimRight(text, structuralSpace)
			}

			text = decodeEntities(text)
		}

		b.WriteString(text)
	}

	return textValue{value: b.String(), cdata: true, span: r.span()}, true
}

// segments drops comments from the run and applies the whitespace rule
// around them.
func (r *textRun) segments() []segment {
	var (
		out     []segment
		pending bool
	)

	for _, part := range r.parts {
		switch n := part.(type) {
		case *cst.Comment:
			pending = true
		case *cst.CDATA:
			out = append(out, segment{raw: n.Raw, cdata: true, gapBefore: pending})
			pending = false
		case *cst.Text:
			out = append(out, segment{raw: n.Raw, gapBefore: pending})
			pending = false
		}
	}

	trailingComment := pending

	for i := range out {
		if out[i].gapBefore && i > 0 {
			joinAcrossComment(&out[i-1], &out[i])
		}
	}

	if trailingComment && len(out) > 0 && !out[len(out)-1].cdata {
		last := &out[len(out)-1]
		last.raw = strings.TrimRight(last.raw, structuralSpace)
	}

	if len(out) > 0 && out[0].gapBefore && !out[0].cdata {
		out[0].raw = strings.TrimLeft(out[0].raw, structuralSpace)
	}

	return out
}

// joinAcrossComment collapses the whitespace on both sides of a removed
// comment into a single space carried by the left segment.
func joinAcrossComment(left, right *segment) {
	hadSpace := false

	if !left.cdata {
		trimmed := strings.TrimRight(left.raw, structuralSpace)
		hadSpace = len(trimmed) < len(left.raw)
		left.raw = trimmed
	}

	if !right.cdata {
		trimmed := strings.TrimLeft(right.raw, structuralSpace)
		hadSpace = hadSpace || len(trimmed) < len(right.raw)
		right.raw = trimmed
	}

	if hadSpace {
		left.raw += " "
	}
}

// unwrapLiteral strips the quotes of a sole single- or double-quoted string
// literal.
func unwrapLiteral(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}

	quote := s[0]
	if (quote != '"' && quote != '\'') || s[len(s)-1] != quote {
		return "", false
	}

	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, quote) >= 0 {
		return "", false
	}

	return inner, true
}
