// Package cst holds the concrete syntax tree of a markup document and the
// tokenizer that produces it.
//
// The tree is deliberately close to the source: elements keep their raw
// attributes with quoting style, text and CDATA runs keep their raw content,
// and comments survive as nodes so that whitespace merging can be decided
// downstream. Every node carries a half-open byte span into the source.
package cst

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether other lies within s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Node is implemented by every concrete syntax tree node.
type Node interface {
	NodeSpan() Span
	node()
}

// QuoteKind is the quoting style of an attribute value.
type QuoteKind uint8

// Quote kinds.
const (
	// QuoteNone marks a key-only attribute with no value at all.
	QuoteNone QuoteKind = iota
	QuoteDouble
	QuoteSingle
	QuoteBacktick
	// QuoteUnquoted marks a value written without quotes.
	QuoteUnquoted
)

// String returns the quote kind name.
func (q QuoteKind) String() string {
	switch q {
	case QuoteNone:
		return "none"
	case QuoteDouble:
		return "double"
	case QuoteSingle:
		return "single"
	case QuoteBacktick:
		return "backtick"
	case QuoteUnquoted:
		return "unquoted"
	default:
		return "unknown"
	}
}

// Attribute is one attribute of an element. Value is the raw text between the
// quotes, undecoded.
type Attribute struct {
	Namespace string
	Name      string
	Value     string
	Quote     QuoteKind
	Span      Span
}

// HasValue reports whether the attribute was written with a value.
func (a *Attribute) HasValue() bool {
	return a.Quote != QuoteNone
}

// QualifiedName returns the attribute name including its namespace prefix.
func (a *Attribute) QualifiedName() string {
	if a.Namespace == "" {
		return a.Name
	}

	return a.Namespace + ":" + a.Name
}

// Element is a markup element.
//
// Span runs from the opening '<' to just past the closing tag (or the
// self-closing "/>"). OpenEnd is the offset just past the opening tag and
// CloseStart the offset of the closing tag; for self-closing elements both
// equal Span.End.
type Element struct {
	Name        string
	Attrs       []*Attribute
	Children    []Node
	Span        Span
	OpenEnd     int
	CloseStart  int
	SelfClosing bool
}

// Attr returns the first attribute called name (without namespace), or nil.
func (e *Element) Attr(name string) *Attribute {
	for _, attr := range e.Attrs {
		if attr.Namespace == "" && attr.Name == name {
			return attr
		}
	}

	return nil
}

// ChildElements returns the element children in document order.
func (e *Element) ChildElements() []*Element {
	var out []*Element

	for _, child := range e.Children {
		if el, ok := child.(*Element); ok {
			out = append(out, el)
		}
	}

	return out
}

// Text is a run of character data, undecoded.
type Text struct {
	Raw  string
	Span Span
}

// CDATA is a <![CDATA[...]]> section. Raw holds the content between the
// markers; Span covers the markers too.
type CDATA struct {
	Raw  string
	Span Span
}

// Comment is a <!-- ... --> comment.
type Comment struct {
	Raw  string
	Span Span
}

// Document is the root of a parsed source.
type Document struct {
	Source   string
	Children []Node
}

// Span covers the whole source.
func (d *Document) Span() Span {
	return Span{Start: 0, End: len(d.Source)}
}

// NodeSpan implements Node.
func (e *Element) NodeSpan() Span { return e.Span }

// NodeSpan implements Node.
func (t *Text) NodeSpan() Span { return t.Span }

// NodeSpan implements Node.
func (c *CDATA) NodeSpan() Span { return c.Span }

// NodeSpan implements Node.
func (c *Comment) NodeSpan() Span { return c.Span }

func (*Element) node() {}
func (*Text) node()    {}
func (*CDATA) node()   {}
func (*Comment) node() {}
