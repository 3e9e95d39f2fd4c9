package cst

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors wrapped by SyntaxError.
var (
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	ErrMismatchedTag = errors.New("mismatched closing tag")
	ErrMalformedTag  = errors.New("malformed tag")
	ErrUnterminated  = errors.New("unterminated construct")
)

// SyntaxError is a tokenizer failure at a byte offset.
type SyntaxError struct {
	Offset int
	Detail string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
	}

	return fmt.Sprintf("offset %d: %v: %s", e.Offset, e.Err, e.Detail)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

const (
	commentOpen  = "<!--"
	commentClose = "-->"
	cdataOpen    = "<![CDATA["
	cdataClose   = "]]>"
	piOpen       = "<?"
	piClose      = "?>"
	closeTagOpen = "</"
	selfClose    = "/>"
)

// rawTextElements hold unparsed text up to their closing tag.
var rawTextElements = map[string]bool{
	"script": true,
}

// Parse tokenizes src into a Document.
//
// Processing instructions and doctype declarations are skipped. Elements in
// rawTextElements keep their content as a single Text child.
func Parse(src string) (*Document, error) {
	p := &parser{src: src}

	children, err := p.parseContent(nil)
	if err != nil {
		return nil, err
	}

	return &Document{Source: src, Children: children}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(offset int, sentinel error, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Err: sentinel, Detail: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) rest() string {
	return p.src[p.pos:]
}

// parseContent reads nodes until EOF or the closing tag of parent.
func (p *parser) parseContent(parent *Element) ([]Node, error) {
	var nodes []Node

	for !p.eof() {
		rest := p.rest()

		switch {
		case strings.HasPrefix(rest, commentOpen):
			node, err := p.parseDelimited(commentOpen, commentClose)
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, &Comment{Raw: node.raw, Span: node.span})
		case strings.HasPrefix(rest, cdataOpen):
			node, err := p.parseDelimited(cdataOpen, cdataClose)
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, &CDATA{Raw: node.raw, Span: node.span})
		case strings.HasPrefix(rest, piOpen):
			if _, err := p.parseDelimited(piOpen, piClose); err != nil {
				return nil, err
			}
		case strings.HasPrefix(rest, "<!"):
			if _, err := p.parseDelimited("<!", ">"); err != nil {
				return nil, err
			}
		case strings.HasPrefix(rest, closeTagOpen):
			if parent == nil {
				return nil, p.errorf(p.pos, ErrMismatchedTag, "closing tag without an open element")
			}

			return nodes, nil
		case len(rest) > 1 && rest[0] == '<' && isNameStart(rest[1]):
			el, err := p.parseElement()
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, el)
		default:
			nodes = append(nodes, p.parseText())
		}
	}

	if parent != nil {
		return nil, p.errorf(p.pos, ErrUnexpectedEOF, "element <%s> is not closed", parent.Name)
	}

	return nodes, nil
}

type delimited struct {
	raw  string
	span Span
}

func (p *parser) parseDelimited(open, closing string) (delimited, error) {
	start := p.pos
	body := p.pos + len(open)

	idx := strings.Index(p.src[body:], closing)
	if idx < 0 {
		return delimited{}, p.errorf(start, ErrUnterminated, "missing %q", closing)
	}

	p.pos = body + idx + len(closing)

	return delimited{raw: p.src[body : body+idx], span: Span{Start: start, End: p.pos}}, nil
}

func (p *parser) parseText() *Text {
	start := p.pos
	// Consume at least one byte so that a stray '<' becomes text.
	p.pos++

	for !p.eof() && !p.atMarkup() {
		p.pos++
	}

	return &Text{Raw: p.src[start:p.pos], Span: Span{Start: start, End: p.pos}}
}

func (p *parser) atMarkup() bool {
	rest := p.rest()
	if len(rest) < 2 || rest[0] != '<' {
		return false
	}

	return isNameStart(rest[1]) || rest[1] == '/' || rest[1] == '!' || rest[1] == '?'
}

func (p *parser) parseElement() (*Element, error) {
	start := p.pos
	p.pos++ // '<'

	el := &Element{Name: p.readName()}

	if err := p.parseAttributes(el); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(p.rest(), selfClose):
		p.pos += len(selfClose)
		el.SelfClosing = true
		el.Span = Span{Start: start, End: p.pos}
		el.OpenEnd = p.pos
		el.CloseStart = p.pos

		return el, nil
	case strings.HasPrefix(p.rest(), ">"):
		p.pos++
		el.OpenEnd = p.pos
	default:
		return nil, p.errorf(start, ErrUnexpectedEOF, "opening tag <%s> is not terminated", el.Name)
	}

	if rawTextElements[el.Name] {
		if err := p.parseRawText(el); err != nil {
			return nil, err
		}
	} else {
		children, err := p.parseContent(el)
		if err != nil {
			return nil, err
		}

		el.Children = children
	}

	if err := p.parseCloseTag(el); err != nil {
		return nil, err
	}

	el.Span = Span{Start: start, End: p.pos}

	return el, nil
}

func (p *parser) parseRawText(el *Element) error {
	marker := closeTagOpen + el.Name

	idx := strings.Index(p.rest(), marker)
	if idx < 0 {
		return p.errorf(el.OpenEnd, ErrUnexpectedEOF, "element <%s> is not closed", el.Name)
	}

	if idx > 0 {
		el.Children = []Node{&Text{
			Raw:  p.src[p.pos : p.pos+idx],
			Span: Span{Start: p.pos, End: p.pos + idx},
		}}
	}

	p.pos += idx

	return nil
}

func (p *parser) parseCloseTag(el *Element) error {
	el.CloseStart = p.pos
	p.pos += len(closeTagOpen)

	name := p.readName()
	if name != el.Name {
		return p.errorf(el.CloseStart, ErrMismatchedTag, "expected </%s>, found </%s>", el.Name, name)
	}

	p.skipSpace()

	if p.eof() || p.src[p.pos] != '>' {
		return p.errorf(el.CloseStart, ErrMalformedTag, "closing tag </%s> is not terminated", el.Name)
	}

	p.pos++

	return nil
}

func (p *parser) parseAttributes(el *Element) error {
	for {
		hadSpace := p.skipSpace()

		if p.eof() {
			return p.errorf(el.Span.Start, ErrUnexpectedEOF, "opening tag <%s> is not terminated", el.Name)
		}

		rest := p.rest()
		if rest[0] == '>' || strings.HasPrefix(rest, selfClose) {
			return nil
		}

		if !hadSpace {
			return p.errorf(p.pos, ErrMalformedTag, "expected whitespace before attribute in <%s>", el.Name)
		}

		attr, err := p.parseAttribute()
		if err != nil {
			return err
		}

		el.Attrs = append(el.Attrs, attr)
	}
}

func (p *parser) parseAttribute() (*Attribute, error) {
	start := p.pos

	for !p.eof() && isAttrNameByte(p.src[p.pos]) {
		p.pos++
	}

	if p.pos == start {
		return nil, p.errorf(start, ErrMalformedTag, "unexpected %q", p.src[p.pos])
	}

	attr := &Attribute{Name: p.src[start:p.pos]}
	if ns, local, ok := strings.Cut(attr.Name, ":"); ok {
		attr.Namespace, attr.Name = ns, local
	}

	save := p.pos
	p.skipSpace()

	if p.eof() || p.src[p.pos] != '=' {
		p.pos = save
		attr.Quote = QuoteNone
		attr.Span = Span{Start: start, End: p.pos}

		return attr, nil
	}

	p.pos++ // '='
	p.skipSpace()

	if p.eof() {
		return nil, p.errorf(start, ErrUnexpectedEOF, "attribute %q has no value", attr.QualifiedName())
	}

	if err := p.parseAttributeValue(attr); err != nil {
		return nil, err
	}

	attr.Span = Span{Start: start, End: p.pos}

	return attr, nil
}

func (p *parser) parseAttributeValue(attr *Attribute) error {
	quote := p.src[p.pos]

	switch quote {
	case '"', '\'', '`':
		body := p.pos + 1

		idx := strings.IndexByte(p.src[body:], quote)
		if idx < 0 {
			return p.errorf(p.pos, ErrUnterminated, "attribute %q has an unterminated value", attr.QualifiedName())
		}

		attr.Value = p.src[body : body+idx]
		attr.Quote = quoteKinds[quote]
		p.pos = body + idx + 1

		return nil
	}

	start := p.pos

	for !p.eof() {
		c := p.src[p.pos]
		if isSpace(c) || c == '>' || strings.HasPrefix(p.rest(), selfClose) {
			break
		}

		p.pos++
	}

	if p.pos == start {
		return p.errorf(start, ErrMalformedTag, "attribute %q has an empty unquoted value", attr.QualifiedName())
	}

	attr.Value = p.src[start:p.pos]
	attr.Quote = QuoteUnquoted

	return nil
}

var quoteKinds = map[byte]QuoteKind{
	'"':  QuoteDouble,
	'\'': QuoteSingle,
	'`':  QuoteBacktick,
}

func (p *parser) readName() string {
	start := p.pos

	for !p.eof() && isNameByte(p.src[p.pos]) {
		p.pos++
	}

	return p.src[start:p.pos]
}

func (p *parser) skipSpace() bool {
	start := p.pos

	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}

	return p.pos > start
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == ':'
}

func isAttrNameByte(c byte) bool {
	return !isSpace(c) && c != '=' && c != '>' && c != '/' && c != '"' && c != '\'' && c != '`' && c != '<'
}
