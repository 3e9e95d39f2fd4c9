package transform

import (
	"strings"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

const (
	attrName  = "name"
	attrValue = "value"
)

// declarationAttrs is the attribute set accepted on declaration and value
// elements.
var declarationAttrs = map[string]bool{
	attrName:  true,
	attrValue: true,
}

// checkAttributes fails with T011 on the first attribute outside allowed.
// Namespaced attributes are ignored.
func (t *transformer) checkAttributes(el *cst.Element, allowed map[string]bool) error {
	for _, attr := range el.Attrs {
		if attr.Namespace == "" && !allowed[attr.Name] {
			return t.errorAt(diag.CodeInvalidDeclAttr, attr.Span, attr.Name, el.Name)
		}
	}

	return nil
}

// declarationName returns the non-empty name attribute of el or fails with T012.
func (t *transformer) declarationName(el *cst.Element) (string, error) {
	attr := el.Attr(attrName)
	if attr == nil || !attr.HasValue() {
		return "", t.errorAt(diag.CodeMissingName, el.Span, el.Name)
	}

	name := strings.TrimSpace(decodeEntities(attr.Value))
	if name == "" {
		return "", t.errorAt(diag.CodeMissingName, el.Span, el.Name)
	}

	return name, nil
}

// valueDeclaration handles var, global, property and template elements.
func (t *transformer) valueDeclaration(el *cst.Element, kind elementKind) (string, compdef.Value, error) {
	if err := t.checkAttributes(el, declarationAttrs); err != nil {
		return "", compdef.Value{}, err
	}

	name, err := t.declarationName(el)
	if err != nil {
		return "", compdef.Value{}, err
	}

	allowComponents := kind == kindProperty || kind == kindTemplate

	value, err := t.valueOf(el, allowComponents)
	if err != nil {
		return "", compdef.Value{}, err
	}

	return name, value, nil
}

// handlerDeclaration handles event and method elements, whose content is
// handler text only.
func (t *transformer) handlerDeclaration(el *cst.Element, kind elementKind) (string, string, error) {
	if err := t.checkAttributes(el, declarationAttrs); err != nil {
		return "", "", err
	}

	name, err := t.declarationName(el)
	if err != nil {
		return "", "", err
	}

	if kind == kindEvent && hasEventPrefix(name) {
		return "", "", t.errorAt(diag.CodeEventNameOnPrefix, el.Span, name)
	}

	if attr := el.Attr(attrValue); attr != nil {
		return name, attributeValue(attr), nil
	}

	if children := el.ChildElements(); len(children) > 0 {
		return "", "", t.errorAt(diag.CodeInvalidValueChild, children[0].Span, el.Name, children[0].Name)
	}

	text, _ := t.textContent(el)

	return name, text.value, nil
}

// textContent renders the text, CDATA and comment children of el as one run.
func (t *transformer) textContent(el *cst.Element) (textValue, bool) {
	var run textRun

	for _, child := range el.Children {
		if _, isElement := child.(*cst.Element); !isElement {
			run.add(child)
		}
	}

	return run.render()
}

// valueOf builds the structured value of a value container: the value
// attribute, an object from field children, a list from item children,
// nested components (when allowed), text content, or null.
func (t *transformer) valueOf(el *cst.Element, allowComponents bool) (compdef.Value, error) {
	if attr := el.Attr(attrValue); attr != nil {
		return compdef.Text(attributeValue(attr)), nil
	}

	var fields, items, components []*cst.Element

	for _, child := range el.ChildElements() {
		switch kindOf(child) {
		case kindField:
			if len(items) > 0 {
				return compdef.Value{}, t.errorAt(diag.CodeMixedFieldItem, child.Span, el.Name)
			}

			fields = append(fields, child)
		case kindItem:
			if len(fields) > 0 {
				return compdef.Value{}, t.errorAt(diag.CodeMixedFieldItem, child.Span, el.Name)
			}

			items = append(items, child)
		case kindComponent:
			if !allowComponents {
				return compdef.Value{}, t.errorAt(diag.CodeInvalidValueChild, child.Span, el.Name, child.Name)
			}

			components = append(components, child)
		case kindCompound:
			return compdef.Value{}, t.misplaced(child)
		default:
			return compdef.Value{}, t.errorAt(diag.CodeInvalidValueChild, child.Span, el.Name, child.Name)
		}

		if len(components) > 0 && len(fields)+len(items) > 0 {
			return compdef.Value{}, t.errorAt(diag.CodeInvalidValueChild, child.Span, el.Name, child.Name)
		}
	}

	switch {
	case len(fields) > 0:
		return t.objectValue(fields, allowComponents)
	case len(items) > 0:
		return t.listValue(items, allowComponents)
	case len(components) > 0:
		return t.componentValue(el)
	}

	text, ok := t.textContent(el)
	if !ok {
		return compdef.Null(), nil
	}

	return compdef.Text(text.value), nil
}

func (t *transformer) objectValue(fields []*cst.Element, allowComponents bool) (compdef.Value, error) {
	var object declSet

	for _, field := range fields {
		if err := t.checkAttributes(field, declarationAttrs); err != nil {
			return compdef.Value{}, err
		}

		name, err := t.declarationName(field)
		if err != nil {
			return compdef.Value{}, err
		}

		value, err := t.valueOf(field, allowComponents)
		if err != nil {
			return compdef.Value{}, err
		}

		object.add(name, value)
	}

	return compdef.Object(object.finalize()), nil
}

func (t *transformer) listValue(items []*cst.Element, allowComponents bool) (compdef.Value, error) {
	list := make([]compdef.Value, 0, len(items))

	for _, item := range items {
		if attr := item.Attr(attrName); attr != nil {
			return compdef.Value{}, t.errorAt(diag.CodeNamedItem, attr.Span)
		}

		if err := t.checkAttributes(item, declarationAttrs); err != nil {
			return compdef.Value{}, err
		}

		value, err := t.valueOf(item, allowComponents)
		if err != nil {
			return compdef.Value{}, err
		}

		list = append(list, value)
	}

	return compdef.List(list...), nil
}

// componentValue lowers the content of a property or template that holds
// components: one component is the value itself, several form a list.
// Surrounding text becomes text nodes.
func (t *transformer) componentValue(el *cst.Element) (compdef.Value, error) {
	var (
		run  textRun
		defs []*compdef.ComponentDef
	)

	flush := func() {
		if text, ok := run.render(); ok {
			defs = append(defs, t.textNode(text))
		}

		run.reset()
	}

	for _, child := range el.Children {
		childEl, ok := child.(*cst.Element)
		if !ok {
			run.add(child)

			continue
		}

		flush()

		def, err := t.component(childEl)
		if err != nil {
			return compdef.Value{}, err
		}

		defs = append(defs, def)
	}

	flush()

	if len(defs) == 1 {
		return compdef.Component(defs[0]), nil
	}

	values := make([]compdef.Value, len(defs))
	for i, def := range defs {
		values[i] = compdef.Component(def)
	}

	return compdef.List(values...), nil
}
