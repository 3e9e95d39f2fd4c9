package transform

import (
	"strings"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

// elementKind is resolved once per element; every tag that is not a special
// element is kindComponent.
type elementKind uint8

const (
	kindComponent elementKind = iota
	kindVar
	kindProperty
	kindEvent
	kindMethod
	kindGlobal
	kindUses
	kindTemplate
	kindField
	kindItem
	kindScript
	kindLoaders
	kindCompound
)

// CompoundTag is the tag of a reusable component definition.
const CompoundTag = "Component"

var elementKinds = map[string]elementKind{
	"var":       kindVar,
	"variable":  kindVar,
	"property":  kindProperty,
	"event":     kindEvent,
	"method":    kindMethod,
	"global":    kindGlobal,
	"uses":      kindUses,
	"template":  kindTemplate,
	"field":     kindField,
	"item":      kindItem,
	"script":    kindScript,
	"loaders":   kindLoaders,
	CompoundTag: kindCompound,
}

func kindOf(el *cst.Element) elementKind {
	if kind, ok := elementKinds[el.Name]; ok {
		return kind
	}

	return kindComponent
}

// IsSpecialElement reports whether name is one of the reserved structural
// element names rather than a component type.
func IsSpecialElement(name string) bool {
	_, ok := elementKinds[name]

	return ok
}

// componentState is the per-element accumulator finalized into a ComponentDef.
type componentState struct {
	props   declSet
	vars    declSet
	globals declSet
	events  handlerSet
	api     handlerSet
}

func (s *componentState) applyAttribute(def *compdef.ComponentDef, attr classifiedAttr) {
	switch attr.target {
	case targetProp:
		s.props.add(attr.name, compdef.Text(attr.value))
	case targetEvent:
		s.events.set(attr.name, attr.value)
	case targetVar:
		s.vars.add(attr.name, compdef.Text(attr.value))
	case targetGlobal:
		s.globals.add(attr.name, compdef.Text(attr.value))
	case targetAPI:
		s.api.set(attr.name, attr.value)
	case targetUID:
		def.UID = attr.value
	case targetTestID:
		def.TestID = attr.value
	case targetWhen:
		when := attr.value
		def.When = &when
	case targetIgnored:
	}
}

func (s *componentState) finalize(def *compdef.ComponentDef) {
	def.Props = s.props.finalize()
	def.Vars = s.vars.finalize()
	def.GlobalVars = s.globals.finalize()
	def.Events = s.events.finalize()
	def.API = s.api.finalize()
}

// component lowers an ordinary element.
func (t *transformer) component(el *cst.Element) (*compdef.ComponentDef, error) {
	def := &compdef.ComponentDef{Type: el.Name, Debug: t.debug(el.Span)}

	var state componentState

	for _, attr := range el.Attrs {
		classified, err := t.classifyOrFail(attr)
		if err != nil {
			return nil, err
		}

		state.applyAttribute(def, classified)
	}

	var (
		run     textRun
		scripts []string
	)

	flush := func() {
		if text, ok := run.render(); ok {
			def.Children = append(def.Children, t.textNode(text))
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

		switch kind := kindOf(childEl); kind {
		case kindVar, kindGlobal, kindProperty, kindTemplate:
			name, value, err := t.valueDeclaration(childEl, kind)
			if err != nil {
				return nil, err
			}

			switch kind {
			case kindVar:
				state.vars.add(name, value)
			case kindGlobal:
				state.globals.add(name, value)
			default:
				state.props.add(name, value)
			}
		case kindEvent:
			name, handler, err := t.handlerDeclaration(childEl, kind)
			if err != nil {
				return nil, err
			}

			state.events.set(name, handler)
		case kindMethod:
			name, handler, err := t.handlerDeclaration(childEl, kind)
			if err != nil {
				return nil, err
			}

			state.api.set(name, handler)
		case kindUses:
			uses, err := t.uses(childEl)
			if err != nil {
				return nil, err
			}

			def.Uses = append(def.Uses, uses...)
		case kindScript:
			scripts = append(scripts, scriptText(childEl))
		case kindLoaders:
			loaders, err := t.loaders(childEl)
			if err != nil {
				return nil, err
			}

			def.Loaders = append(def.Loaders, loaders...)
		case kindComponent:
			nested, err := t.component(childEl)
			if err != nil {
				return nil, err
			}

			def.Children = append(def.Children, nested)
		default:
			return nil, t.misplaced(childEl)
		}
	}

	flush()
	state.finalize(def)

	if len(scripts) > 0 {
		if err := t.aggregateScripts(def, scripts); err != nil {
			return nil, err
		}
	}

	return def, nil
}

// misplaced reports an element that cannot appear where it was found.
func (t *transformer) misplaced(el *cst.Element) error {
	if kindOf(el) == kindCompound && t.inCompound {
		return t.errorAt(diag.CodeNestedCompound, el.Span)
	}

	return t.errorAt(diag.CodeInvalidPosition, el.Span, el.Name)
}

func (t *transformer) textNode(text textValue) *compdef.ComponentDef {
	typ := compdef.TypeTextNode
	if text.cdata {
		typ = compdef.TypeTextNodeCData
	}

	return &compdef.ComponentDef{
		Type:  typ,
		Props: map[string]compdef.Value{"value": compdef.Text(text.value)},
		Debug: t.debug(text.span),
	}
}

// uses splits the value attribute of a <uses> element on commas.
func (t *transformer) uses(el *cst.Element) ([]string, error) {
	attr := el.Attr("value")
	if attr == nil || !attr.HasValue() {
		return nil, t.errorAt(diag.CodeUsesWithoutValue, el.Span)
	}

	var out []string

	for _, part := range strings.Split(decodeEntities(attr.Value), ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}

	if len(out) == 0 {
		return nil, t.errorAt(diag.CodeUsesWithoutValue, el.Span)
	}

	return out, nil
}

// loaders lowers the component children of a <loaders> element.
func (t *transformer) loaders(el *cst.Element) ([]*compdef.ComponentDef, error) {
	var out []*compdef.ComponentDef

	for _, child := range el.ChildElements() {
		if kindOf(child) != kindComponent {
			return nil, t.misplaced(child)
		}

		def, err := t.component(child)
		if err != nil {
			return nil, err
		}

		out = append(out, def)
	}

	return out, nil
}
