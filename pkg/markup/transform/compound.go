package transform

import (
	"regexp"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

// WrapperDecision says how the structural children of a reusable component
// become its single wrapped component.
type WrapperDecision uint8

// Wrapper decisions.
const (
	// WrapPlaceholder emits an empty text node.
	WrapPlaceholder WrapperDecision = iota
	// WrapPassthrough uses the only child as is.
	WrapPassthrough
	// WrapFragment synthesizes a Fragment holding the children and the
	// declarations.
	WrapFragment
)

func (d WrapperDecision) String() string {
	switch d {
	case WrapPlaceholder:
		return "placeholder"
	case WrapPassthrough:
		return "passthrough"
	case WrapFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ChooseWrapper decides the wrapping of a reusable component from the number
// of its structural children and whether it declares vars, globals or
// scripts. Declarations always need a Fragment to live on.
func ChooseWrapper(structuralCount int, hasDeclarations bool) WrapperDecision {
	switch {
	case structuralCount == 0 && !hasDeclarations:
		return WrapPlaceholder
	case structuralCount == 1 && !hasDeclarations:
		return WrapPassthrough
	default:
		return WrapFragment
	}
}

const attrCodeBehind = "codeBehind"

var compoundNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]+$`)

// reservedNames cannot be used as reusable component names.
var reservedNames = map[string]bool{
	CompoundTag:               true,
	compdef.TypeFragment:      true,
	compdef.TypeTextNode:      true,
	compdef.TypeTextNodeCData: true,
}

// ValidCompoundName reports whether name may name a reusable component.
func ValidCompoundName(name string) bool {
	return compoundNamePattern.MatchString(name) && !reservedNames[name]
}

// compoundState accumulates the Component-level declarations.
type compoundState struct {
	vars     declSet
	globals  declSet
	api      handlerSet
	scripts  []string
	declEnds []int
}

func (s *compoundState) hasDeclarations() bool {
	return !s.vars.empty() || !s.globals.empty() || len(s.scripts) > 0
}

// compound lowers a <Component> root element.
func (t *transformer) compound(el *cst.Element) (*compdef.CompoundComponentDef, error) {
	nameAttr := el.Attr(attrName)
	if nameAttr == nil || !nameAttr.HasValue() || nameAttr.Value == "" {
		return nil, t.errorAt(diag.CodeMissingCompoundName, el.Span)
	}

	out := &compdef.CompoundComponentDef{Name: nameAttr.Value, Debug: t.debug(el.Span)}
	if !ValidCompoundName(out.Name) {
		return nil, t.errorAt(diag.CodeInvalidCompoundName, nameAttr.Span, out.Name)
	}

	var state compoundState

	if err := t.compoundAttributes(el, out, &state); err != nil {
		return nil, err
	}

	structural, err := t.compoundChildren(el, &state)
	if err != nil {
		return nil, err
	}

	out.API = state.api.finalize()

	switch ChooseWrapper(len(structural), state.hasDeclarations()) {
	case WrapPlaceholder:
		out.Component = t.textNode(textValue{span: cst.Span{Start: el.OpenEnd, End: el.CloseStart}})
	case WrapPassthrough:
		out.Component = structural[0]
	case WrapFragment:
		fragment, err := t.fragment(el, structural, &state)
		if err != nil {
			return nil, err
		}

		out.Component = fragment
	}

	return out, nil
}

func (t *transformer) compoundAttributes(el *cst.Element, out *compdef.CompoundComponentDef, state *compoundState) error {
	for _, attr := range el.Attrs {
		if attr.Namespace != "" {
			continue
		}

		switch attr.Name {
		case attrName:
			continue
		case attrCodeBehind:
			out.CodeBehind = attributeValue(attr)

			continue
		}

		classified, err := t.classifyOrFail(attr)
		if err != nil {
			return err
		}

		switch {
		case classified.target == targetVar:
			state.vars.add(classified.name, compdef.Text(classified.value))
		case classified.target == targetGlobal:
			state.globals.add(classified.name, compdef.Text(classified.value))
		case classified.target == targetAPI:
			state.api.set(classified.name, classified.value)
		default:
			return t.errorAt(diag.CodeInvalidCompoundAttr, attr.Span, attr.Name)
		}
	}

	return nil
}

// compoundChildren sorts the children of a <Component> into declarations
// (recorded on state) and structural components (returned in order).
func (t *transformer) compoundChildren(el *cst.Element, state *compoundState) ([]*compdef.ComponentDef, error) {
	var (
		run        textRun
		structural []*compdef.ComponentDef
	)

	flush := func() {
		if text, ok := run.render(); ok {
			structural = append(structural, t.textNode(text))
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
		case kindVar, kindGlobal:
			name, value, err := t.valueDeclaration(childEl, kind)
			if err != nil {
				return nil, err
			}

			if kind == kindVar {
				state.vars.add(name, value)
			} else {
				state.globals.add(name, value)
			}

			state.declEnds = append(state.declEnds, childEl.Span.End)
		case kindMethod:
			name, handler, err := t.handlerDeclaration(childEl, kind)
			if err != nil {
				return nil, err
			}

			state.api.set(name, handler)
			state.declEnds = append(state.declEnds, childEl.Span.End)
		case kindScript:
			state.scripts = append(state.scripts, scriptText(childEl))
			state.declEnds = append(state.declEnds, childEl.Span.End)
		case kindUses, kindLoaders, kindProperty, kindEvent, kindTemplate:
			return nil, t.errorAt(diag.CodeModuleOnlyElement, childEl.Span, childEl.Name)
		case kindComponent:
			def, err := t.component(childEl)
			if err != nil {
				return nil, err
			}

			structural = append(structural, def)
		default:
			return nil, t.misplaced(childEl)
		}
	}

	flush()

	return structural, nil
}

// fragment synthesizes the Fragment wrapper carrying the children and the
// Component-level vars, globals and scripts.
func (t *transformer) fragment(
	el *cst.Element, children []*compdef.ComponentDef, state *compoundState,
) (*compdef.ComponentDef, error) {
	firstChildStart := el.CloseStart
	if len(children) > 0 {
		firstChildStart = children[0].Debug.Source.Start
	}

	fragment := &compdef.ComponentDef{
		Type:       compdef.TypeFragment,
		Vars:       state.vars.finalize(),
		GlobalVars: state.globals.finalize(),
		Children:   children,
		Debug:      t.debug(fragmentSpan(el, state.declEnds, firstChildStart)),
	}

	if len(state.scripts) > 0 {
		if err := t.aggregateScripts(fragment, state.scripts); err != nil {
			return nil, err
		}
	}

	return fragment, nil
}
