package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

// attrTarget is where a classified attribute lands on its element.
type attrTarget uint8

const (
	targetProp attrTarget = iota
	targetEvent
	targetVar
	targetGlobal
	targetAPI
	targetUID
	targetTestID
	targetWhen
	// targetIgnored marks namespaced attributes, which are recognized but
	// have no effect yet.
	targetIgnored
)

// Special top-level keys.
const (
	attrUID    = "uid"
	attrTestID = "testId"
	attrWhen   = "when"
)

// dottedTargets maps the first segment of a dotted attribute name.
var dottedTargets = map[string]attrTarget{
	"var":    targetVar,
	"global": targetGlobal,
	"method": targetAPI,
	"api":    targetAPI,
	"prop":   targetProp,
	"event":  targetEvent,
}

const (
	eventPrefix  = "on"
	keyOnlyValue = "true"
)

type classifiedAttr struct {
	target attrTarget
	name   string
	value  string
}

// classifyAttribute decides where attr belongs and decodes its value.
func classifyAttribute(attr *cst.Attribute) (classifiedAttr, error) {
	if attr.Namespace != "" {
		return classifiedAttr{target: targetIgnored, name: attr.QualifiedName()}, nil
	}

	out := classifiedAttr{name: attr.Name, value: attributeValue(attr)}

	switch {
	case attr.Name == attrUID:
		out.target = targetUID
	case attr.Name == attrTestID:
		out.target = targetTestID
	case attr.Name == attrWhen:
		out.target = targetWhen
	case strings.Contains(attr.Name, "."):
		target, name, err := classifyDotted(attr.Name)
		if err != nil {
			return classifiedAttr{}, err
		}

		out.target, out.name = target, name
	case hasEventPrefix(attr.Name):
		out.target = targetEvent
		out.name = eventName(attr.Name)
	default:
		out.target = targetProp
	}

	return out, nil
}

func classifyDotted(name string) (attrTarget, string, error) {
	prefix, rest, _ := strings.Cut(name, ".")
	if prefix == "" || rest == "" || strings.Contains(rest, ".") {
		return 0, "", diag.CodeInvalidDottedAttr
	}

	target, ok := dottedTargets[prefix]
	if !ok {
		return 0, "", diag.CodeInvalidDottedAttr
	}

	if target == targetEvent && hasEventPrefix(rest) {
		return 0, "", diag.CodeEventNameOnPrefix
	}

	return target, rest, nil
}

// attributeValue is the decoded value of attr; key-only attributes are "true".
// Backslashes are kept as written.
func attributeValue(attr *cst.Attribute) string {
	if !attr.HasValue() {
		return keyOnlyValue
	}

	return decodeEntities(attr.Value)
}

// hasEventPrefix reports whether name is "on" followed by an upper-case
// letter, the implicit event binding form (onClick).
func hasEventPrefix(name string) bool {
	rest, ok := strings.CutPrefix(name, eventPrefix)
	if !ok || rest == "" {
		return false
	}

	r, _ := utf8.DecodeRuneInString(rest)

	return unicode.IsUpper(r)
}

// eventName strips the "on" prefix and lower-cases the first letter.
func eventName(name string) string {
	rest := strings.TrimPrefix(name, eventPrefix)
	r, size := utf8.DecodeRuneInString(rest)

	return string(unicode.ToLower(r)) + rest[size:]
}

// classifyOrFail wraps classification errors with the attribute position.
func (t *transformer) classifyOrFail(attr *cst.Attribute) (classifiedAttr, error) {
	classified, err := classifyAttribute(attr)
	if err != nil {
		code, _ := err.(diag.Code) //nolint:errorlint // classifyAttribute returns bare codes

		return classifiedAttr{}, t.errorAt(code, attr.Span, attr.QualifiedName())
	}

	return classified, nil
}
