// Package diag defines the stable error-code taxonomy shared by the markup
// transformer, the script parser and every tool reporting on their output.
//
// Two severities exist. Structural violations are returned as *Error and
// abort the transform. Script diagnostics are collected as Diagnostic values
// and attached to the emitted definition.
package diag

import (
	"errors"
	"fmt"
)

// Code is a stable diagnostic identifier. Callers match on the code, never
// on message text.
type Code string

// Structural codes (fail-fast).
const (
	CodeEmptySource         Code = "T001"
	CodeMultipleRoots       Code = "T002"
	CodeMissingCompoundName Code = "T003"
	CodeInvalidCompoundName Code = "T004"
	CodeInvalidPosition     Code = "T005"
	CodeNestedCompound      Code = "T006"
	CodeInvalidDottedAttr   Code = "T007"
	CodeEventNameOnPrefix   Code = "T008"
	CodeModuleOnlyElement   Code = "T009"
	CodeInvalidDeclAttr     Code = "T011"
	CodeMissingName         Code = "T012"
	CodeUsesWithoutValue    Code = "T015"
	CodeInvalidValueChild   Code = "T016"
	CodeMixedFieldItem      Code = "T017"
	CodeNamedItem           Code = "T018"
	CodeInvalidCompoundAttr Code = "T021"
	CodeScriptSyntax        Code = "W001"
	CodeDuplicateFunction   Code = "W020"
	CodeDuplicateVariable   Code = "W021"
)

const unknownMessage = "unknown diagnostic"

var messages = map[Code]string{
	CodeEmptySource:         "The source contains no component definition",
	CodeMultipleRoots:       "A component definition must have exactly one root element",
	CodeMissingCompoundName: "A reusable component must have a non-empty 'name' attribute",
	CodeInvalidCompoundName: "Invalid reusable component name '%s'",
	CodeInvalidPosition:     "The '%s' element is not allowed in this position",
	CodeNestedCompound:      "A reusable component cannot contain a nested 'Component' element",
	CodeInvalidDottedAttr:   "Invalid attribute name '%s'",
	CodeEventNameOnPrefix:   "An event name must not start with 'on': '%s'",
	CodeModuleOnlyElement:   "The '%s' element cannot be used inside a reusable component",
	CodeInvalidDeclAttr:     "Invalid attribute '%s' on the '%s' element",
	CodeMissingName:         "The '%s' element requires a non-empty 'name' attribute",
	CodeUsesWithoutValue:    "The 'uses' element requires a non-empty 'value' attribute",
	CodeInvalidValueChild:   "The '%s' element cannot have a '%s' child",
	CodeMixedFieldItem:      "The '%s' element cannot mix 'field' and 'item' children",
	CodeNamedItem:           "An 'item' element cannot have a 'name' attribute",
	CodeInvalidCompoundAttr: "Invalid attribute '%s' on a reusable component",
	CodeScriptSyntax:        "Script syntax error: %s",
	CodeDuplicateFunction:   "Duplicated function declaration: '%s'",
	CodeDuplicateVariable:   "Duplicated variable declaration: '%s'",
}

// Message renders the message template for code with args.
func Message(code Code, args ...any) string {
	tmpl, ok := messages[code]
	if !ok {
		return unknownMessage
	}

	if len(args) == 0 {
		return tmpl
	}

	return fmt.Sprintf(tmpl, args...)
}

// IsWarning reports whether the code belongs to the collected (non-fatal) family.
func (c Code) IsWarning() bool {
	return len(c) > 0 && c[0] == 'W'
}

// Error implements error so that a Code can be used as an errors.Is target.
func (c Code) Error() string {
	return string(c)
}

// Span is a half-open byte range into the original source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Error is a fail-fast structural violation.
type Error struct {
	Code    Code
	Message string
	Span    Span
	FileID  int
}

// Newf creates a structural error for code at span.
func Newf(code Code, span Span, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: Message(code, args...),
		Span:    span,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (offset %d)", e.Code, e.Message, e.Span.Start)
}

// Is matches a bare Code target, so errors.Is(err, diag.CodeMixedFieldItem) works.
func (e *Error) Is(target error) bool {
	code, ok := target.(Code)

	return ok && code == e.Code
}

// CodeOf extracts the diagnostic code from err, or "" when err is not a *Error.
func CodeOf(err error) Code {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}

	return ""
}

// Severity classifies collected diagnostics.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a collected, non-fatal finding attached to a definition.
// Offsets are relative to the text the diagnostic was produced from; Line and
// Column are 1-based.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
}

// NewDiagnostic builds a Diagnostic with the code's message template applied.
func NewDiagnostic(code Code, severity Severity, start, end int, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: severity,
		Message:  Message(code, args...),
		Start:    start,
		End:      end,
	}
}
