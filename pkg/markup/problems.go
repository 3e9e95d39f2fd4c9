package markup

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

// Problems locates everything worth reporting about one compilation in the
// markup file: the failure when err is set, otherwise the collected script
// diagnostics. Script diagnostics are placed on the span of the definition
// owning the script; their script-relative position goes into the message.
// The result is ordered by offset.
func Problems(source string, res *Result, err error) []diag.Diagnostic {
	lines := cst.NewLineIndex(source)

	var out []diag.Diagnostic

	switch {
	case err != nil:
		out = append(out, failureProblem(err))
	case res != nil:
		out = scriptProblems(res.Definition)
	}

	for i := range out {
		out[i].Line, out[i].Column = lines.Position(out[i].Start)
	}

	slices.SortStableFunc(out, func(a, b diag.Diagnostic) int {
		return cmp.Compare(a.Start, b.Start)
	})

	return out
}

func failureProblem(err error) diag.Diagnostic {
	var derr *diag.Error
	if errors.As(err, &derr) {
		return diag.Diagnostic{
			Code:     derr.Code,
			Severity: diag.SeverityError,
			Message:  derr.Message,
			Start:    derr.Span.Start,
			End:      derr.Span.End,
		}
	}

	var syntaxErr *cst.SyntaxError
	if errors.As(err, &syntaxErr) {
		msg := syntaxErr.Err.Error()
		if syntaxErr.Detail != "" {
			msg += ": " + syntaxErr.Detail
		}

		return diag.Diagnostic{
			Code:     CodeMarkupSyntax,
			Severity: diag.SeverityError,
			Message:  msg,
			Start:    syntaxErr.Offset,
			End:      syntaxErr.Offset,
		}
	}

	return diag.Diagnostic{Severity: diag.SeverityError, Message: err.Error()}
}

func scriptProblems(def compdef.Definition) []diag.Diagnostic {
	var out []diag.Diagnostic

	compdef.WalkDefinition(def, func(node, _ *compdef.ComponentDef) bool {
		for _, module := range sortedModules(node.ScriptError) {
			for _, d := range node.ScriptError[module] {
				located := d
				located.Start = node.Debug.Source.Start
				located.End = node.Debug.Source.End

				if d.Line > 0 {
					located.Message = fmt.Sprintf("%s (script %d:%d)", d.Message, d.Line, d.Column)
				}

				out = append(out, located)
			}
		}

		return true
	})

	return out
}
