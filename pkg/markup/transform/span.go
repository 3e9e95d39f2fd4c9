package transform

import (
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

func (t *transformer) debug(span cst.Span) compdef.Debug {
	return compdef.Debug{Source: compdef.Source{
		Start:  span.Start,
		End:    span.End,
		FileID: t.fileID,
	}}
}

func (t *transformer) errorAt(code diag.Code, span cst.Span, args ...any) error {
	err := diag.Newf(code, diag.Span{Start: span.Start, End: span.End}, args...)
	err.FileID = t.fileID

	return err
}

// fragmentSpan is the span of a synthesized Fragment: from the end of the
// last declaration preceding the first structural child (or the end of the
// opening tag) to the start of the closing tag.
func fragmentSpan(el *cst.Element, declEnds []int, firstChildStart int) cst.Span {
	start := el.OpenEnd

	for _, end := range declEnds {
		if end <= firstChildStart && end > start {
			start = end
		}
	}

	return cst.Span{Start: start, End: el.CloseStart}
}
