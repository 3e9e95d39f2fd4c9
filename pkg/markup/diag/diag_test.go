package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Invalid reusable component name 'x'", Message(CodeInvalidCompoundName, "x"))
	assert.Equal(t, "A component definition must have exactly one root element", Message(CodeMultipleRoots))
	assert.Equal(t, unknownMessage, Message(Code("T999")))
}

func TestEveryCodeHasMessage(t *testing.T) {
	t.Parallel()

	codes := []Code{
		CodeEmptySource, CodeMultipleRoots, CodeMissingCompoundName, CodeInvalidCompoundName,
		CodeInvalidPosition, CodeNestedCompound, CodeInvalidDottedAttr, CodeEventNameOnPrefix,
		CodeModuleOnlyElement, CodeInvalidDeclAttr, CodeMissingName, CodeUsesWithoutValue,
		CodeInvalidValueChild, CodeMixedFieldItem, CodeNamedItem, CodeInvalidCompoundAttr,
		CodeScriptSyntax, CodeDuplicateFunction, CodeDuplicateVariable,
	}

	for _, code := range codes {
		assert.Contains(t, messages, code, string(code))
	}

	assert.Len(t, messages, len(codes))
}

func TestCode_IsWarning(t *testing.T) {
	t.Parallel()

	assert.True(t, CodeScriptSyntax.IsWarning())
	assert.True(t, CodeDuplicateFunction.IsWarning())
	assert.False(t, CodeMixedFieldItem.IsWarning())
	assert.False(t, Code("").IsWarning())
}

func TestError_MatchesCode(t *testing.T) {
	t.Parallel()

	err := Newf(CodeMixedFieldItem, Span{Start: 4, End: 9}, "property")
	wrapped := fmt.Errorf("compile: %w", err)

	require.ErrorIs(t, wrapped, CodeMixedFieldItem)
	assert.NotErrorIs(t, wrapped, CodeNamedItem)
	assert.Equal(t, CodeMixedFieldItem, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, "T017: The 'property' element cannot mix 'field' and 'item' children (offset 4)", err.Error())
}

func TestNewDiagnostic(t *testing.T) {
	t.Parallel()

	d := NewDiagnostic(CodeDuplicateVariable, SeverityWarning, 3, 8, "count")

	assert.Equal(t, Diagnostic{
		Code:     CodeDuplicateVariable,
		Severity: SeverityWarning,
		Message:  "Duplicated variable declaration: 'count'",
		Start:    3,
		End:      8,
	}, d)
}
