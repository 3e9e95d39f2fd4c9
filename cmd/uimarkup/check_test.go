package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
)

func TestCheck_CleanTree(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"Main.xmlui":      "<App>\n  <Text>hi</Text>\n</App>\n",
		"comps/Ok.xmlui":  `<Component name="Ok"><Text/></Component>`,
		"comps/README.md": "# not markup",
	})

	out, err := runCLI(t, "", "check", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Main.xmlui")
	assert.Contains(t, out, "Total: 2 files")
	assert.NotContains(t, out, "README")
}

func TestCheck_ReportsLocatedErrors(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"Bad.xmlui": "<App>\n  <Text/>\n</App>\n<Extra/>",
	})

	out, err := runCLI(t, "", "check", dir)
	require.ErrorIs(t, err, ErrProblemsFound)

	assert.Contains(t, out, filepath.Join(dir, "Bad.xmlui")+":4:1: error T002")
	assert.Contains(t, out, "failed")
}

func TestCheck_JSONReport(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"A.xmlui": `<Component name="x"/>`,
		"B.xmlui": `<Text/>`,
	})

	out, err := runCLI(t, "", "check", "-f", "json", dir)
	require.ErrorIs(t, err, ErrProblemsFound)

	var reports []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)

	require.Len(t, reports[0].Problems, 1)
	assert.Equal(t, diag.CodeInvalidCompoundName, reports[0].Problems[0].Code)
	assert.Equal(t, 1, reports[0].Lines)

	assert.Empty(t, reports[1].Problems)
	assert.Equal(t, len(`<Text/>`), reports[1].Bytes)
}

func TestCheck_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, "", "check", "-f", "yaml", ".")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileReport_Counts(t *testing.T) {
	t.Parallel()

	r := fileReport{Problems: []diag.Diagnostic{
		{Severity: diag.SeverityWarning},
		{Severity: diag.SeverityWarning},
		{Severity: diag.SeverityError},
	}}

	errs, warnings := r.counts()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warnings)

	errs, warnings = buildReport(compiled{path: "x", readErr: errors.New("boom")}).counts()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 0, warnings)
}
