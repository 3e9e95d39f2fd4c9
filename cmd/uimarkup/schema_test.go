package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Print(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "", "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, "$schema")
}

func TestSchema_ValidateCompiledOutput(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"Main.xmlui": `<Stack><Button label="Go" onClick="go()"/></Stack>`,
	})

	def, err := runCLI(t, "", "parse", filepath.Join(dir, "Main.xmlui"))
	require.NoError(t, err)

	defPath := filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(defPath, []byte(def), 0o600))

	out, err := runCLI(t, "", "schema", "validate", defPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Definition is valid")

	out, err = runCLI(t, def, "schema", "validate", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "(-)")
}

func TestRunSchemaValidate_Violations(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := runSchemaValidate(&out, strings.NewReader(`{"type": 7}`), stdinPath)
	require.ErrorIs(t, err, ErrSchemaViolations)
	assert.Contains(t, out.String(), "Definition is invalid")
	assert.Contains(t, out.String(), "  - ")

	err = runSchemaValidate(&out, strings.NewReader(""), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchemaViolations)
}
