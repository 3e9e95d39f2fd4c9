package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// decodedEntry mirrors parsedFile with a generic definition.
type decodedEntry struct {
	File       string         `json:"file"`
	Definition map[string]any `json:"definition"`
	Error      string         `json:"error"`
}

func TestParse_SingleFileJSON(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"Main.xmlui": `<Stack gap="4"><Text>hello</Text></Stack>`})

	out, err := runCLI(t, "", "parse", filepath.Join(dir, "Main.xmlui"))
	require.NoError(t, err)

	var def struct {
		Type     string `json:"type"`
		Children []struct {
			Type string `json:"type"`
		} `json:"children"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &def))
	assert.Equal(t, "Stack", def.Type)
	require.Len(t, def.Children, 1)
	assert.Equal(t, "Text", def.Children[0].Type)
}

func TestParse_StdinYAML(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, `<Button label="Go"/>`, "parse", "-f", "yaml")
	require.NoError(t, err)

	var def map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &def))

	assert.Equal(t, "Button", def["type"])
}

func TestParse_DirectoryListsEntries(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"b/Second.xmlui":              `<Text/>`,
		"First.xmlui":                 `<Component name="Card"><Text/></Component>`,
		"notes.txt":                   `<Ignored/>`,
		".hidden/Skipped.xmlui":       `<Text/>`,
		"node_modules/pkg/Lib.xmlui":  `<Text/>`,
		"vendor/github.com/x/Y.xmlui": `<Text/>`,
	})

	out, err := runCLI(t, "", "parse", "-f", "compact", "-w", "2", dir)
	require.NoError(t, err)

	var entries []decodedEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))

	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "First.xmlui"), entries[0].File)
	assert.Equal(t, filepath.Join(dir, "b", "Second.xmlui"), entries[1].File)
	assert.Equal(t, "Card", entries[0].Definition["name"])
	assert.Equal(t, "Text", entries[1].Definition["type"])
}

func TestParse_FailureIsReportedPerFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"Bad.xmlui":  "<A/>\n<B/>",
		"Good.xmlui": `<Text/>`,
	})

	out, err := runCLI(t, "", "parse", dir)
	require.ErrorIs(t, err, ErrCompileFailed)

	var entries []decodedEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Error, "T002")
	assert.Nil(t, entries[0].Definition)
	assert.Empty(t, entries[1].Error)
}

func TestParse_SingleFileFailure(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, "", "parse", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "T001")
}

func TestParse_OutputFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"Main.xmlui": `<Text value="hi"/>`})
	outPath := filepath.Join(dir, "out.json")

	out, err := runCLI(t, "", "parse", "-o", outPath, filepath.Join(dir, "Main.xmlui"))
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Text"`)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, `<Text/>`, "parse", "-f", "xml")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
