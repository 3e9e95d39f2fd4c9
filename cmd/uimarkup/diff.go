package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
)

// diffArgCount is the number of arguments expected by the diff command.
const diffArgCount = 2

const (
	diffFormatUnified = "unified"
	diffFormatSummary = "summary"
)

// debugKey is the definition field holding source positions.
const debugKey = "debug"

// DiffLine is one line of a definition diff.
type DiffLine struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// DefinitionDiff compares the definitions of two files.
type DefinitionDiff struct {
	Before  string     `json:"before"`
	After   string     `json:"after"`
	Added   int        `json:"added"`
	Removed int        `json:"removed"`
	Lines   []DiffLine `json:"lines"`
}

// Equal reports whether the definitions are the same.
func (d DefinitionDiff) Equal() bool {
	return d.Added == 0 && d.Removed == 0
}

func diffCmd(flags *globalFlags) *cobra.Command {
	var output, format string

	var withDebug bool

	cmd := &cobra.Command{
		Use:   "diff file1 file2",
		Short: "Compare the component definitions of two markup files",
		Long: `Compile two markup files and compare their component definitions line by line.

Source positions are left out unless --debug is given, so formatting-only
edits compare equal.

Examples:
  uimarkup diff old.xmlui new.xmlui            # Unified diff
  uimarkup diff -f summary old.xmlui new.xmlui # Counts only
  uimarkup diff -f json old.xmlui new.xmlui    # Machine-readable`,
		Args: cobra.ExactArgs(diffArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, flags, args[0], args[1], output, format, withDebug)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", diffFormatUnified, "output format (unified, summary, json)")
	cmd.Flags().BoolVar(&withDebug, "debug", false, "include source positions in the comparison")

	return cmd
}

func runDiff(cmd *cobra.Command, flags *globalFlags, file1, file2, output, format string, withDebug bool) error {
	a, err := setup(flags, setupOptions{mode: observability.ModeCLI})
	if err != nil {
		return err
	}

	defer func() { _ = a.close() }()

	results := compileAll(cmd.Context(), a, []string{file1, file2}, cmd.InOrStdin(), diffArgCount)

	texts := make([]string, 0, diffArgCount)

	for _, r := range results {
		if r.readErr != nil {
			return r.readErr
		}

		if r.err != nil {
			return fmt.Errorf("%s: %w", r.path, r.err)
		}

		text, encErr := definitionText(r.res.Definition, withDebug)
		if encErr != nil {
			return encErr
		}

		texts = append(texts, text)
	}

	d := diffDefinitions(file1, file2, texts[0], texts[1])

	writer, closeOutput, err := openOutput(output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	defer func() { _ = closeOutput() }()

	switch format {
	case formatJSON:
		return writeEncoded(writer, d, formatJSON)
	case diffFormatUnified:
		printUnifiedDiff(writer, d)

		return nil
	case diffFormatSummary:
		printDiffSummary(writer, d)

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// definitionText renders def as indented JSON, optionally without debug
// positions.
func definitionText(def compdef.Definition, withDebug bool) (string, error) {
	generic, err := toGeneric(def)
	if err != nil {
		return "", err
	}

	if !withDebug {
		stripKey(generic, debugKey)
	}

	data, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode JSON: %w", err)
	}

	return string(data) + "\n", nil
}

func stripKey(value any, key string) {
	switch v := value.(type) {
	case map[string]any:
		delete(v, key)

		for _, child := range v {
			stripKey(child, key)
		}
	case []any:
		for _, child := range v {
			stripKey(child, key)
		}
	}
}

func diffDefinitions(before, after, textBefore, textAfter string) DefinitionDiff {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(textBefore, textAfter)
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCharsToLines(dmp.DiffCleanupMerge(diffs), lines)

	out := DefinitionDiff{Before: before, After: after}

	for _, d := range diffs {
		op := " "

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = "+"
		case diffmatchpatch.DiffDelete:
			op = "-"
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			out.Lines = append(out.Lines, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})

			switch op {
			case "+":
				out.Added++
			case "-":
				out.Removed++
			}
		}
	}

	return out
}

func printUnifiedDiff(w io.Writer, d DefinitionDiff) {
	if d.Equal() {
		return
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	fmt.Fprintf(w, "--- %s\n", d.Before)
	fmt.Fprintf(w, "+++ %s\n", d.After)

	for _, line := range d.Lines {
		switch line.Op {
		case "+":
			added.Fprintf(w, "+%s\n", line.Text)
		case "-":
			removed.Fprintf(w, "-%s\n", line.Text)
		default:
			fmt.Fprintf(w, " %s\n", line.Text)
		}
	}
}

func printDiffSummary(w io.Writer, d DefinitionDiff) {
	if d.Equal() {
		fmt.Fprintln(w, "Definitions are identical")

		return
	}

	fmt.Fprintf(w, "Change Summary:\n  added: %d\n  removed: %d\n", d.Added, d.Removed)
}
