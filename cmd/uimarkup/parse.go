package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
)

// ErrCompileFailed indicates at least one input did not compile.
var ErrCompileFailed = errors.New("compilation failed")

// parsedFile is one entry of multi-file parse output.
type parsedFile struct {
	File       string              `json:"file"`
	Definition *compdef.Definition `json:"definition,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type parseOptions struct {
	output  string
	format  string
	workers int
}

func parseCmd(flags *globalFlags) *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [files or directories...]",
		Short: "Compile markup files and print their component definitions",
		Long: `Compile markup files into component definitions.

A single input prints its definition. Several inputs, or a directory, print
a list of {file, definition} entries.

Examples:
  uimarkup parse Main.xmlui                 # Compile one file
  uimarkup parse src/                       # Compile every markup file under src/
  cat Main.xmlui | uimarkup parse -         # Compile standard input
  uimarkup parse -f yaml Main.xmlui         # Output as YAML
  uimarkup parse -o out.json -w 8 src/      # Save to a file using 8 workers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{stdinPath}
			}

			return runParse(cmd, flags, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (json, yaml, compact; default from config)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")

	return cmd
}

func runParse(cmd *cobra.Command, flags *globalFlags, args []string, opts parseOptions) error {
	a, err := setup(flags, setupOptions{mode: observability.ModeCLI})
	if err != nil {
		return err
	}

	defer func() { _ = a.close() }()

	format := opts.format
	if format == "" {
		format = a.cfg.Output.Format
	}

	paths, err := collectMarkupFiles(args, a.cfg.Files)
	if err != nil {
		return err
	}

	results := compileAll(cmd.Context(), a, paths, cmd.InOrStdin(), opts.workers)

	writer, closeOutput, err := openOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	defer func() { _ = closeOutput() }()

	single := len(args) == 1 && len(results) == 1 && args[0] == results[0].path
	if single {
		return writeSingle(writer, results[0], format)
	}

	entries := make([]parsedFile, 0, len(results))
	failed := 0

	for _, r := range results {
		entry := parsedFile{File: r.path}

		switch {
		case r.readErr != nil:
			entry.Error = r.readErr.Error()
			failed++
		case r.err != nil:
			entry.Error = r.err.Error()
			failed++
		default:
			entry.Definition = &r.res.Definition
		}

		entries = append(entries, entry)
	}

	if err := writeEncoded(writer, entries, format); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrCompileFailed, failed, len(results))
	}

	return nil
}

func writeSingle(w io.Writer, r compiled, format string) error {
	if r.readErr != nil {
		return r.readErr
	}

	if r.err != nil {
		return fmt.Errorf("%s: %w", r.path, r.err)
	}

	return writeEncoded(w, r.res.Definition, format)
}
