package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
	"github.com/Sumatoshi-tech/uimarkup/pkg/safeconv"
	"github.com/Sumatoshi-tech/uimarkup/pkg/textutil"
)

// ErrProblemsFound indicates check found at least one error.
var ErrProblemsFound = errors.New("problems found")

const formatText = "text"

// fileReport is the check outcome for one file.
type fileReport struct {
	File     string            `json:"file"`
	Lines    int               `json:"lines"`
	Bytes    int               `json:"bytes"`
	Cached   bool              `json:"cached"`
	Error    string            `json:"error,omitempty"`
	Problems []diag.Diagnostic `json:"problems"`
}

func (r fileReport) counts() (errs, warnings int) {
	if r.Error != "" {
		errs++
	}

	for _, p := range r.Problems {
		if p.Severity == diag.SeverityWarning {
			warnings++
		} else {
			errs++
		}
	}

	return errs, warnings
}

type checkOptions struct {
	format          string
	workers         int
	warningsAsError bool
	colorize        bool
	nocolor         bool
}

func checkCmd(flags *globalFlags) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [files or directories...]",
		Short: "Report problems in markup files",
		Long: `Compile markup files and report structural errors and script warnings
with their line and column. Exits with an error when any file has errors.

Examples:
  uimarkup check                       # Check every markup file under the current directory
  uimarkup check src/ Main.xmlui       # Check a directory and a file
  uimarkup check -f json src/          # Machine-readable report
  uimarkup check --strict src/         # Treat warnings as errors`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format (text, json)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.warningsAsError, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&opts.colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&opts.nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runCheck(cmd *cobra.Command, flags *globalFlags, args []string, opts checkOptions) error {
	if opts.format != formatText && opts.format != formatJSON {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.format)
	}

	setColor(opts.colorize, opts.nocolor)

	a, err := setup(flags, setupOptions{mode: observability.ModeCLI})
	if err != nil {
		return err
	}

	defer func() { _ = a.close() }()

	paths, err := collectMarkupFiles(args, a.cfg.Files)
	if err != nil {
		return err
	}

	results := compileAll(cmd.Context(), a, paths, cmd.InOrStdin(), opts.workers)
	reports := make([]fileReport, 0, len(results))

	for _, r := range results {
		reports = append(reports, buildReport(r))
	}

	w := cmd.OutOrStdout()

	if opts.format == formatJSON {
		if err := writeEncoded(w, reports, formatJSON); err != nil {
			return err
		}
	} else {
		printReports(w, reports, flags.quiet)
	}

	var totalErrs, totalWarnings int

	for _, r := range reports {
		errs, warnings := r.counts()
		totalErrs += errs
		totalWarnings += warnings
	}

	if totalErrs > 0 || (opts.warningsAsError && totalWarnings > 0) {
		return fmt.Errorf("%w: %d errors, %d warnings", ErrProblemsFound, totalErrs, totalWarnings)
	}

	return nil
}

func buildReport(r compiled) fileReport {
	report := fileReport{File: r.path, Problems: []diag.Diagnostic{}}

	if r.readErr != nil {
		report.Error = r.readErr.Error()

		return report
	}

	report.Lines = textutil.CountLines(r.file.source)
	report.Bytes = len(r.file.source)
	report.Cached = r.res != nil && r.res.Cached
	report.Problems = append(report.Problems, markup.Problems(string(r.file.source), r.res, r.err)...)

	return report
}

func setColor(colorize, nocolor bool) {
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}
}

func printReports(w io.Writer, reports []fileReport, quiet bool) {
	errColor := color.New(color.FgRed)
	warnColor := color.New(color.FgYellow)
	okColor := color.New(color.FgGreen)

	for _, r := range reports {
		if r.Error != "" {
			errColor.Fprintf(w, "%s: %s\n", r.File, r.Error)

			continue
		}

		for _, p := range r.Problems {
			c := errColor
			if p.Severity == diag.SeverityWarning {
				c = warnColor
			}

			code := string(p.Code)
			if code == "" {
				code = "-"
			}

			fmt.Fprintf(w, "%s:%d:%d: ", r.File, p.Line, p.Column)
			c.Fprintf(w, "%s %s", p.Severity, code)
			fmt.Fprintf(w, ": %s\n", p.Message)
		}
	}

	if quiet {
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"File", "Lines", "Size", "Errors", "Warnings", "Status"})

	var totalErrs, totalWarnings int

	for _, r := range reports {
		errs, warnings := r.counts()
		totalErrs += errs
		totalWarnings += warnings

		status := okColor.Sprint("ok")

		switch {
		case errs > 0:
			status = errColor.Sprint("failed")
		case warnings > 0:
			status = warnColor.Sprint("warnings")
		}

		tbl.AppendRow(table.Row{r.File, r.Lines, humanize.Bytes(safeconv.ByteCount(r.Bytes)), errs, warnings, status})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(reports)), "", "", totalErrs, totalWarnings, ""})
	tbl.Render()
}
