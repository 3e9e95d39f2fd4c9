package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/schema"
)

// ErrSchemaViolations indicates a document does not match the schema.
var ErrSchemaViolations = errors.New("definition does not match the schema")

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the component definition JSON schema",
		Long: `Print the JSON schema describing compiled component definitions.

Examples:
  uimarkup schema > compdef-schema.json
  uimarkup schema validate out.json
  uimarkup parse Main.xmlui | uimarkup schema validate -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(schema.Bytes())

			return err
		},
	}

	cmd.AddCommand(schemaValidateCmd())

	return cmd
}

func schemaValidateCmd() *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <file.json|->",
		Short: "Validate a definition JSON file against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setColor(colorize, nocolor)

			return runSchemaValidate(cmd.OutOrStdout(), cmd.InOrStdin(), args[0])
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runSchemaValidate(w io.Writer, stdin io.Reader, path string) error {
	var (
		data []byte
		err  error
	)

	if path == stdinPath {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	} else {
		data, _, err = safeReadFile(path)
		if err != nil {
			return err
		}
	}

	violations, err := schema.Validate(data)
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		color.New(color.FgGreen).Fprintf(w, "Definition is valid (%s)\n", path)

		return nil
	}

	color.New(color.FgRed).Fprintf(w, "Definition is invalid (%s)\n", path)

	for _, v := range violations {
		color.New(color.FgYellow).Fprintf(w, "  - %s: %s\n", v.Field, v.Description)
	}

	return fmt.Errorf("%w: %d violations", ErrSchemaViolations, len(violations))
}
