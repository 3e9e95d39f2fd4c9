package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/lsp"
	"github.com/Sumatoshi-tech/uimarkup/pkg/mcp"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
	"github.com/Sumatoshi-tech/uimarkup/pkg/version"
)

func lspCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the markup language server (LSP)",
		Long: `Start a language server for markup files on stdio.

It publishes problems as diagnostics on open, change and save, and offers
element completion and hover documentation.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := setup(flags, setupOptions{mode: observability.ModeLSP})
			if err != nil {
				return err
			}

			defer func() { _ = a.close() }()

			return lsp.NewServer(a.compiler, a.red, a.logger, version.Get().Version).Run()
		},
	}
}

func mcpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - markup_transform:    compile a document into its component definition
  - markup_check:        list the problems of a document
  - definition_validate: validate a definition against the schema`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(flags, setupOptions{mode: observability.ModeMCP})
			if err != nil {
				return err
			}

			defer func() { _ = a.close() }()

			srv := mcp.NewServer(mcp.ServerDeps{
				Compiler: a.compiler,
				Logger:   a.logger,
				Metrics:  a.red,
				Tracer:   a.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
