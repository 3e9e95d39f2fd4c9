// Package main provides the uimarkup CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
	quiet      bool
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "uimarkup",
		Short: "Compile UI markup into component definitions",
		Long: `uimarkup compiles declarative UI markup files into component definitions.

Commands:
  parse    Compile files and print their definitions
  check    Report problems in markup files
  diff     Compare the definitions of two files
  schema   Print or validate against the definition schema
  serve    Run the HTTP compile service
  lsp      Run the language server on stdio
  mcp      Run the MCP server on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ./.uimarkup.yaml or $HOME/.uimarkup.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(parseCmd(flags))
	rootCmd.AddCommand(checkCmd(flags))
	rootCmd.AddCommand(diffCmd(flags))
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(lspCmd(flags))
	rootCmd.AddCommand(mcpCmd(flags))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}
