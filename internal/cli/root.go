// Package cli implements the jaq command line: ad-hoc queries over XML files,
// SQL databases and DynamoDB tables, and generation of recorder stand-ins.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "text" | "json" | "dump"
	Config string
	Strict bool
}

var ValidFormats = []string{"text", "json", "dump"}

// NewRootCommand creates the jaq root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "jaq",
		Short: "jaq - query and materialize records",
		Long: `Query records from XML documents, SQL databases and DynamoDB tables,
materialize them through a YAML mapping and print the matches.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|dump)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "session config file (YAML)")
	cmd.PersistentFlags().BoolVar(&opts.Strict, "strict", false, "fail on source fields that do not exist")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewGenRecorderCommand(opts))

	return cmd
}
