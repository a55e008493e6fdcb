package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/recorder/recordergen"
)

type GenRecorderOptions struct {
	Types   []string
	Package string
	Output  string
}

// NewGenRecorderCommand creates the gen-recorder command.
func NewGenRecorderCommand(_ *RootOptions) *cobra.Command {
	opts := &GenRecorderOptions{}

	cmd := &cobra.Command{
		Use:   "gen-recorder <file.go>",
		Short: "Generate recorder stand-ins for interfaces",
		Long: `Generate stand-ins that let query conditions record method calls on
interface types. Without --type every exported interface of the file is used.

Typical use is a go:generate directive next to the interfaces:
  //go:generate jaq gen-recorder shapes.go`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := recordergen.GenerateFile(args[0], recordergen.Config{
				Types:   opts.Types,
				Package: opts.Package,
			})
			if err != nil {
				return err
			}
			out := opts.Output
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(src)
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_standin.go"
			}
			if err := os.WriteFile(out, src, 0o644); err != nil {
				return errors.Wrap(err, "unable to write stand-ins")
			}
			cmd.PrintErrf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Types, "type", "t", nil, "interface to generate, repeatable")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package clause of the output")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `output file ("-" for stdout, default <file>_standin.go)`)

	return cmd
}
