package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/ir"
)

// FingerprintOptions holds flags for the fingerprint command.
type FingerprintOptions struct {
	*RootOptions
	Model string
}

// FingerprintOutput is the fingerprint of one query document.
type FingerprintOutput struct {
	Name        string `json:"name"`
	Projector   string `json:"projector,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// NewFingerprintCommand creates the fingerprint command.
func NewFingerprintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FingerprintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fingerprint <document>",
		Short: "Print the plan cache fingerprint of a query document",
		Long: `Print the structural fingerprint a query document is cached under.

Documents that differ only in constant values share a fingerprint.

Examples:
  plansql fingerprint queries/by_region.yaml --model models/shop.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFingerprint(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "CUE model file or directory")

	return cmd
}

func runFingerprint(opts *FingerprintOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	m, err := loadModel(opts.Model)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	q, err := loadDocument(path, m)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	fp, err := ir.Fingerprint(q.Expr, q.Projector)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	out := FingerprintOutput{Name: q.Name, Projector: q.Projector, Fingerprint: fp}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintln(formatter.Writer, fp)
	return nil
}
