package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/dialect"
)

// DialectInfo summarizes one dialect preset.
type DialectInfo struct {
	Name              string `json:"name"`
	ParameterStyle    string `json:"parameter_style"`
	LimitStyle        string `json:"limit_style"`
	SupportsForUpdate bool   `json:"supports_for_update"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List the built-in dialect presets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, cmd)
		},
	}
}

func runDialects(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	names := dialect.Names()
	infos := make([]DialectInfo, 0, len(names))
	for _, name := range names {
		d, err := dialect.Lookup(name)
		if err != nil {
			return formatter.Fail(ExitFailure, err)
		}
		infos = append(infos, DialectInfo{
			Name:              d.Name,
			ParameterStyle:    string(d.ParameterStyle),
			LimitStyle:        string(d.LimitStyle),
			SupportsForUpdate: d.SupportsForUpdate,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	for _, info := range infos {
		line := fmt.Sprintf("%-10s parameters=%s limit=%s", info.Name, info.ParameterStyle, info.LimitStyle)
		if info.SupportsForUpdate {
			line += " for-update"
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}
