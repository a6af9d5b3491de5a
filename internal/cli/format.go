package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/engine"
	"github.com/roach88/plansql/internal/model"
	"github.com/roach88/plansql/internal/querydoc"
	"github.com/roach88/plansql/internal/querysql"
)

// FormatOptions holds flags for the format command.
type FormatOptions struct {
	*RootOptions
	Model       string // CUE model file or directory
	Dialect     string // preset name, overrides the document's
	DialectFile string // YAML dialect definition
	Mode        string // parameterize | evaluate | tokens
	Indent      int    // spaces per nesting level
}

// FormatOutput is the formatted form of one query document.
type FormatOutput struct {
	Name             string            `json:"name"`
	Dialect          string            `json:"dialect"`
	Mode             string            `json:"mode"`
	SQL              string            `json:"sql"`
	Parameters       []ParameterOutput `json:"parameters"`
	ParameterIndexes map[int]int       `json:"parameter_indexes,omitempty"`
	Reusable         bool              `json:"reusable"`
	Fingerprint      string            `json:"fingerprint"`
}

// ParameterOutput is one bound parameter.
type ParameterOutput struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
	// Placeholder is the constant index the parameter was bound from,
	// absent for fixed values.
	Placeholder *int `json:"placeholder,omitempty"`
}

// NewFormatCommand creates the format command.
func NewFormatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FormatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "format <document>",
		Short: "Format a query document as SQL",
		Long: `Format a query document as SQL text and ordered parameters.

The document's own dialect is used unless --dialect or --dialect-file is
given. Entity-valued nodes need --model.

Examples:
  plansql format queries/by_region.yaml --model models/shop.cue
  plansql format query.yaml --dialect postgres --format json
  plansql format query.yaml --dialect-file dialects/custom.yaml --mode tokens`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "CUE model file or directory")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "dialect preset (default: the document's, else sql92)")
	cmd.Flags().StringVar(&opts.DialectFile, "dialect-file", "", "YAML dialect definition")
	cmd.Flags().StringVar(&opts.Mode, "mode", "parameterize", "placeholder mode (parameterize|evaluate|tokens)")
	cmd.Flags().IntVar(&opts.Indent, "indent", 2, "spaces per nesting level")

	return cmd
}

func runFormat(opts *FormatOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	mode, err := querysql.ParseMode(opts.Mode)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	m, err := loadModel(opts.Model)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	q, err := loadDocument(path, m)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	d, err := loadDialect(opts.Dialect, opts.DialectFile, q.Dialect)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Formatting %s for dialect %s (%s)", q.Name, d.Name, mode)

	eng := newEngine(opts.Logger(), d, m, querysql.Options{Mode: mode, IndentWidth: opts.Indent})
	plan, err := eng.Compile(engine.Query{Expr: q.Expr, Projector: q.Projector, Constants: q.Constants})
	if err != nil {
		return formatter.Fail(ExitFailure, &LoadError{Code: ErrCodeCompile, Message: err.Error()})
	}

	out := newFormatOutput(q, d, mode, plan)
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	writeFormatText(formatter.Writer, out)
	return nil
}

// newEngine builds a validating engine. A nil model leaves entity
// assignability to the rewriter's default.
func newEngine(logger *zap.Logger, d *dialect.Dialect, m *model.Model, fopts querysql.Options) *engine.Engine {
	cfg := engine.Config{
		Dialect:  d,
		Options:  fopts,
		Logger:   logger.Named("engine"),
		Validate: true,
	}
	if m != nil {
		cfg.Types = m
	}
	return engine.New(cfg)
}

func newFormatOutput(q *querydoc.Query, d *dialect.Dialect, mode querysql.Mode, plan *engine.Plan) FormatOutput {
	out := FormatOutput{
		Name:             q.Name,
		Dialect:          d.Name,
		Mode:             mode.String(),
		SQL:              plan.SQL,
		Parameters:       make([]ParameterOutput, len(plan.Parameters)),
		ParameterIndexes: plan.ParameterIndexes,
		Reusable:         plan.Reusable(),
		Fingerprint:      plan.Fingerprint,
	}
	for i, p := range plan.Parameters {
		out.Parameters[i] = ParameterOutput{Type: string(p.Type), Value: p.Value}
		if idx, ok := plan.ParameterIndexes[i]; ok {
			out.Parameters[i].Placeholder = &idx
		}
	}
	return out
}

func writeFormatText(w io.Writer, out FormatOutput) {
	fmt.Fprintln(w, out.SQL)
	if len(out.Parameters) > 0 {
		fmt.Fprintln(w)
	}
	for i, p := range out.Parameters {
		fmt.Fprintf(w, "param %d: %s %v", i, p.Type, p.Value)
		if p.Placeholder != nil {
			fmt.Fprintf(w, " <- $%d", *p.Placeholder)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "dialect: %s, reusable: %t\n", out.Dialect, out.Reusable)
	fmt.Fprintf(w, "fingerprint: %s\n", out.Fingerprint)
}
