package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/engine"
	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/querysql"
	"github.com/roach88/plansql/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	DBPath string // SQLite database path
	Model  string
}

// ExecOutput is the outcome of running one query document.
type ExecOutput struct {
	Name     string   `json:"name"`
	SQL      string   `json:"sql"`
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	Affected *int64   `json:"affected,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <document>",
		Short: "Format a query document and run it against a SQLite database",
		Long: `Format a query document for SQLite and run it.

A select prints its rows; any other statement prints the number of rows
affected. The database file must already exist.

Examples:
  plansql exec queries/by_region.yaml --db shop.db --model models/shop.cue
  plansql exec schema/people.yaml --db shop.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path (required)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "CUE model file or directory")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.DBPath); err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.DBPath)})
	}
	m, err := loadModel(opts.Model)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	q, err := loadDocument(path, m)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	eng := newEngine(opts.Logger(), store.Dialect(), m, querysql.Options{})
	plan, err := eng.Compile(engine.Query{Expr: q.Expr, Projector: q.Projector, Constants: q.Constants})
	if err != nil {
		return formatter.Fail(ExitFailure, &LoadError{Code: ErrCodeCompile, Message: err.Error()})
	}
	formatter.VerboseLog("Running %s against %s", q.Name, opts.DBPath)

	s, err := store.Open(opts.DBPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := ExecOutput{Name: q.Name, SQL: plan.SQL}
	if _, ok := q.Expr.(*ir.Select); ok {
		rows, err := s.QueryAll(ctx, plan.Result)
		if err != nil {
			return formatter.Fail(ExitFailure, &LoadError{Code: ErrCodeExec, Message: err.Error()})
		}
		out.Columns = rows.Columns
		out.Rows = rows.Values
	} else {
		n, err := s.Exec(ctx, plan.Result)
		if err != nil {
			return formatter.Fail(ExitFailure, &LoadError{Code: ErrCodeExec, Message: err.Error()})
		}
		out.Affected = &n
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	writeExecText(formatter, out)
	return nil
}

func writeExecText(formatter *OutputFormatter, out ExecOutput) {
	w := formatter.Writer
	if out.Affected != nil {
		fmt.Fprintf(w, "%d row(s) affected\n", *out.Affected)
		return
	}
	fmt.Fprintln(w, strings.Join(out.Columns, "\t"))
	for _, row := range out.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "(%d row(s))\n", len(out.Rows))
}
