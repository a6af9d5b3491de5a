package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/plansql/internal/compiler"
	"github.com/roach88/plansql/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Model string // model used to decode a query document
}

// ValidationResult is the JSON output of the validate command.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Kind     string                     `json:"kind"` // "model" | "query"
	Entities int                        `json:"entities,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Cycles   []compiler.CycleWarning    `json:"cycles,omitempty"`
	Problems []string                   `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a CUE model or a query document",
		Long: `Validate a CUE model or a query document.

A directory or .cue file is checked as an entity model: schema rules and
relationship cycles. A .yaml file is decoded as a query document and its
tree checked for structural problems.

Exit codes:
  0 - Valid
  1 - Validation failed
  2 - Command error (missing path, unreadable input)

Examples:
  plansql validate ./models
  plansql validate queries/by_region.yaml --model models/shop.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "CUE model used to decode a query document")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	info, err := os.Stat(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)})
	}
	switch ext := filepath.Ext(path); {
	case info.IsDir() || ext == ".cue":
		return validateModel(formatter, path)
	case ext == ".yaml" || ext == ".yml":
		return validateQuery(formatter, opts.Model, path)
	default:
		return formatter.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("cannot validate %s: expected a directory, .cue or .yaml file", path),
		})
	}
}

func validateModel(formatter *OutputFormatter, path string) error {
	res, err := loadModelResult(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded %d entities from %d file(s)", len(res.Types), res.Files)

	result := ValidationResult{
		Valid:    len(res.Problems) == 0,
		Kind:     "model",
		Entities: len(res.Types),
		Errors:   res.Problems,
		Cycles:   res.Cycles,
	}
	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationErrors(formatter, result)
}

func validateQuery(formatter *OutputFormatter, modelPath, path string) error {
	m, err := loadModel(modelPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	q, err := loadDocument(path, m)
	if err != nil {
		// A malformed document is a validation failure, a missing one a
		// command error.
		code := ExitFailure
		if le, ok := err.(*LoadError); ok && le.Code == ErrCodeNotFound {
			code = ExitCommandError
		}
		return formatter.Fail(code, err)
	}

	v := ir.Validate(q.Expr)
	result := ValidationResult{Valid: v.Valid, Kind: "query", Problems: v.Problems}
	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationErrors(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.Kind == "model" {
		fmt.Fprintf(formatter.Writer, "✓ Model valid (%d entities)\n", result.Entities)
		for _, c := range result.Cycles {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", c.Level, c.Message)
		}
		return nil
	}
	fmt.Fprintln(formatter.Writer, "✓ Query valid")
	return nil
}

// outputValidationErrors outputs every problem and fails with ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	count := len(result.Errors) + len(result.Problems)
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeInvalidQuery, Message: failure.Message},
		}
		if len(result.Errors) > 0 {
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range result.Errors {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	for _, p := range result.Problems {
		fmt.Fprintf(formatter.Writer, "  %s\n", p)
	}
	return failure
}
