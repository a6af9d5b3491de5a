package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/roach88/plansql/internal/compiler"
	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/model"
	"github.com/roach88/plansql/internal/querydoc"
)

// LoadError is an input that could not be loaded, tagged with an error
// code for JSON output.
type LoadError struct {
	Code    string
	Message string
	Line    int // 1-based, 0 if unknown
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or evaluation failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeInvalidModel = "E100" // Model schema violations
	ErrCodeDocument     = "E201" // Malformed query document
	ErrCodeInvalidQuery = "E202" // Query tree failed validation
	ErrCodeDialect      = "E301" // Unknown or malformed dialect
	ErrCodeCompile      = "E401" // Rewrite or format failure
	ErrCodeExec         = "E501" // Statement failed against the database
)

// loadModel loads the CUE model at path. An empty path means no model.
func loadModel(path string) (*model.Model, error) {
	if path == "" {
		return nil, nil
	}
	res, err := loadModelResult(path)
	if err != nil {
		return nil, err
	}
	if len(res.Problems) > 0 {
		msgs := make([]string, len(res.Problems))
		for i, p := range res.Problems {
			msgs[i] = p.Error()
		}
		return nil, &LoadError{
			Code:    ErrCodeInvalidModel,
			Message: fmt.Sprintf("invalid model %s: %s", path, strings.Join(msgs, "; ")),
		}
	}
	return res.Model, nil
}

// loadModelResult runs compiler.Load and maps its failures to load errors.
// Schema problems are left in the result.
func loadModelResult(path string) (*compiler.LoadResult, error) {
	res, err := compiler.Load(path)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model not found: %s", path)}
	case strings.Contains(err.Error(), "no CUE files found"):
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: err.Error()}
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
}

// loadDialect resolves the target dialect. A dialect file wins over a
// preset name; fallback names the preset used when name is empty.
func loadDialect(name, file, fallback string) (*dialect.Dialect, error) {
	if file != "" {
		d, err := dialect.LoadFile(file)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDialect, Message: err.Error()}
		}
		return d, nil
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "sql92"
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDialect, Message: err.Error()}
	}
	return d, nil
}

// loadDocument reads and decodes the query document at path.
func loadDocument(path string, m *model.Model) (*querydoc.Query, error) {
	q, err := querydoc.Load(path, m)
	if err == nil {
		return q, nil
	}
	le := &LoadError{Code: ErrCodeDocument, Message: err.Error()}
	var de *querydoc.Error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		le.Code = ErrCodeNotFound
		le.Message = fmt.Sprintf("query document not found: %s", path)
	case errors.As(err, &de):
		le.Message = fmt.Sprintf("%s: %s: %s", path, de.Path, de.Message)
		le.Line = de.Line
	}
	return nil, le
}
