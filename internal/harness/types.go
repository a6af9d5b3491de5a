package harness

import "github.com/roach88/plansql/internal/ir"

// StepResult is what one scenario step produced.
type StepResult struct {
	Name        string          `json:"name"`
	SQL         string          `json:"sql,omitempty"`
	Parameters  []ir.TypedValue `json:"parameters,omitempty"`
	Indexes     map[int]int     `json:"parameter_indexes,omitempty"`
	Reusable    bool            `json:"reusable"`
	Cached      bool            `json:"cached"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Rows        [][]any         `json:"rows,omitempty"`
	Affected    *int64          `json:"affected,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step met its expectations.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step, in order.
	Steps []StepResult `json:"steps"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step outcome.
func (r *Result) AddStep(step StepResult) {
	r.Steps = append(r.Steps, step)
}
