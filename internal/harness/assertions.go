package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// ExpectationError describes one failed check of a step.
type ExpectationError struct {
	Step     string
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "step %s: %s mismatch\n", e.Step, e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// CheckExpect compares a step outcome against the step's expectations and
// returns one message per failed check. A step without expectations only
// fails if it errored.
func CheckExpect(step Step, got StepResult) []string {
	var errs []string
	fail := func(field, expected, actual string) {
		errs = append(errs, (&ExpectationError{
			Step:     step.Name,
			Field:    field,
			Expected: expected,
			Actual:   actual,
		}).Error())
	}

	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}

	if exp.Error != "" {
		if got.Error == "" {
			fail("error", fmt.Sprintf("error containing %q", exp.Error), "no error")
		} else if !strings.Contains(got.Error, exp.Error) {
			fail("error", fmt.Sprintf("error containing %q", exp.Error), got.Error)
		}
		return errs
	}
	if got.Error != "" {
		fail("error", "no error", got.Error)
		return errs
	}

	if exp.SQL != "" && strings.TrimSpace(exp.SQL) != strings.TrimSpace(got.SQL) {
		fail("sql", strings.TrimSpace(exp.SQL), got.SQL)
	}

	if exp.Parameters != nil {
		actual := make([]any, len(got.Parameters))
		for i, p := range got.Parameters {
			actual[i] = p.Value
		}
		if !matchValues(exp.Parameters, actual) {
			fail("parameters", fmt.Sprint(exp.Parameters), fmt.Sprint(actual))
		}
	}

	if exp.Reusable != nil && *exp.Reusable != got.Reusable {
		fail("reusable", fmt.Sprint(*exp.Reusable), fmt.Sprint(got.Reusable))
	}
	if exp.Cached != nil && *exp.Cached != got.Cached {
		fail("cached", fmt.Sprint(*exp.Cached), fmt.Sprint(got.Cached))
	}

	if exp.Rows != nil {
		if len(exp.Rows) != len(got.Rows) {
			fail("rows", fmt.Sprintf("%d rows %v", len(exp.Rows), exp.Rows),
				fmt.Sprintf("%d rows %v", len(got.Rows), got.Rows))
		} else {
			for i := range exp.Rows {
				if !matchValues(exp.Rows[i], got.Rows[i]) {
					fail(fmt.Sprintf("rows[%d]", i), fmt.Sprint(exp.Rows[i]), fmt.Sprint(got.Rows[i]))
				}
			}
		}
	}

	if exp.Affected != nil {
		switch {
		case got.Affected == nil:
			fail("affected", fmt.Sprint(*exp.Affected), "not executed as a statement")
		case *got.Affected != *exp.Affected:
			fail("affected", fmt.Sprint(*exp.Affected), fmt.Sprint(*got.Affected))
		}
	}
	return errs
}

// matchValues compares YAML-decoded expectations with driver values.
// YAML integers decode as int, the driver returns int64.
func matchValues(expected, actual []any) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if !reflect.DeepEqual(normalize(expected[i]), normalize(actual[i])) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	default:
		return v
	}
}
