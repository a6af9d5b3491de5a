package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text for golden comparison.
// Fingerprints are left out so golden files survive hash changes.
//
// Each step renders as:
//
//	-- name --
//	reusable: true, cached: false
//	param 0: int 1 <- $0
//	SELECT ...
//	row: "ann"
func Snapshot(scenario *Scenario, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&buf, "dialect: %s\n", scenario.Dialect)

	for _, step := range result.Steps {
		fmt.Fprintf(&buf, "\n-- %s --\n", step.Name)
		if step.Error != "" {
			fmt.Fprintf(&buf, "error: %s\n", step.Error)
			continue
		}
		fmt.Fprintf(&buf, "reusable: %t, cached: %t\n", step.Reusable, step.Cached)
		for i, p := range step.Parameters {
			fmt.Fprintf(&buf, "param %d: %s %s", i, p.Type, formatValue(p.Value))
			if idx, ok := step.Indexes[i]; ok {
				fmt.Fprintf(&buf, " <- $%d", idx)
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(step.SQL)
		buf.WriteByte('\n')
		for _, row := range step.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatValue(v)
			}
			fmt.Fprintf(&buf, "row: %s\n", strings.Join(cells, ", "))
		}
		if step.Affected != nil {
			fmt.Fprintf(&buf, "affected: %d\n", *step.Affected)
		}
	}
	return []byte(buf.String())
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case []byte:
		return fmt.Sprintf("x'%x'", val)
	default:
		return fmt.Sprint(val)
	}
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, Options{})
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
