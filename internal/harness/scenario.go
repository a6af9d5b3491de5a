package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/dialect"
)

// Scenario is a sequence of queries compiled, and optionally executed,
// against one dialect with one engine, so later steps observe the plans
// cached by earlier ones.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect is a preset name. Defaults to sqlite.
	Dialect string `yaml:"dialect,omitempty"`

	// Model is the path of a CUE model file or directory.
	// Relative paths resolve against the scenario file's directory.
	Model string `yaml:"model,omitempty"`

	// Setup prepares the in-memory database. Only valid for sqlite.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Steps are compiled in order.
	Steps []Step `yaml:"steps"`

	// dir is the directory the scenario was loaded from.
	dir string
}

// SetupStep is either a table created from a model entity or a raw SQL
// statement.
type SetupStep struct {
	Create string `yaml:"create,omitempty"`
	SQL    string `yaml:"sql,omitempty"`
}

// Step compiles one query. Exactly one of Query and Document is set.
type Step struct {
	Name string `yaml:"name"`

	// Query is an inline expression node in query document syntax.
	Query yaml.Node `yaml:"query,omitempty"`

	// Document is the path of a query document file.
	Document string `yaml:"document,omitempty"`

	// Projector overrides the document's projector.
	Projector string `yaml:"projector,omitempty"`

	// Constants override the document's constants.
	Constants []yaml.Node `yaml:"constants,omitempty"`

	// Execute runs the compiled SQL against the scenario database and
	// records the returned rows.
	Execute bool `yaml:"execute,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the checks for a step. Unset fields are not checked.
type Expect struct {
	// SQL is compared after trimming surrounding whitespace.
	SQL string `yaml:"sql,omitempty"`

	// Parameters are the bound values in order.
	Parameters []any `yaml:"parameters,omitempty"`

	Reusable *bool `yaml:"reusable,omitempty"`
	Cached   *bool `yaml:"cached,omitempty"`

	// Rows are the rows returned by an executed step.
	Rows [][]any `yaml:"rows,omitempty"`

	// Affected is the row count of an executed statement that returns no
	// rows.
	Affected *int64 `yaml:"affected,omitempty"`

	// Error is a substring the step's error must contain.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses a scenario, resolving relative model and document
// paths against dir.
func ParseScenario(data []byte, dir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = dir

	if scenario.Dialect == "" {
		scenario.Dialect = "sqlite"
	}
	if scenario.Model != "" {
		scenario.Model = scenario.resolve(scenario.Model)
	}
	for i := range scenario.Steps {
		if scenario.Steps[i].Document != "" {
			scenario.Steps[i].Document = scenario.resolve(scenario.Steps[i].Document)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// executes reports whether any part of the scenario touches the database.
func (s *Scenario) executes() bool {
	if len(s.Setup) > 0 {
		return true
	}
	for _, step := range s.Steps {
		if step.Execute {
			return true
		}
	}
	return false
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := dialect.Lookup(s.Dialect); err != nil {
		return err
	}
	if s.executes() && s.Dialect != "sqlite" {
		return fmt.Errorf("setup and execute require the sqlite dialect, got %s", s.Dialect)
	}
	if s.Model != "" {
		if _, err := os.Stat(s.Model); os.IsNotExist(err) {
			return fmt.Errorf("model not found: %s", s.Model)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if (step.Create == "") == (step.SQL == "") {
			return fmt.Errorf("setup[%d]: exactly one of create or sql is required", i)
		}
		if step.Create != "" && s.Model == "" {
			return fmt.Errorf("setup[%d]: create requires a model", i)
		}
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if seen[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		seen[step.Name] = true

		if (step.Query.Kind == 0) == (step.Document == "") {
			return fmt.Errorf("steps[%d]: exactly one of query or document is required", i)
		}
		if e := step.Expect; e != nil {
			if (len(e.Rows) > 0 || e.Affected != nil) && !step.Execute {
				return fmt.Errorf("steps[%d].expect: rows and affected require execute", i)
			}
			if e.Error != "" && (e.SQL != "" || len(e.Rows) > 0) {
				return fmt.Errorf("steps[%d].expect: error excludes sql and rows", i)
			}
		}
	}
	return nil
}
