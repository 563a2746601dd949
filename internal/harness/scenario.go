package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/metasql/internal/querysql"
)

// Scenario defines a dialect conformance scenario: one query document
// rendered in every listed dialect and checked against expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialects lists the dialects to render. Empty means all of them.
	Dialects []string `yaml:"dialects,omitempty"`

	// Query is the query document under test (see package compiler).
	Query map[string]any `yaml:"query"`

	// Expect maps a dialect name to the exact resolved SQL it must render.
	Expect map[string]string `yaml:"expect,omitempty"`

	// SourceColumns answers column discovery for an insert from a select
	// that names no columns.
	SourceColumns []string `yaml:"source_columns,omitempty"`

	// Setup lists query documents executed on an in-memory SQLite database
	// before an executes assertion runs the query.
	Setup []map[string]any `yaml:"setup,omitempty"`

	// Assertions validate the renders.
	// Supported types: no_markers, contains, not_contains, error, executes
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates the renders of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "no_markers": no macro call survives resolution
	// - "contains": every render contains Text
	// - "not_contains": no render contains Text
	// - "error": rendering fails with Code
	// - "executes": the SQLite render runs after Setup
	Type string `yaml:"type"`

	// Dialect limits the assertion to one dialect. Empty means every
	// rendered dialect.
	Dialect string `yaml:"dialect,omitempty"`

	// Text is the substring checked by contains and not_contains.
	Text string `yaml:"text,omitempty"`

	// Code is the expected malformed query code (MISSING_FIELD,
	// INVALID_FIELD, UNSUPPORTED) used by error. Empty matches any error.
	Code string `yaml:"code,omitempty"`

	// Rows is the expected row count for executes of a select.
	// Nil skips the check.
	Rows *int `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertNoMarkers   = "no_markers"
	AssertContains    = "contains"
	AssertNotContains = "not_contains"
	AssertError       = "error"
	AssertExecutes    = "executes"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos)
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml/.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
// Dialect names are normalized in place.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Query) == 0 {
		return fmt.Errorf("query is required")
	}

	if len(s.Dialects) == 0 {
		s.Dialects = querysql.Names()
	}
	for i, name := range s.Dialects {
		d, err := querysql.New(name)
		if err != nil {
			return fmt.Errorf("dialects[%d]: %w", i, err)
		}
		s.Dialects[i] = d.Name()
	}

	expect := make(map[string]string, len(s.Expect))
	for name, sql := range s.Expect {
		d, err := querysql.New(name)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if !s.renders(d.Name()) {
			return fmt.Errorf("expect: dialect %q is not rendered by this scenario", name)
		}
		expect[d.Name()] = strings.TrimSpace(sql)
	}
	s.Expect = expect

	for i := range s.Assertions {
		if err := validateAssertion(i, s, &s.Assertions[i]); err != nil {
			return err
		}
	}

	if len(s.Expect) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one expect entry or assertion is required")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, s *Scenario, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Dialect != "" {
		d, err := querysql.New(a.Dialect)
		if err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		a.Dialect = d.Name()
		if !s.renders(a.Dialect) {
			return fmt.Errorf("assertions[%d]: dialect %q is not rendered by this scenario", index, a.Dialect)
		}
	}

	switch a.Type {
	case AssertNoMarkers, AssertError:
	case AssertContains, AssertNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertExecutes:
		if !s.renders("sqlite") {
			return fmt.Errorf("assertions[%d]: executes requires the sqlite dialect", index)
		}
		if a.Rows != nil && *a.Rows < 0 {
			return fmt.Errorf("assertions[%d]: rows must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func (s *Scenario) renders(dialect string) bool {
	for _, d := range s.Dialects {
		if d == dialect {
			return true
		}
	}
	return false
}
