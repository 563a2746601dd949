package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot formats the renders of a result for golden comparison:
//
//	-- mysql
//	SELECT ...;
//	-- postgres
//	error: malformed ...
func Snapshot(result *Result) []byte {
	var buf strings.Builder
	for _, rd := range result.Renders {
		buf.WriteString("-- " + rd.Dialect + "\n")
		if rd.Error != "" {
			buf.WriteString("error: " + rd.Error + "\n")
			continue
		}
		buf.WriteString(rd.SQL + "\n")
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its renders against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. Test failure (via goldie)
// occurs if the renders don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
