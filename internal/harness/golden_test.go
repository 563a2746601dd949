package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConformance runs every scenario under testdata/scenarios and pins
// its renders in testdata/golden.
//
// To regenerate golden files after an intentional change:
//
//	go test ./internal/harness -run TestConformance -update
func TestConformance(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Format(t *testing.T) {
	result := NewResult()
	result.Renders = []Render{
		{Dialect: "mysql", SQL: "SELECT 1;"},
		{Dialect: "sqlite", Error: "malformed SELECT query: tables: at least one table is required"},
	}

	assert.Equal(t, "-- mysql\nSELECT 1;\n-- sqlite\nerror: malformed SELECT query: tables: at least one table is required\n",
		string(Snapshot(result)))
}
