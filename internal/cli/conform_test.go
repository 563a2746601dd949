package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deleteScenario = `name: delete_inactive
description: Delete renders with each dialect's boolean literal
dialects: [mysql, postgres]
query:
  operation: delete
  table: users
  where:
    - {left: active, value: false}
expect:
  mysql: "DELETE FROM ` + "`users`" + ` WHERE active = 0;"
  postgres: 'DELETE FROM "users" WHERE active = FALSE;'
assertions:
  - type: no_markers
`

const deleteGolden = "-- mysql\nDELETE FROM `users` WHERE active = 0;\n-- postgres\nDELETE FROM \"users\" WHERE active = FALSE;\n"

func writeScenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestConform_Passes(t *testing.T) {
	fs := testEnv(t)
	dir := writeScenarioDir(t, map[string]string{
		"delete_inactive.yaml":           deleteScenario,
		"golden/delete_inactive.golden": deleteGolden,
	})

	out, err := run(t, fs, "", "conform", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "delete_inactive")
	assert.Contains(t, out, "Conformance Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestConform_PackagedScenarios(t *testing.T) {
	fs := testEnv(t)

	out, err := run(t, fs, "", "conform", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "4 passed, 0 failed, 4 total")
}

func TestConform_GoldenMismatch(t *testing.T) {
	fs := testEnv(t)
	dir := writeScenarioDir(t, map[string]string{
		"delete_inactive.yaml":           deleteScenario,
		"golden/delete_inactive.golden": "-- mysql\nDELETE FROM users;\n",
	})

	out, err := run(t, fs, "", "conform", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "do not match golden file")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestConform_UpdateWritesGolden(t *testing.T) {
	fs := testEnv(t)
	dir := writeScenarioDir(t, map[string]string{"delete_inactive.yaml": deleteScenario})

	_, err := run(t, fs, "", "conform", dir, "--update")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "golden", "delete_inactive.golden"))
	require.NoError(t, err)
	assert.Equal(t, deleteGolden, string(data))

	// The written golden is picked up on the next run.
	_, err = run(t, fs, "", "conform", dir)
	require.NoError(t, err)
}

func TestConform_ExpectationFailure(t *testing.T) {
	fs := testEnv(t)
	broken := `name: wrong
description: Expects the wrong quoting
dialects: [postgres]
query: {operation: delete, table: users}
expect:
  postgres: "DELETE FROM users;"
`
	dir := writeScenarioDir(t, map[string]string{"wrong.yaml": broken})

	out, err := run(t, fs, "", "conform", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string        `json:"status"`
		Data   ConformResult `json:"data"`
		Error  *CLIError     `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_CONFORM_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestConform_Filter(t *testing.T) {
	fs := testEnv(t)
	dir := writeScenarioDir(t, map[string]string{
		"delete_inactive.yaml": deleteScenario,
		"broken.yaml":          "name: [",
	})

	out, err := run(t, fs, "", "conform", dir, "--filter", "delete_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = run(t, fs, "", "conform", dir, "--filter", "nothing_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	_, err = run(t, fs, "", "conform", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConform_LoadFailure(t *testing.T) {
	fs := testEnv(t)
	dir := writeScenarioDir(t, map[string]string{"broken.yaml": "name: ["})

	out, err := run(t, fs, "", "conform", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestConform_MissingDirectory(t *testing.T) {
	fs := testEnv(t)

	_, err := run(t, fs, "", "conform", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}
