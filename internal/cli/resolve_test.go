package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Argument(t *testing.T) {
	fs := testEnv(t)

	out, err := run(t, fs, "", "resolve", "SELECT &DateAdd(&CurrentDate, 1, d), 'AT&&T'")
	require.NoError(t, err)
	assert.Equal(t, "SELECT DATE_ADD(CURDATE(), INTERVAL 1 DAY), 'AT&T'\n", out)
}

func TestResolve_Stdin(t *testing.T) {
	fs := testEnv(t)

	out, err := run(t, fs, "SELECT &Concat(a, b)\n", "resolve", "--dialect", "sqlite")
	require.NoError(t, err)
	assert.Equal(t, "SELECT (a || b)\n", out)
}

func TestResolve_StrictFailsOnUnknownMacro(t *testing.T) {
	fs := testEnv(t)

	out, err := run(t, fs, "", "resolve", "--format", "json", "SELECT &Nope(1), &Max(x)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnresolved, resp.Error.Code)
	assert.Equal(t, "unresolved macros: Nope", resp.Error.Message)
}

func TestResolve_NonStrictKeepsUnknownMacro(t *testing.T) {
	fs := testEnv(t)

	out, err := run(t, fs, "", "resolve", "--strict=false", "--format", "json", "SELECT &Nope(1), &Max(x)")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ResolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT &Nope(1), MAX(x)", resp.Data.SQL)
	assert.Equal(t, []string{"Nope"}, resp.Data.Unresolved)
	assert.Equal(t, "mysql", resp.Data.Dialect)
}

func TestResolve_StrictFromConfig(t *testing.T) {
	fs := testEnv(t)
	t.Setenv("METASQL_STRICT_MACROS", "false")

	out, err := run(t, fs, "", "resolve", "SELECT &Nope(1)")
	require.NoError(t, err)
	assert.Equal(t, "SELECT &Nope(1)\n", out)
}
