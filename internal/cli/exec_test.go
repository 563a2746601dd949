package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_SQLiteRoundTrip(t *testing.T) {
	fs := testEnv(t)
	dsn := filepath.Join(t.TempDir(), "shop.db")

	create := writeDoc(t, fs, "/docs/create.yaml", `
operation: create_table
table: people
columns:
  - {name: id, type: INTEGER, primary: true, auto_increment: true}
  - {name: name, type: TEXT}
  - {name: nick, type: TEXT, nullable: true}
`)
	insert := writeDoc(t, fs, "/docs/insert.yaml", `
operation: insert
table: people
columns: [name, nick]
values:
  - ["O'Brien", null]
  - ["AT&T", "&Upper(x)"]
`)
	query := writeDoc(t, fs, "/docs/query.yaml", `
operation: select
columns: [name, nick, {expr: "&Upper(name)", as: shout}]
tables: [people]
order: [id]
`)

	out, err := run(t, fs, "", "exec", create, "-d", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "row(s) affected")

	out, err = run(t, fs, "", "exec", insert, "-d", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "2 row(s) affected")

	out, err = run(t, fs, "", "exec", query, "-d", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "name    | nick      | shout  \n"+
		"O'Brien | NULL      | O'BRIEN\n"+
		"AT&T    | &Upper(x) | AT&T   \n"+
		"(2 row(s))\n", out)

	out, err = run(t, fs, "", "exec", query, "-d", "sqlite", "--dsn", dsn, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ExecResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"name", "nick", "shout"}, resp.Data.Columns)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, "AT&T", resp.Data.Rows[1]["name"])
	assert.Nil(t, resp.Data.Rows[0]["nick"])
}

func TestExec_DSNFromEnvironment(t *testing.T) {
	fs := testEnv(t)
	t.Setenv("METASQL_DSN", filepath.Join(t.TempDir(), "env.db"))
	doc := writeDoc(t, fs, "/docs/check.yaml", "operation: check_table\ntables: [missing]\n")

	out, err := run(t, fs, "", "exec", doc, "-d", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "exists")
	assert.Contains(t, out, "(1 row(s))")
}

func TestExec_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		args     []string
		wantCode string
		wantExit int
	}{
		{
			name:     "no DSN",
			doc:      "operation: select\ntables: [t]\n",
			args:     []string{"-d", "sqlite"},
			wantCode: ErrCodeConfig,
			wantExit: ExitCommandError,
		},
		{
			name:     "bad mysql DSN",
			doc:      "operation: select\ntables: [t]\n",
			args:     []string{"--dsn", "not a dsn"},
			wantCode: ErrCodeDatabase,
			wantExit: ExitCommandError,
		},
		{
			name:     "statement fails",
			doc:      "operation: select\ntables: [missing]\n",
			args:     []string{"-d", "sqlite", "--dsn", ":memory:"},
			wantCode: ErrCodeExecFailed,
			wantExit: ExitFailure,
		},
		{
			name:     "malformed query",
			doc:      "operation: delete\n",
			args:     []string{"-d", "sqlite", "--dsn", ":memory:"},
			wantCode: ErrCodeCompile,
			wantExit: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testEnv(t)
			path := writeDoc(t, fs, "/docs/q.yaml", tt.doc)

			args := append([]string{"exec", path, "--format", "json"}, tt.args...)
			out, err := run(t, fs, "", args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
