package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metasql/internal/builder"
)

func TestFakeConn_RecordsAndAnswers(t *testing.T) {
	ctx := context.Background()
	conn := NewFakeConn().OnQuery("SELECT 1;", ResultSet([]string{"one"}, builder.Row{int64(1)}))

	rs, err := conn.Query(ctx, "SELECT 1;")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, rs.ColumnNames())

	rs, err = conn.Query(ctx, "SELECT 2;")
	require.NoError(t, err)
	assert.Empty(t, rs.Rows)

	res, err := conn.Exec(ctx, "DELETE FROM t;")
	require.NoError(t, err)
	assert.Equal(t, builder.Result{RowsAffected: 1, LastInsertID: 1}, res)

	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;"}, conn.Queries())
	assert.Equal(t, []string{"DELETE FROM t;"}, conn.Execs())
}

func TestFakeConn_FailWith(t *testing.T) {
	boom := errors.New("boom")
	conn := NewFakeConn().FailWith(boom)

	_, err := conn.Query(context.Background(), "SELECT 1;")
	assert.ErrorIs(t, err, boom)
	_, err = conn.Exec(context.Background(), "SELECT 1;")
	assert.ErrorIs(t, err, boom)
}

func TestFakeConn_EscapeLiteral(t *testing.T) {
	assert.Equal(t, "it''s", NewFakeConn().EscapeLiteral("it's"))
}
