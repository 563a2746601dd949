package builder_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metasql/internal/builder"
	"github.com/roach88/metasql/internal/ir"
	"github.com/roach88/metasql/internal/macro"
	"github.com/roach88/metasql/internal/queryir"
	"github.com/roach88/metasql/internal/querysql"
	"github.com/roach88/metasql/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBuilder(conn builder.Connection) *builder.Builder {
	return builder.New(conn, querysql.MySQL(), builder.WithLogger(quietLogger()))
}

func usersSelect() queryir.Select {
	return queryir.Select{
		Columns: []queryir.ColumnSpec{queryir.Column("id"), queryir.Column("name")},
		Tables:  []queryir.TableRef{queryir.Table("users")},
		Where:   []queryir.Condition{queryir.Eq("active", ir.Bool(true))},
	}
}

func TestBuilder_SQL(t *testing.T) {
	ctx := context.Background()
	b := newBuilder(nil).Select(usersSelect())

	sql, err := b.SQL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM `users` WHERE active = 1;", sql)

	again, err := b.SQL(ctx)
	require.NoError(t, err)
	assert.Equal(t, sql, again)
	assert.Equal(t, sql, macro.Resolve(sql, querysql.MySQL()))
}

func TestBuilder_ResolvesOnEveryCall(t *testing.T) {
	ctx := context.Background()
	b := newBuilder(nil).Select(queryir.Select{
		Columns: []queryir.ColumnSpec{queryir.Column(macro.Call("Max", macro.Call("Sum", "amount"))).As("top")},
		Tables:  []queryir.TableRef{queryir.Table("orders")},
		Where:   []queryir.Condition{queryir.Eq("note", ir.String("&&Literal"))},
	})

	for i := 0; i < 2; i++ {
		sql, err := b.SQL(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SELECT MAX(SUM(amount)) AS `top` FROM `orders` WHERE note = '&&Literal';", sql)
	}
}

func TestBuilder_DoubleConfiguration(t *testing.T) {
	var logs bytes.Buffer
	b := builder.New(nil, querysql.MySQL(), builder.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	b.Select(usersSelect())
	same := b.Insert(queryir.Insert{
		Table: queryir.Table("users"),
		Rows:  []queryir.Row{{queryir.Set("id", ir.Int(1))}},
	})

	assert.Same(t, b, same)
	assert.True(t, b.IsSelect())
	assert.Equal(t, queryir.OpSelect, b.Operation())
	assert.ErrorIs(t, b.Err(), builder.ErrAlreadyConfigured)
	assert.Contains(t, logs.String(), "builder already configured")

	sql, err := b.SQL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM `users` WHERE active = 1;", sql)
}

func TestBuilder_NotConfigured(t *testing.T) {
	b := newBuilder(nil)

	assert.Equal(t, queryir.OpNone, b.Operation())
	assert.False(t, b.IsSelect())
	assert.NoError(t, b.Err())

	_, err := b.SQL(context.Background())
	assert.ErrorIs(t, err, builder.ErrNotConfigured)
}

func TestBuilder_Malformed(t *testing.T) {
	b := newBuilder(nil).CreateView(queryir.CreateView{View: "v"})

	_, err := b.SQL(context.Background())
	require.Error(t, err)
	assert.True(t, queryir.IsMalformed(err))
}

func TestBuilder_SubqueryEmbedding(t *testing.T) {
	ctx := context.Background()
	child := newBuilder(nil).Select(queryir.Select{
		Columns: []queryir.ColumnSpec{queryir.Column(macro.Call("Max", "id"))},
		Tables:  []queryir.TableRef{queryir.Table("admins")},
		Where:   []queryir.Condition{queryir.Eq("tag", ir.String("R&D"))},
	})

	standalone, err := child.SQL(ctx)
	require.NoError(t, err)
	body := standalone[:len(standalone)-1]
	assert.Equal(t, "SELECT MAX(id) FROM `admins` WHERE tag = 'R&D'", body)

	tests := []struct {
		name string
		q    queryir.Select
		want string
	}{
		{
			name: "table source",
			q:    queryir.Select{Tables: []queryir.TableRef{queryir.SubTable(child, "a")}},
			want: "SELECT * FROM (" + body + ") AS `a`;",
		},
		{
			name: "column",
			q: queryir.Select{
				Columns: []queryir.ColumnSpec{{Expr: queryir.SubOf(child), Alias: "m"}},
				Tables:  []queryir.TableRef{queryir.Table("t")},
			},
			want: "SELECT (" + body + ") AS `m` FROM `t`;",
		},
		{
			name: "condition",
			q: queryir.Select{
				Tables: []queryir.TableRef{queryir.Table("t")},
				Where:  []queryir.Condition{queryir.Where(queryir.Col("id"), "=", queryir.SubOf(child))},
			},
			want: "SELECT * FROM `t` WHERE id = (" + body + ");",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, err := newBuilder(nil).Select(tc.q).SQL(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, sql)
		})
	}
}

func TestBuilder_FragmentRequiresSelect(t *testing.T) {
	b := newBuilder(nil).Delete(queryir.Delete{Table: queryir.Table("t")})

	_, err := b.Fragment()
	assert.ErrorIs(t, err, builder.ErrNotSelect)

	parent := newBuilder(nil).Select(queryir.Select{Tables: []queryir.TableRef{queryir.SubTable(b, "x")}})
	_, err = parent.SQL(context.Background())
	assert.True(t, queryir.IsMalformed(err))
}

func TestBuilder_InsertFromSelect(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewFakeConn()

	source := newBuilder(conn).Select(queryir.Select{
		Columns: []queryir.ColumnSpec{queryir.Column("*")},
		Tables:  []queryir.TableRef{queryir.Table("staging")},
	})
	conn.OnQuery("SELECT * FROM `staging`;", testutil.ResultSet([]string{"email", "name", "age"}))

	ins := newBuilder(conn).Insert(queryir.Insert{Table: queryir.Table("users"), Source: source})
	res, err := ins.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	assert.Equal(t, []string{"SELECT * FROM `staging`;"}, conn.Queries())
	assert.Equal(t, []string{"INSERT INTO `users` (`email`, `name`, `age`) SELECT * FROM `staging`;"}, conn.Execs())
}

func TestBuilder_InsertFromDetachedSelect(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewFakeConn()
	conn.OnQuery("SELECT email, UPPER(name) AS `name` FROM `staging`;", testutil.ResultSet([]string{"email", "name"}))

	source := newBuilder(nil).Select(queryir.Select{
		Columns: []queryir.ColumnSpec{queryir.Column("email"), queryir.Column("&Upper(name)").As("name")},
		Tables:  []queryir.TableRef{queryir.Table("staging")},
	})
	ins := newBuilder(conn).Insert(queryir.Insert{Table: queryir.Table("users"), Source: source})

	sql, err := ins.SQL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`email`, `name`) SELECT email, UPPER(name) AS `name` FROM `staging`;", sql)
	assert.Equal(t, []string{"SELECT email, UPPER(name) AS `name` FROM `staging`;"}, conn.Queries())
}

func TestBuilder_InsertFromDetachedSelectWithoutConnection(t *testing.T) {
	source := newBuilder(nil).Select(usersSelect())

	_, err := newBuilder(nil).Insert(queryir.Insert{Table: queryir.Table("archive"), Source: source}).SQL(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, builder.ErrNoConnection)
}

func TestBuilder_InsertFromSelectWithoutColumns(t *testing.T) {
	conn := testutil.NewFakeConn()
	source := newBuilder(conn).Select(queryir.Select{Tables: []queryir.TableRef{queryir.Table("empty")}})

	_, err := newBuilder(conn).Insert(queryir.Insert{Table: queryir.Table("users"), Source: source}).SQL(context.Background())
	require.Error(t, err)
	assert.True(t, queryir.IsMalformed(err))
}

func TestBuilder_Fetch(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewFakeConn().OnAnyQuery(testutil.ResultSet(
		[]string{"id", "name"},
		builder.Row{int64(1), "ada"},
		builder.Row{int64(2), "bob"},
	))
	b := newBuilder(conn).Select(usersSelect())

	rows, err := b.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": int64(1), "name": "ada"},
		{"id": int64(2), "name": "bob"},
	}, rows)

	row, err := b.Row(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "ada"}, row)

	col, err := b.Column(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, col)

	scalar, err := b.Scalar(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scalar)

	names, err := b.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, names)

	assert.Len(t, conn.Queries(), 5)
}

func TestBuilder_FetchEmpty(t *testing.T) {
	ctx := context.Background()
	b := newBuilder(testutil.NewFakeConn()).Select(usersSelect())

	rows, err := b.Rows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = b.Row(ctx)
	assert.ErrorIs(t, err, builder.ErrNoRows)
	_, err = b.Scalar(ctx)
	assert.ErrorIs(t, err, builder.ErrNoRows)

	col, err := b.Column(ctx)
	require.NoError(t, err)
	assert.Empty(t, col)
}

func TestBuilder_ExecutionFailure(t *testing.T) {
	boom := errors.New("connection reset")
	conn := testutil.NewFakeConn().FailWith(boom)
	b := newBuilder(conn).Update(queryir.Update{
		Table: queryir.Table("users"),
		Set:   queryir.Row{queryir.Set("name", ir.String("x"))},
	})

	_, err := b.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "execute ")
}

func TestBuilder_NoConnection(t *testing.T) {
	b := newBuilder(nil).Select(usersSelect())

	_, err := b.Rows(context.Background())
	assert.ErrorIs(t, err, builder.ErrNoConnection)
	_, err = b.Execute(context.Background())
	assert.ErrorIs(t, err, builder.ErrNoConnection)
}

func TestBuilder_StrictMacros(t *testing.T) {
	ctx := context.Background()
	q := queryir.Select{
		Columns: []queryir.ColumnSpec{queryir.Column("&Median(x)")},
		Tables:  []queryir.TableRef{queryir.Table("t")},
	}

	lenient, err := newBuilder(nil).Select(q).SQL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SELECT &Median(x) FROM `t`;", lenient)

	strict := builder.New(nil, querysql.MySQL(), builder.WithLogger(quietLogger()), builder.WithStrictMacros(true))
	_, err = strict.Select(q).SQL(ctx)
	require.Error(t, err)
	assert.True(t, builder.IsUnresolvedMacro(err))
	assert.Equal(t, "unresolved macros: Median", err.Error())
}

func TestBuilder_UsesConnectionEscaping(t *testing.T) {
	conn := testutil.NewFakeConn()
	b := builder.New(conn, querysql.MySQL(), builder.WithLogger(quietLogger())).Delete(queryir.Delete{
		Table: queryir.Table("t"),
		Where: []queryir.Condition{queryir.Eq("path", ir.String(`C:\tmp`))},
	})

	// FakeConn only doubles quotes, unlike the MySQL default escaper.
	sql, err := b.SQL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `t` WHERE path = 'C:\\tmp';", sql)
}

func TestBuilder_OtherOperations(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		b    *builder.Builder
		want string
	}{
		{"truncate", newBuilder(nil).TruncateTable("logs"), "TRUNCATE TABLE `logs`;"},
		{"drop", newBuilder(nil).DropTable(queryir.DropTable{Tables: []string{"a"}, IfExists: true}), "DROP TABLE IF EXISTS `a`;"},
		{"drop view", newBuilder(nil).DropView(queryir.DropView{Views: []string{"v"}}), "DROP VIEW `v`;"},
		{"check", newBuilder(nil).CheckTable(queryir.CheckTable{Tables: []string{"a"}}), "CHECK TABLE `a`;"},
		{"custom", newBuilder(nil).Custom("SELECT &CurrentDate"), "SELECT CURDATE();"},
		{"statement", newBuilder(nil).Statement(&queryir.Delete{Table: queryir.Table("x")}), "DELETE FROM `x`;"},
		{"alter", newBuilder(nil).AlterTable(queryir.AlterTable{Table: "a", RenameTo: "b"}), "ALTER TABLE `a` RENAME TO `b`;"},
		{"create", newBuilder(nil).CreateTable(queryir.CreateTable{
			Table:   "k",
			Columns: []queryir.ColumnDefinition{{Name: "id", Type: "INT", IsPrimary: true}},
		}), "CREATE TABLE `k` (\n  `id` INT NOT NULL PRIMARY KEY\n);"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, err := tc.b.SQL(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, sql)
		})
	}
}
