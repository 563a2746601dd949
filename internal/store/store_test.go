package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/metasql/internal/builder"
)

func newMock(t *testing.T, dialect string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	s, err := New(db, dialect)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mk
}

func TestNew_UnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db, "oracle")
	assert.ErrorContains(t, err, `unknown dialect "oracle"`)
}

func TestStore_Exec(t *testing.T) {
	s, mk := newMock(t, "mysql")
	q := "INSERT INTO `users` (name) VALUES ('ann');"
	mk.ExpectExec(regexp.QuoteMeta(q)).WillReturnResult(sqlmock.NewResult(7, 1))

	res, err := s.Exec(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, builder.Result{RowsAffected: 1, LastInsertID: 7}, res)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestStore_ExecWithoutInsertID(t *testing.T) {
	s, mk := newMock(t, "postgres")
	q := `DELETE FROM "users";`
	mk.ExpectExec(regexp.QuoteMeta(q)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("LastInsertId is not supported")))

	res, err := s.Exec(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, builder.Result{}, res)
}

func TestStore_ExecError(t *testing.T) {
	s, mk := newMock(t, "mysql")
	mk.ExpectExec(".+").WillReturnError(errors.New("table missing"))

	_, err := s.Exec(context.Background(), "DROP TABLE `t`;")
	assert.EqualError(t, err, "table missing")
}

func TestStore_Query(t *testing.T) {
	s, mk := newMock(t, "mysql")
	q := "SELECT id, name FROM `users`;"
	rows := sqlmock.NewRowsWithColumnDefinition(
		mk.NewColumn("id").OfType("INT", int64(0)).Nullable(false),
		mk.NewColumn("name").OfType("VARCHAR", "").Nullable(true),
	).AddRow(int64(1), []byte("ann")).AddRow(int64(2), nil)
	mk.ExpectQuery(regexp.QuoteMeta(q)).WillReturnRows(rows)

	rs, err := s.Query(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, []builder.ColumnMeta{
		{Name: "id", Type: "INT", Nullable: false},
		{Name: "name", Type: "VARCHAR", Nullable: true},
	}, rs.Columns)
	assert.Equal(t, []builder.Row{{int64(1), "ann"}, {int64(2), nil}}, rs.Rows)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestStore_QueryEmpty(t *testing.T) {
	s, mk := newMock(t, "sqlite")
	mk.ExpectQuery(".+").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rs, err := s.Query(context.Background(), `SELECT id FROM "users";`)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, rs.ColumnNames())
	assert.Empty(t, rs.Rows)
}

func TestStore_QueryRowError(t *testing.T) {
	s, mk := newMock(t, "mysql")
	mk.ExpectQuery(".+").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(1).RowError(0, errors.New("connection reset")),
	)

	_, err := s.Query(context.Background(), "SELECT id FROM `users`;")
	assert.ErrorContains(t, err, "connection reset")
}

func TestStore_EscapeLiteral(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{"mysql", `it''s a \\ path`},
		{"postgres", `it''s a \ path`},
		{"sqlite", `it''s a \ path`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			s, _ := newMock(t, tt.dialect)
			assert.Equal(t, tt.want, s.EscapeLiteral(`it's a \ path`))
		})
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		dsn     string
		want    string
		wantErr string
	}{
		{
			name:    "mysql enables multi statements",
			dialect: "mysql",
			dsn:     "app:secret@tcp(db:3306)/shop?parseTime=false",
			want:    "app:secret@tcp(db:3306)/shop?",
		},
		{
			name:    "mysql invalid",
			dialect: "mysql",
			dsn:     "app:secret@tcp(db:3306)",
			wantErr: "invalid mysql DSN",
		},
		{
			name:    "postgres url",
			dialect: "postgres",
			dsn:     "postgres://app:secret@db:5432/shop?sslmode=disable",
			want:    "dbname=shop host=db password=secret port=5432 sslmode=disable user=app",
		},
		{
			name:    "postgres key value",
			dialect: "postgres",
			dsn:     "host=db dbname=shop",
			want:    "host=db dbname=shop",
		},
		{
			name:    "sqlite path",
			dialect: "sqlite",
			dsn:     "file:shop.db?cache=shared",
			want:    "file:shop.db?cache=shared",
		},
		{
			name:    "empty",
			dialect: "sqlite",
			dsn:     "  ",
			wantErr: "empty sqlite DSN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDSN(tt.dialect, tt.dsn)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.dialect == "mysql" {
				assert.True(t, strings.HasPrefix(got, tt.want), got)
				assert.Contains(t, got, "multiStatements=true")
				assert.Contains(t, got, "parseTime=true")
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
