package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metasql/internal/builder"
	"github.com/roach88/metasql/internal/queryir"
	"github.com/roach88/metasql/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	DSN string
}

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	SQL          string           `json:"sql"`
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	RowsAffected int64            `json:"rows_affected"`
	LastInsertID int64            `json:"last_insert_id,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Run a query document against a database",
		Long: `Render a query document for the configured dialect and run it.

Selects and table checks print their rows; every other statement prints
the number of affected rows. The DSN comes from --dsn, METASQL_DSN, the
config file or DATABASE_URL.

Examples:
  metasql exec report.yaml --dialect sqlite --dsn ./shop.db
  metasql exec archive.yaml --dialect postgres --dsn postgres://app@db/shop
  metasql exec report.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name (overrides config)")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	d, err := opts.dialect()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	dsn := opts.DSN
	if dsn == "" {
		dsn = opts.RootOptions.DSN
	}
	if dsn == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "no DSN: set --dsn, METASQL_DSN or DATABASE_URL", nil)
	}

	formatter.VerboseLog("Opening %s database", d.Name())
	st, err := store.Open(ctx, d.Name(), dsn)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	defer st.Close()

	logger := opts.logger(cmd)
	stmt, loadErr := LoadDocument(opts.fs(), path, st, d, logger)
	if loadErr != nil {
		return formatter.Fail(loadExitCode(loadErr), loadErr.Code, loadErr.Message, loadDetails(loadErr))
	}

	b := builder.New(st, d, builder.WithLogger(logger), builder.WithStrictMacros(opts.StrictMacros)).Statement(stmt)
	sql, err := b.SQL(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, MapErrorCode(err), err.Error(), map[string]string{"dialect": d.Name()})
	}
	formatter.VerboseLog("Executing: %s", sql)

	result := ExecResult{SQL: sql}
	switch b.Operation() {
	case queryir.OpSelect, queryir.OpCheckTable:
		rs, err := b.Result(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeExecFailed, err.Error(), nil)
		}
		result.Columns = rs.ColumnNames()
		result.Rows = rs.Maps()
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		rows := make([][]any, len(rs.Rows))
		for i, row := range rs.Rows {
			rows[i] = row
		}
		if err := formatter.Table(result.Columns, rows); err != nil {
			return WrapExitError(ExitCommandError, "failed to write rows", err)
		}
		fmt.Fprintf(formatter.Writer, "(%d row(s))\n", len(rs.Rows))
		return nil
	default:
		res, err := b.Execute(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeExecFailed, err.Error(), nil)
		}
		result.RowsAffected = res.RowsAffected
		result.LastInsertID = res.LastInsertID
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "%s %d row(s) affected\n", okMark(), res.RowsAffected)
		return nil
	}
}
