package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metasql/internal/builder"
	"github.com/roach88/metasql/internal/querysql"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	All bool // render every dialect
}

// Rendered is one dialect's render of a query document.
type Rendered struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a query document as SQL",
		Long: `Render a YAML or CUE query document as resolved SQL for one dialect,
or for every dialect with --all.

Rendering never connects to a database. An insert from a select must list
its columns to be rendered offline.

Examples:
  metasql render report.yaml
  metasql render report.cue --dialect postgres
  metasql render report.yaml --all --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "render every dialect")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var dialects []querysql.Dialect
	if opts.All {
		for _, name := range querysql.Names() {
			d, _ := querysql.New(name)
			dialects = append(dialects, d)
		}
	} else {
		d, err := opts.dialect()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		dialects = append(dialects, d)
	}

	renders := make([]Rendered, 0, len(dialects))
	failed := 0
	for _, d := range dialects {
		formatter.VerboseLog("Rendering %s for %s", path, d.Name())
		r, loadErr := renderDocument(opts, path, d, cmd)
		if loadErr != nil {
			return formatter.Fail(loadExitCode(loadErr), loadErr.Code, loadErr.Message, loadDetails(loadErr))
		}
		if r.Error != "" {
			failed++
		}
		renders = append(renders, r)
	}

	if !opts.All {
		r := renders[0]
		if r.Error != "" {
			return formatter.Fail(ExitFailure, r.Code, r.Error, map[string]string{"dialect": r.Dialect})
		}
		if opts.Format == "json" {
			return formatter.Success(r)
		}
		fmt.Fprintln(formatter.Writer, r.SQL)
		return nil
	}

	if opts.Format == "json" {
		if failed > 0 {
			_ = formatter.encode(CLIResponse{
				Status: "error",
				Data:   renders,
				Error:  &CLIError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("%d dialect(s) failed to render", failed)},
			})
			return NewExitError(ExitFailure, fmt.Sprintf("%d dialect(s) failed to render", failed))
		}
		return formatter.Success(renders)
	}

	w := formatter.Writer
	for _, r := range renders {
		fmt.Fprintf(w, "-- %s\n", r.Dialect)
		if r.Error != "" {
			fmt.Fprintf(w, "%s [%s] %s\n", failMark(), r.Code, r.Error)
			continue
		}
		fmt.Fprintln(w, r.SQL)
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d dialect(s) failed to render", failed))
	}
	return nil
}

// renderDocument compiles path for d and renders it offline. Render
// failures are reported in the result; the LoadError is reserved for
// documents that cannot be compiled at all.
func renderDocument(opts *RenderOptions, path string, d querysql.Dialect, cmd *cobra.Command) (Rendered, *LoadError) {
	logger := opts.logger(cmd)
	stmt, loadErr := LoadDocument(opts.fs(), path, nil, d, logger)
	if loadErr != nil {
		return Rendered{}, loadErr
	}

	r := Rendered{Dialect: d.Name()}
	b := builder.New(nil, d, builder.WithLogger(logger), builder.WithStrictMacros(opts.StrictMacros)).Statement(stmt)
	sql, err := b.SQL(cmd.Context())
	if err != nil {
		r.Code = MapErrorCode(err)
		r.Error = err.Error()
		return r, nil
	}
	r.SQL = sql
	return r, nil
}

func loadExitCode(err *LoadError) int {
	if err.Code == ErrCodeNotFound {
		return ExitCommandError
	}
	return ExitFailure
}

func loadDetails(err *LoadError) any {
	if line := err.Line(); line > 0 {
		return map[string]any{"file": err.Pos.Filename(), "line": line}
	}
	return nil
}

