package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/metasql/internal/config"
	"github.com/roach88/metasql/internal/querysql"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Dialect string

	// StrictMacros fails renders that leave a macro call unresolved.
	StrictMacros bool

	// DSN is the configured data source, overridden by exec --dsn.
	DSN string

	// Fs is where query documents and config files are read. Nil means the
	// OS filesystem.
	Fs afero.Fs
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the metasql CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithFs(afero.NewOsFs())
}

// NewRootCommandWithFs creates the root command reading files through fs.
func NewRootCommandWithFs(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{Fs: fs}

	cmd := &cobra.Command{
		Use:   "metasql",
		Short: "metasql - dialect-agnostic SQL with &macros",
		Long: `Render, resolve and run dialect-agnostic SQL.

Query documents (YAML or CUE) describe one statement. metasql renders them
for MySQL, PostgreSQL or SQLite and translates &Macro(...) calls into the
dialect's native SQL.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.applyConfig(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "mysql", "SQL dialect (mysql|postgres|sqlite)")
	cmd.PersistentFlags().BoolVar(&opts.StrictMacros, "strict", true, "fail when a macro call survives resolution")

	// Add subcommands
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewConformCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// applyConfig fills every option whose flag was not set from the loaded
// configuration, then validates the result.
func (o *RootOptions) applyConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(o.fs())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		o.Format = cfg.Format
	}
	if !flags.Changed("dialect") {
		o.Dialect = cfg.Dialect
	}
	if !flags.Changed("strict") {
		o.StrictMacros = cfg.StrictMacros
	}
	o.DSN = cfg.DSN

	// Validate format flag
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if _, err := querysql.New(o.Dialect); err != nil {
		return WrapExitError(ExitCommandError, "invalid dialect", err)
	}
	return nil
}

func (o *RootOptions) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

func (o *RootOptions) dialect() (querysql.Dialect, error) {
	name := o.Dialect
	if name == "" {
		name = "mysql"
	}
	return querysql.New(name)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger returns a debug logger on stderr in verbose mode and a discarding
// logger otherwise.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
