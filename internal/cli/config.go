package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metasql/internal/config"
)

// ConfigView is the resolved configuration shown by config show.
type ConfigView struct {
	Dialect      string `json:"dialect"`
	DSN          string `json:"dsn,omitempty"`
	StrictMacros bool   `json:"strict_macros"`
	Format       string `json:"format"`
	File         string `json:"file,omitempty"`
}

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write metasql configuration",
	}

	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigInitCommand(rootOpts))

	return cmd
}

func newConfigShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after applying, highest first: flags,
METASQL_* environment variables, .env.local, .env, .metasql.yaml and
defaults.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)

			cfg, err := config.Load(opts.fs())
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
			}
			view := ConfigView{
				Dialect:      opts.Dialect,
				DSN:          opts.DSN,
				StrictMacros: opts.StrictMacros,
				Format:       opts.Format,
				File:         cfg.File,
			}

			if opts.Format == "json" {
				return formatter.Success(view)
			}
			w := formatter.Writer
			fmt.Fprintf(w, "dialect:       %s\n", view.Dialect)
			fmt.Fprintf(w, "dsn:           %s\n", view.DSN)
			fmt.Fprintf(w, "strict_macros: %t\n", view.StrictMacros)
			fmt.Fprintf(w, "format:        %s\n", view.Format)
			if view.File != "" {
				fmt.Fprintf(w, "file:          %s\n", view.File)
			}
			return nil
		},
	}
}

func newConfigInitCommand(opts *RootOptions) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the user config file",
		Long: `Write dialect, DSN, strictness and format to
$HOME/.config/metasql/.metasql.yaml.

Example:
  metasql config init --dialect postgres --dsn postgres://app@db/shop`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)

			cfg := &config.Config{
				Dialect:      opts.Dialect,
				DSN:          opts.DSN,
				StrictMacros: opts.StrictMacros,
				Format:       opts.Format,
			}
			if dsn != "" {
				cfg.DSN = dsn
			}
			path, err := config.Save(opts.fs(), cfg)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
			}

			if opts.Format == "json" {
				return formatter.Success(map[string]string{"file": path})
			}
			fmt.Fprintf(formatter.Writer, "%s Wrote %s\n", okMark(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "data source name to store")

	return cmd
}
