package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/metasql/internal/macro"
)

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Dialect    string   `json:"dialect"`
	SQL        string   `json:"sql"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [text]",
		Short: "Translate &macros in raw SQL",
		Long: `Resolve every &Macro(...) call in raw SQL text for one dialect.

The text is read from the argument, or from stdin when no argument is given.
A doubled marker (&&) is an escaped literal marker. With --strict (the
default) a call that the dialect does not know fails the command.

Examples:
  metasql resolve "SELECT &Year(&CurrentDate)"
  echo "SELECT &Random" | metasql resolve --dialect sqlite
  metasql resolve --strict=false "SELECT &Custom(x)"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runResolve(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	d, err := opts.dialect()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	unresolved := macro.Remaining(text, d)
	if opts.StrictMacros && len(unresolved) > 0 {
		return formatter.Fail(ExitFailure, ErrCodeUnresolved,
			"unresolved macros: "+strings.Join(unresolved, ", "),
			map[string]any{"dialect": d.Name(), "unresolved": unresolved})
	}
	for _, name := range unresolved {
		formatter.VerboseLog("Unknown macro left in place: %s", name)
	}

	result := ResolveResult{
		Dialect:    d.Name(),
		SQL:        macro.Resolve(text, d),
		Unresolved: unresolved,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.SQL)
	return nil
}
