package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garrett-reinhard/ord-interface/internal/engine"
	"github.com/garrett-reinhard/ord-interface/internal/query"
	"github.com/garrett-reinhard/ord-interface/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	queryFlags
}

// CompiledStatement is the JSON form of a compiled query.
type CompiledStatement struct {
	Query map[string]any `json:"query"`
	SQL   string         `json:"sql"`
	Args  []any          `json:"args"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL a query compiles to",
		Long: `Compile a query to parameterized SQL without touching the database.

The output is the statement the query command would execute, with the
configured result ceiling applied, followed by its bound parameters.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	opts.queryFlags.register(cmd)

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, runOpts, err := opts.resolve(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(err)
	}

	limit, clamped := engine.New(nil, cfg.Query, zap.NewNop()).EffectiveLimit(runOpts.Limit)
	if clamped {
		formatter.VerboseLog("Limit %d reduced to %d", runOpts.Limit, limit)
	}

	stmt, err := querysql.Compile(q, querysql.Options{Limit: limit, IDsOnly: runOpts.IDsOnly})
	if err != nil {
		return formatter.Fail(err)
	}

	if formatter.Format == "json" {
		args := stmt.Args
		if args == nil {
			args = []any{}
		}
		return formatter.Success(CompiledStatement{
			Query: query.Describe(q),
			SQL:   stmt.SQL,
			Args:  args,
		})
	}

	fmt.Fprintln(formatter.Writer, stmt.SQL)
	for i, arg := range stmt.Args {
		fmt.Fprintf(formatter.Writer, "$%d = %#v\n", i+1, arg)
	}
	return nil
}
