package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/atlekbai/expansion_explorer/internal/filter"
	"github.com/atlekbai/expansion_explorer/internal/query"
	"github.com/atlekbai/expansion_explorer/internal/session"
)

var compileFlags struct {
	user      string
	dataType  string
	selection map[filter.Category]*[]string
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Print the SQL for a filter selection without running it",
	Long: `Compile logs in with --user (or EXPLORER_USER) and EXPLORER_PASSWORD, loads
the aggregate catalog and prints the statement and its parameters.

Examples:
  explorer compile --data-type field --aggregate Spratt --binder PC \
    --element "Blocks (A and B)" --boosting Boosted --lithium "No lithium"
`,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	f := compileCmd.Flags()
	f.StringVar(&compileFlags.user, "user", os.Getenv("EXPLORER_USER"), "database user")
	f.StringVar(&compileFlags.dataType, "data-type", string(filter.Field), "field or lab")

	compileFlags.selection = make(map[filter.Category]*[]string)
	for _, c := range filter.Categories {
		compileFlags.selection[c] = f.StringArray(flagName(c), nil, "selected "+c.String()+" label (repeatable)")
	}
}

// flagName is the command-line flag for c.
func flagName(c filter.Category) string {
	if c == filter.ElementOrTest {
		return "element"
	}
	return c.String()
}

func runCompile(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	dt, err := filter.ParseDataType(compileFlags.dataType)
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(session.NewPgProvider(cfg.Database), session.MinCapacity, cfg.Session.TTL)
	if err != nil {
		return err
	}
	defer sessions.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.StatementTimeout)
	defer cancel()
	sess, err := sessions.Login(ctx, session.Credentials{
		User:     compileFlags.user,
		Password: os.Getenv("EXPLORER_PASSWORD"),
	}, "")
	if err != nil {
		return err
	}

	compiled, err := sess.Compiler.Compile(dt, selectionFromFlags())
	if err != nil {
		return err
	}
	printCompiled(cmd.OutOrStdout(), compiled)
	return nil
}

func selectionFromFlags() filter.Selection {
	sel := make(filter.Selection)
	for c, labels := range compileFlags.selection {
		if labels != nil && len(*labels) > 0 {
			sel[c] = append([]string(nil), *labels...)
		}
	}
	return sel
}

func printCompiled(w io.Writer, c *query.Compiled) {
	fmt.Fprintln(w, c.SQL)
	for i, arg := range c.Args {
		fmt.Fprintf(w, "$%d = %v\n", i+1, arg)
	}
}
