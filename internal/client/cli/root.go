package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the allergozyme command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	a := newApp(deps)

	cmd := &cobra.Command{
		Use:           "allergozyme",
		Short:         "AllergoZyme data layer command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(logging.ContextWith(cmd.Context(), "command", cmd.CommandPath()))
		},
	}
	cmd.SetIn(a.deps.In)
	cmd.SetOut(a.deps.Out)
	cmd.SetErr(a.deps.Err)

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "JSON configuration file")
	cmd.PersistentFlags().StringVar(&a.overrides.DatabasePath, "db", "", "Local database file")
	cmd.PersistentFlags().StringVar(&a.overrides.Backend, "backend", "", "local or remote")
	cmd.PersistentFlags().StringVar(&a.overrides.LogLevel, "log-level", "", "debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	cmd.AddCommand(
		a.newUserCommand(),
		a.newReviewCommand(),
		a.newGeocodeCommand(),
		a.newExportCommand(),
		a.newImportCommand(),
		a.newBackupCommand(),
		a.newSyncCommand(),
		a.newMigrateCommand(),
		a.newVersionCommand(),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, deps Deps, args []string) int {
	cmd := NewRootCommand(deps)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err)
	}
	return ExitCode(err)
}
