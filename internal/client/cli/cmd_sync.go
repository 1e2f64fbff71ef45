package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/allergozyme/internal/buildinfo"
	"github.com/dmitrijs2005/allergozyme/internal/client/adapter"
	"github.com/dmitrijs2005/allergozyme/internal/client/facade"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/spf13/cobra"
)

func outboxOf(f *facade.Facade) (*adapter.Outbox, error) {
	ob := f.Outbox()
	if ob == nil {
		return nil, common.Validation("sync needs the remote backend")
	}
	return ob, nil
}

func (a *App) newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay local edits against the hosted service",
	}

	now := &cobra.Command{
		Use:   "now",
		Short: "Drain the pending edits once and drop the replayed ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				ob, err := outboxOf(f)
				if err != nil {
					return err
				}
				res, err := ob.Drain(ctx)
				if err != nil {
					return err
				}
				pruned, err := ob.Prune(ctx)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(struct {
						adapter.DrainResult
						Pruned int64
					}{res, pruned})
				}
				a.printf("completed %d, failed %d, pruned %d\n", res.Completed, res.Failed, pruned)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Count edits by state and list the failed ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				ob, err := outboxOf(f)
				if err != nil {
					return err
				}
				stats, err := ob.Stats(ctx)
				if err != nil {
					return err
				}
				failed, err := ob.Failed(ctx)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(struct {
						Stats  map[models.OpState]int `json:"stats"`
						Failed []models.PendingOp     `json:"failed"`
					}{stats, failed})
				}

				a.printf("pending %d, completed %d, failed %d\n",
					stats[models.OpPending], stats[models.OpCompleted], stats[models.OpFailed])
				if len(failed) == 0 {
					return nil
				}
				tw := tabwriter.NewWriter(a.deps.Out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "OP\tKIND\tREVIEW\tATTEMPTS\tERROR")
				for _, op := range failed {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", op.ID, op.Kind, op.ReviewID, op.Attempts, op.LastError)
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(now, status)
	return cmd
}

func (a *App) newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "remote",
		Short: "Apply the hosted database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.deps.MigrateRemote == nil {
				return common.Validation("remote backend not available in this build")
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.RemoteDSN == "" {
				return common.Validation("remote_dsn is not set")
			}
			logger, closer, err := a.newLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := a.deps.MigrateRemote(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			a.printf("migrations applied\n")
			return nil
		},
	})
	return cmd
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.asJSON {
				return a.printJSON(map[string]string{
					"version": buildinfo.Version,
					"date":    buildinfo.BuildDate,
					"commit":  buildinfo.BuildCommit,
				})
			}
			buildinfo.PrintBuildData(a.deps.Out)
			return nil
		},
	}
}
