package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/allergozyme/internal/client/facade"
	"github.com/dmitrijs2005/allergozyme/internal/client/services"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/cryptox"
	"github.com/dmitrijs2005/allergozyme/internal/filex"
	"github.com/spf13/cobra"
)

func (a *App) newGeocodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <address...>",
		Short: "Resolve an address to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.Join(args, " ")
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				c, err := f.Geocoder().Geocode(ctx, address)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(c)
				}
				a.printf("%v %v\n", c.Lat, c.Lng)
				return nil
			})
		},
	}
}

func (a *App) newExportCommand() *cobra.Command {
	var (
		out        string
		seal       bool
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every user and review as one document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seal {
				p, err := a.readSecret(passphrase, "Passphrase")
				if err != nil {
					return err
				}
				passphrase = p
			}
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				var data []byte
				if seal {
					blob, err := f.Transfer().SealExport(ctx, passphrase)
					if err != nil {
						return err
					}
					data = blob
				} else {
					text, err := f.Transfer().ExportDocument(ctx)
					if err != nil {
						return err
					}
					data = []byte(text + "\n")
				}

				if out == "" || out == "-" {
					_, err := a.deps.Out.Write(data)
					return err
				}
				if err := filex.WriteFileAtomic(out, data, 0o600); err != nil {
					return err
				}
				fmt.Fprintf(a.deps.Err, "exported to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")
	cmd.Flags().BoolVar(&seal, "seal", false, "Encrypt the document with a passphrase")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase for --seal (prompted when empty)")
	return cmd
}

func (a *App) printCounts(c services.ImportCounts) error {
	if a.asJSON {
		return a.printJSON(c)
	}
	a.printf("imported %d user(s), %d review(s)\n", c.Users, c.Reviews)
	return nil
}

func (a *App) newImportCommand() *cobra.Command {
	var (
		passphrase string
		forceSeal  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: `Replace local data with an export document ("-" reads stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(a.reader)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			sealed := forceSeal || cryptox.IsSealed(data)
			if sealed {
				if passphrase, err = a.readSecret(passphrase, "Passphrase"); err != nil {
					return err
				}
			}
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				var counts services.ImportCounts
				if sealed {
					counts, err = f.Transfer().OpenSealed(ctx, data, passphrase)
				} else {
					counts, err = f.Transfer().ImportDocument(ctx, string(data))
				}
				if err != nil {
					return err
				}
				return a.printCounts(counts)
			})
		},
	}
	cmd.Flags().BoolVar(&forceSeal, "sealed", false, "Treat the file as a sealed export (detected by default)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase of a sealed export (prompted when empty)")
	return cmd
}

func backupService(f *facade.Facade) (*services.BackupService, error) {
	b := f.Backup()
	if b == nil {
		return nil, common.Validation("backup storage not configured")
	}
	return b, nil
}

func (a *App) newBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export documents in object storage",
	}

	upload := &cobra.Command{
		Use:   "upload",
		Short: "Upload the current export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				b, err := backupService(f)
				if err != nil {
					return err
				}
				key, err := b.Upload(ctx)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(map[string]string{"key": key})
				}
				a.printf("%s\n", key)
				return nil
			})
		},
	}

	restore := &cobra.Command{
		Use:   "restore <key>",
		Short: "Import a previously uploaded export document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				b, err := backupService(f)
				if err != nil {
					return err
				}
				counts, err := b.Restore(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printCounts(counts)
			})
		},
	}

	cmd.AddCommand(upload, restore)
	return cmd
}
