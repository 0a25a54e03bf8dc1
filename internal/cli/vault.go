package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/spf13/cobra"
)

func newVaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Inspect and manage vaulted items",
	}
	cmd.AddCommand(
		newVaultListCmd(),
		newVaultRestoreCmd(),
		newVaultDeleteCmd(),
		newVaultCancelCmd(),
		newVaultThumbnailCmd(),
	)
	return cmd
}

func newVaultListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vault items and their scheduled deletions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, runVaultList)
		},
	}
}

func runVaultList(ctx context.Context, a *App) error {
	items, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	pending, err := a.vault.PendingDeletions(ctx)
	if err != nil {
		return err
	}
	deleteAfter := make(map[string]time.Time, len(pending))
	for _, co := range pending {
		deleteAfter[co.VaultItemID] = co.DeleteAfter
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "The vault is empty.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSOURCE\tORIGINAL\tADDED\tDELETES")
	for _, it := range items {
		deletes := "-"
		if t, ok := deleteAfter[it.ID]; ok {
			deletes = t.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Kind, it.Source, it.OriginalID, it.CreatedAt.Local().Format(time.DateOnly), deletes)
	}
	return w.Flush()
}

func newVaultRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Decrypt an item and return it to the library or calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *App) error {
				if err := a.unlock(ctx); err != nil {
					return err
				}
				newID, err := a.vault.RestoreFromVault(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Restored as %s\n", newID)
				return nil
			})
		},
	}
}

func newVaultDeleteCmd() *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Schedule an item for deletion after the cooling-off period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *App) error {
				if now {
					if err := a.vault.PermanentlyDelete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "Deleted.")
					return nil
				}
				co, err := a.vault.MarkForDeletion(ctx, args[0])
				if err != nil {
					return err
				}
				printScheduled(a, co)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "skip the cooling-off period and delete immediately")
	return cmd
}

func printScheduled(a *App, co *models.CoolingOffItem) {
	fmt.Fprintf(a.out, "Deletes after %s\n", co.DeleteAfter.Local().Format(time.DateTime))
}

func newVaultCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Withdraw a scheduled deletion and keep the item in the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, true, func(ctx context.Context, a *App) error {
				if err := a.vault.CancelDeletion(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Deletion cancelled.")
				return nil
			})
		},
	}
}

func newVaultThumbnailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail <id> <file>",
		Short: "Write an item's decrypted JPEG thumbnail to file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *App) error {
				if err := a.unlock(ctx); err != nil {
					return err
				}
				data, err := a.vault.Thumbnail(ctx, args[0])
				if err != nil {
					return err
				}
				return os.WriteFile(args[1], data, 0o600)
			})
		},
	}
}
