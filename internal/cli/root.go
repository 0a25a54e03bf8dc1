package cli

import (
	"context"

	"github.com/dmitrijs2005/exeraser/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the exeraser command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "exeraser",
		Short:         "Find, vault and erase media of a past relationship",
		Long:          "exeraser scans a photo library and calendar for a person, lets you review every match and keeps what you remove in an encrypted vault for a cooling-off period before it is gone for good.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newInitCmd(),
		newScanCmd(),
		newVaultCmd(),
		newSweepCmd(),
		newDaemonCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line with args from os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
