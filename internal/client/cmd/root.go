package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aviralrabbit1/nextNotes/internal/client/config"
)

func NewRootCmd(version, buildDate string) *cobra.Command {
	a := newCLIApp()
	root := &cobra.Command{
		Use:          "notekeeper",
		Short:        "notekeeper CLI",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	// Flags are registered just above, so binding cannot miss one.
	_ = config.BindFlags(a.v, root.PersistentFlags())

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newAuthCmd(a))
	root.AddCommand(newNotesCmd(a))
	root.AddCommand(newVaultCmd(a))
	return root
}
