package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aviralrabbit1/nextNotes/internal/client/session"
	"github.com/aviralrabbit1/nextNotes/internal/client/vault"
)

func newVaultCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage the local key that seals the stored session",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Generate the vault key and seal the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.ConfigDir
			if vault.Exists(dir) {
				return vault.ErrExists
			}
			path := filepath.Join(dir, session.FileName)
			snap, err := session.NewFileBackend(path, nil).Load()
			if err != nil {
				a.log.Info("existing session unreadable, it will be dropped", "error", err.Error())
				snap = session.Snapshot{}
			}
			key, err := vault.Generate(dir)
			if err != nil {
				return err
			}
			sealed := session.NewFileBackend(path, key)
			if err := sealed.Save(snap); err != nil {
				return fmt.Errorf("seal session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Vault key generated at", vault.Path(dir))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show vault status",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if vault.Exists(a.cfg.ConfigDir) {
				fmt.Fprintln(cmd.OutOrStdout(), "Vault: ready")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Vault: not initialized")
			}
		},
	})
	return cmd
}
