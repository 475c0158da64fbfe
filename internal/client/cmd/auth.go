package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

func newAuthCmd(a *cliApp) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}

	var regEmail, regName string
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a new user and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			p := newPrompter(cmd)
			email, err := p.valueOr(regEmail, "Email: ")
			if err != nil {
				return err
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			reg := models.Registration{DisplayName: regName, Email: email, Password: password}
			if err := a.store.Register(cmd.Context(), reg); err != nil {
				return a.fail(err, "Registration failed")
			}
			printUser(cmd, "Registered and logged in as", a.store.State().Auth.User)
			return nil
		},
	}
	register.Flags().StringVar(&regEmail, "email", "", "account email")
	register.Flags().StringVar(&regName, "name", "", "display name (defaults to the email local part)")

	var loginEmail string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			p := newPrompter(cmd)
			email, err := p.valueOr(loginEmail, "Email: ")
			if err != nil {
				return err
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			if err := a.store.Login(cmd.Context(), models.Credentials{Email: email, Password: password}); err != nil {
				return a.fail(err, "Login failed")
			}
			printUser(cmd, "Logged in as", a.store.State().Auth.User)
			return nil
		},
	}
	login.Flags().StringVar(&loginEmail, "email", "", "account email")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if err := a.store.Logout(cmd.Context()); err != nil {
				// The local session is gone either way.
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", a.fail(err, "Server logout failed"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			st := a.store.State().Auth
			switch {
			case st.Authenticated:
				printUser(cmd, "Logged in as", st.User)
			case a.session.RefreshToken() != "":
				fmt.Fprintln(cmd.OutOrStdout(), "Access token expired; it will be refreshed on the next request")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			}
			return nil
		},
	}

	cmd.AddCommand(register, login, logout, status)
	return cmd
}

func printUser(cmd *cobra.Command, prefix string, u *models.User) {
	if u == nil {
		fmt.Fprintln(cmd.OutOrStdout(), prefix, "unknown user")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s <%s>\n", prefix, u.DisplayName, u.Email)
}
