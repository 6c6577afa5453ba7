package commands

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jrsteele09/drivesim-admin/guard"
	"github.com/jrsteele09/drivesim-admin/session"
	"github.com/spf13/cobra"
)

var (
	okColour   = color.New(color.FgGreen, color.Bold)
	warnColour = color.New(color.FgYellow)
)

func newLoginCommand(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in and store the session",
		Long:  "Sign in with an administrator account. The password is read from stdin when --password is not given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			sess, err := c.app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				if session.IsKind(err, session.InvalidCredentials) {
					return fmt.Errorf("invalid email or password")
				}
				return err
			}

			name := email
			if sess.Profile != nil {
				name = sess.Profile.DisplayName()
			}
			okColour.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			okColour.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoAmICommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the signed-in administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.app.Session.Session(cmd.Context())
			if err != nil {
				return err
			}
			if !sess.Authenticated() {
				warnColour.Fprintln(cmd.ErrOrStderr(), "Not logged in")
				return fmt.Errorf("whoami: %w", guard.ErrLoginRequired)
			}
			return c.printer(cmd.OutOrStdout()).print(sessionTable(sess))
		},
	}
}

type whoAmI struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

func sessionTable(sess session.Session) table {
	w := whoAmI{State: sess.State.String()}
	if sess.Profile != nil {
		w.ID = sess.Profile.ID
		w.Email = sess.Profile.Email
		w.Name = sess.Profile.DisplayName()
	}
	expires := "unknown"
	if sess.Token != nil && !sess.Token.Expiry.IsZero() {
		w.ExpiresAt = sess.Token.Expiry
		expires = sess.Token.Expiry.Local().Format(time.RFC1123)
	}
	return table{
		header: []string{"EMAIL", "NAME", "STATE", "EXPIRES"},
		rows:   [][]string{{w.Email, w.Name, w.State, expires}},
		value:  w,
	}
}
