package commands

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/internal/utils"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/spf13/cobra"
)

func newUsersCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"u"},
		Args:    cobra.NoArgs,
		Short:   "Manage learner and staff accounts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return c.enter(navigation.RouteUsers)
		},
	}

	cmd.AddCommand(
		newUsersListCommand(c),
		newUsersGetCommand(c),
		newUsersCreateCommand(c),
		newUsersUpdateCommand(c),
		newDeleteCommand(c, "user", func(cmd *cobra.Command, id int64) error {
			return c.app.Admin.Users.Delete(cmd.Context(), id)
		}),
	)
	return cmd
}

func newUsersListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Short:   "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := c.app.Admin.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer(cmd.OutOrStdout()).print(usersTable(users))
		},
	}
}

func newUsersGetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			user, err := c.app.Admin.Users.Get(cmd.Context(), id)
			if err != nil {
				return notFound("user", id, err)
			}
			return c.printer(cmd.OutOrStdout()).print(userTable(*user))
		},
	}
}

func newUsersCreateCommand(c *cli) *cobra.Command {
	var user admin.User
	var transmission string

	cmd := &cobra.Command{
		Use:   "create",
		Args:  cobra.NoArgs,
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if transmission != "" {
				t, err := admin.ParseTransmission(transmission)
				if err != nil {
					return err
				}
				user.Transmission = t
			}
			created, err := c.app.Admin.Users.Create(cmd.Context(), user)
			if err != nil {
				return err
			}
			return c.printer(cmd.OutOrStdout()).print(userTable(*created))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&user.Email, "email", "", "email address")
	flags.StringVar(&user.Password, "password", "", "initial password")
	flags.StringVar(&user.FirstName, "first-name", "", "first name")
	flags.StringVar(&user.LastName, "last-name", "", "last name")
	flags.StringVar(&transmission, "transmission", "", "MANUAL or AUTOMATIC")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersUpdateCommand(c *cli) *cobra.Command {
	var email, password, firstName, lastName, transmission string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Update selected fields of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update admin.UserUpdate
			flags := cmd.Flags()
			if flags.Changed("email") {
				update.Email = utils.Ptr(email)
			}
			if flags.Changed("password") {
				update.Password = utils.Ptr(password)
			}
			if flags.Changed("first-name") {
				update.FirstName = utils.Ptr(firstName)
			}
			if flags.Changed("last-name") {
				update.LastName = utils.Ptr(lastName)
			}
			if flags.Changed("transmission") {
				t, err := admin.ParseTransmission(transmission)
				if err != nil {
					return err
				}
				update.Transmission = &t
			}
			if update == (admin.UserUpdate{}) {
				return fmt.Errorf("nothing to update")
			}

			user, err := c.app.Admin.Users.Update(cmd.Context(), id, update)
			if err != nil {
				return notFound("user", id, err)
			}
			return c.printer(cmd.OutOrStdout()).print(userTable(*user))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&email, "email", "", "email address")
	flags.StringVar(&password, "password", "", "new password")
	flags.StringVar(&firstName, "first-name", "", "first name")
	flags.StringVar(&lastName, "last-name", "", "last name")
	flags.StringVar(&transmission, "transmission", "", "MANUAL or AUTOMATIC")
	return cmd
}

var userHeader = []string{"ID", "EMAIL", "FIRST NAME", "LAST NAME", "TRANSMISSION"}

func userRow(u admin.User) []string {
	return []string{strconv.FormatInt(u.ID, 10), u.Email, u.FirstName, u.LastName, string(u.Transmission)}
}

func usersTable(users []admin.User) table {
	t := table{header: userHeader, value: users}
	for _, u := range users {
		t.rows = append(t.rows, userRow(u))
	}
	return t
}

func userTable(u admin.User) table {
	return table{header: userHeader, rows: [][]string{userRow(u)}, value: u}
}
