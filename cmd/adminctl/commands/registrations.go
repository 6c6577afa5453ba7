package commands

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/internal/utils"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/spf13/cobra"
)

func newRegistrationsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registrations",
		Aliases: []string{"r", "regs"},
		Args:    cobra.NoArgs,
		Short:   "Manage session registrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return c.enter(navigation.RouteRegistrations)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Args:    cobra.NoArgs,
			Short:   "List registrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				regs, err := c.app.Admin.Registrations.List(cmd.Context())
				if err != nil {
					return err
				}
				return c.printer(cmd.OutOrStdout()).print(registrationsTable(regs))
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Args:  cobra.ExactArgs(1),
			Short: "Show one registration",
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				r, err := c.app.Admin.Registrations.Get(cmd.Context(), id)
				if err != nil {
					return notFound("registration", id, err)
				}
				return c.printer(cmd.OutOrStdout()).print(registrationsTable([]admin.Registration{*r}).single())
			},
		},
		newRegistrationsUpdateCommand(c),
		newDeleteCommand(c, "registration", func(cmd *cobra.Command, id int64) error {
			return c.app.Admin.Registrations.Delete(cmd.Context(), id)
		}),
	)
	return cmd
}

func newRegistrationsUpdateCommand(c *cli) *cobra.Command {
	var (
		feedback, transmission string
		completed, paid        bool
		score                  float64
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Update selected fields of a registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update admin.RegistrationUpdate
			flags := cmd.Flags()
			if flags.Changed("feedback") {
				update.Feedback = utils.Ptr(feedback)
			}
			if flags.Changed("completed") {
				update.Completed = utils.Ptr(completed)
			}
			if flags.Changed("paid") {
				update.Paid = utils.Ptr(paid)
			}
			if flags.Changed("score") {
				if score < 0 || score > 100 {
					return fmt.Errorf("score must be between 0 and 100")
				}
				update.Score = utils.Ptr(score)
			}
			if flags.Changed("transmission") {
				t, err := admin.ParseTransmission(transmission)
				if err != nil {
					return err
				}
				update.TransmissionType = &t
			}
			if update == (admin.RegistrationUpdate{}) {
				return fmt.Errorf("nothing to update")
			}

			r, err := c.app.Admin.Registrations.Update(cmd.Context(), id, update)
			if err != nil {
				return notFound("registration", id, err)
			}
			return c.printer(cmd.OutOrStdout()).print(registrationsTable([]admin.Registration{*r}).single())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&feedback, "feedback", "", "instructor feedback")
	flags.BoolVar(&completed, "completed", false, "mark the session as completed")
	flags.BoolVar(&paid, "paid", false, "mark the registration as paid")
	flags.Float64Var(&score, "score", 0, "score from 0 to 100")
	flags.StringVar(&transmission, "transmission", "", "MANUAL or AUTOMATIC")
	return cmd
}

func registrationsTable(regs []admin.Registration) table {
	t := table{
		header: []string{"ID", "USER", "SESSION", "DATE", "COMPLETED", "PAID", "SCORE"},
		value:  regs,
	}
	for _, r := range regs {
		user := utils.Value(r.User)
		ts := utils.Value(r.Session)
		t.rows = append(t.rows, []string{
			strconv.FormatInt(r.ID, 10),
			user.Email,
			ts.Scenario.Name,
			ts.Date.String(),
			formatBool(r.Completed),
			formatBool(r.Paid),
			strconv.FormatFloat(r.Score, 'f', -1, 64),
		})
	}
	return t
}
