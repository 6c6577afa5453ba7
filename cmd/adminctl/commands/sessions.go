package commands

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/internal/utils"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/spf13/cobra"
)

func newSessionsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"s"},
		Args:    cobra.NoArgs,
		Short:   "Manage scheduled training sessions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return c.enter(navigation.RouteSessions)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Args:    cobra.NoArgs,
			Short:   "List sessions",
			RunE: func(cmd *cobra.Command, args []string) error {
				sessions, err := c.app.Admin.Sessions.List(cmd.Context())
				if err != nil {
					return err
				}
				return c.printer(cmd.OutOrStdout()).print(sessionsTable(sessions))
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Args:  cobra.ExactArgs(1),
			Short: "Show one session",
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				s, err := c.app.Admin.Sessions.Get(cmd.Context(), id)
				if err != nil {
					return notFound("session", id, err)
				}
				return c.printer(cmd.OutOrStdout()).print(sessionsTable([]admin.TrainingSession{*s}).single())
			},
		},
		newSessionsUpdateCommand(c),
		newDeleteCommand(c, "session", func(cmd *cobra.Command, id int64) error {
			return c.app.Admin.Sessions.Delete(cmd.Context(), id)
		}),
	)
	return cmd
}

func newSessionsUpdateCommand(c *cli) *cobra.Command {
	var location, date, scenarioID, scenarioName, environment, difficulty string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Update selected fields of a session",
		Long:  "Update a session. Any scenario flag replaces the whole scenario, starting from its current value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update admin.SessionUpdate
			flags := cmd.Flags()
			if flags.Changed("location") {
				update.Location = utils.Ptr(location)
			}
			if flags.Changed("date") {
				var d admin.Date
				if err := d.UnmarshalText([]byte(date)); err != nil {
					return err
				}
				update.Date = &d
			}
			if flags.Changed("scenario-id") || flags.Changed("scenario-name") || flags.Changed("environment") || flags.Changed("difficulty") {
				current, err := c.app.Admin.Sessions.Get(cmd.Context(), id)
				if err != nil {
					return notFound("session", id, err)
				}
				scenario := current.Scenario
				if flags.Changed("scenario-id") {
					scenario.ScenarioID = scenarioID
				}
				if flags.Changed("scenario-name") {
					scenario.Name = scenarioName
				}
				if flags.Changed("environment") {
					scenario.EnvironmentType = environment
				}
				if flags.Changed("difficulty") {
					d, err := admin.ParseDifficulty(difficulty)
					if err != nil {
						return err
					}
					scenario.Difficulty = d
				}
				update.Scenario = &scenario
			}
			if update == (admin.SessionUpdate{}) {
				return fmt.Errorf("nothing to update")
			}

			s, err := c.app.Admin.Sessions.Update(cmd.Context(), id, update)
			if err != nil {
				return notFound("session", id, err)
			}
			return c.printer(cmd.OutOrStdout()).print(sessionsTable([]admin.TrainingSession{*s}).single())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&location, "location", "", "venue or bay")
	flags.StringVar(&date, "date", "", "date as YYYY-MM-DD or RFC 3339")
	flags.StringVar(&scenarioID, "scenario-id", "", "scenario identifier")
	flags.StringVar(&scenarioName, "scenario-name", "", "scenario name")
	flags.StringVar(&environment, "environment", "", "scenario environment type")
	flags.StringVar(&difficulty, "difficulty", "", "EASY, MEDIUM or HARD")
	return cmd
}

func sessionsTable(sessions []admin.TrainingSession) table {
	t := table{
		header: []string{"ID", "DATE", "LOCATION", "SCENARIO", "ENVIRONMENT", "DIFFICULTY"},
		value:  sessions,
	}
	for _, s := range sessions {
		t.rows = append(t.rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.Date.String(),
			s.Location,
			s.Scenario.Name,
			s.Scenario.EnvironmentType,
			string(s.Scenario.Difficulty),
		})
	}
	return t
}

// single prints a one element list as the element itself in json and yaml.
func (t table) single() table {
	if items, ok := t.value.([]admin.TrainingSession); ok && len(items) == 1 {
		t.value = items[0]
	}
	if items, ok := t.value.([]admin.Registration); ok && len(items) == 1 {
		t.value = items[0]
	}
	return t
}
