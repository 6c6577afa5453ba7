package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/jrsteele09/drivesim-admin/navigation"
	"github.com/spf13/cobra"
)

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"overview"},
		Args:    cobra.NoArgs,
		Short:   "Show the dashboard overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(navigation.RouteDashboard); err != nil {
				return err
			}
			o, err := c.app.Admin.Overview(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer(cmd.OutOrStdout()).print(overviewTable(o))
		},
	}
}

func overviewTable(o admin.Overview) table {
	rows := [][]string{
		{"Users", strconv.Itoa(o.TotalUsers)},
		{"Sessions", strconv.Itoa(o.TotalSessions)},
		{"Registrations", strconv.Itoa(o.TotalRegistrations)},
		{"Completed", strconv.Itoa(o.CompletedRegistrations)},
		{"Paid", strconv.Itoa(o.PaidRegistrations)},
		{"Completion rate", fmt.Sprintf("%.0f%%", o.CompletionRate*100)},
		{"Average score", fmt.Sprintf("%.1f", o.AverageScore)},
	}

	difficulties := make([]string, 0, len(o.SessionsByDifficulty))
	for d := range o.SessionsByDifficulty {
		difficulties = append(difficulties, string(d))
	}
	sort.Strings(difficulties)
	for _, d := range difficulties {
		rows = append(rows, []string{"Sessions " + d, strconv.Itoa(o.SessionsByDifficulty[admin.Difficulty(d)])})
	}
	return table{header: []string{"METRIC", "VALUE"}, rows: rows, value: o}
}
