package commands

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func notFound(kind string, id int64, err error) error {
	if admin.IsNotFound(err) {
		return fmt.Errorf("%s %d not found", kind, id)
	}
	return err
}

// newDeleteCommand builds "delete <id>". Deletion needs --yes.
func newDeleteCommand(c *cli, kind string, del func(cmd *cobra.Command, id int64) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		Short:   "Delete a " + kind,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s %d without --yes", kind, id)
			}
			if err := del(cmd, id); err != nil {
				return notFound(kind, id, err)
			}
			okColour.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", kind, id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
