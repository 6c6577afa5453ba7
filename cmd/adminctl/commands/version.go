package commands

import (
	"fmt"
	"runtime"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/drivesim-admin/internal/config"
	"github.com/spf13/cobra"
)

func newVersionCommand(c *cli) *cobra.Command {
	var banner bool

	cmd := &cobra.Command{
		Use:         "version",
		Args:        cobra.NoArgs,
		Short:       "Print the version",
		Annotations: map[string]string{noApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if banner {
				appName := config.NewFromViper(c.v).GetAppName()
				fmt.Fprintln(w, figure.NewFigure(appName, "cybermedium", true).String())
			}
			fmt.Fprintf(w, "adminctl %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().BoolVar(&banner, "banner", false, "print the application banner")
	return cmd
}
