package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/drivesim-admin/dashboard"
	"github.com/jrsteele09/drivesim-admin/guard"
	"github.com/jrsteele09/drivesim-admin/internal/config"
	"github.com/jrsteele09/drivesim-admin/internal/tracing"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Commands annotated with noApp run without building the dashboard App.
const noApp = "noApp"

// Version is set at build time with -ldflags "-X .../commands.Version=...".
var Version = "dev"

// cli carries what the subcommands share. The App is built once per invocation by the
// root PersistentPreRunE.
type cli struct {
	v       *viper.Viper
	cfgFile string
	appOpts []dashboard.Option
	app     *dashboard.App

	span          trace.Span
	traceShutdown tracing.Shutdown
}

// NewRootCmd creates the adminctl root command. appOpts are passed to dashboard.New.
func NewRootCmd(appOpts ...dashboard.Option) *cobra.Command {
	return newRootCmd(&cli{v: config.NewViper(), appOpts: appOpts})
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "Administer the DriveSim training platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[noApp] != "" {
				return nil
			}
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.String("base-url", "", "DriveSim API root")
	flags.String("store", "", "session store backend: memory, file or redis")
	flags.String("store-file", "", "session file for the file store")
	flags.String("redis-addr", "", "redis address for the redis store")
	flags.StringP("output", "o", outputTable, "output format: table, json or yaml")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	bindFlags(c.v, rootCmd, map[string]string{
		"base_url":   "base-url",
		"store":      "store",
		"store_file": "store-file",
		"redis_addr": "redis-addr",
		"output":     "output",
		"log_level":  "log-level",
	})

	rootCmd.AddCommand(
		newLoginCommand(c),
		newLogoutCommand(c),
		newWhoAmICommand(c),
		newStatusCommand(c),
		newUsersCommand(c),
		newSessionsCommand(c),
		newRegistrationsCommand(c),
		newVersionCommand(c),
	)
	closeOnError(rootCmd, c)

	return rootCmd
}

// closeOnError wraps every RunE in the tree so a failing command still releases the
// App and ends the invocation span. cobra skips PersistentPostRunE after a RunE error.
func closeOnError(cmd *cobra.Command, c *cli) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				if c.span != nil {
					c.span.RecordError(err)
					c.span.SetStatus(codes.Error, "command failed")
				}
				_ = c.close(cmd.Context())
			}
			return err
		}
	}
	for _, sub := range cmd.Commands() {
		closeOnError(sub, c)
	}
}

// bindFlags binds each viper key to its persistent flag. A flag only overrides the
// config file and environment when it is set explicitly.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}

func (c *cli) open(cmd *cobra.Command) error {
	if err := config.LoadFile(c.v, c.cfgFile); err != nil {
		return err
	}
	cfg := config.NewFromViper(c.v)
	logger := config.NewLogger(cfg, cmd.ErrOrStderr())

	shutdown, err := tracing.Init(cmd.Context(), cfg, "adminctl", Version)
	if err != nil {
		return err
	}
	c.traceShutdown = shutdown
	ctx, span := otel.Tracer("adminctl").Start(cmd.Context(), cmd.CommandPath())
	c.span = span
	cmd.SetContext(ctx)

	opts := append([]dashboard.Option{dashboard.WithLogger(logger)}, c.appOpts...)
	app, err := dashboard.New(cfg, opts...)
	if err != nil {
		_ = c.close(ctx)
		return err
	}
	c.app = app
	if _, err := app.Start(ctx); err != nil {
		_ = c.close(ctx)
		return err
	}
	return nil
}

// close releases what open acquired. Safe to call more than once.
func (c *cli) close(ctx context.Context) error {
	var err error
	if c.app != nil {
		err = c.app.Close()
		c.app = nil
	}
	if c.span != nil {
		c.span.End()
		c.span = nil
	}
	if c.traceShutdown != nil {
		if shutdownErr := c.traceShutdown(context.WithoutCancel(ctx)); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
		c.traceShutdown = nil
	}
	return err
}

// enter runs the route guard for view before a protected command does any work.
// cobra skips PersistentPostRunE on error, so a refusal releases the App here.
func (c *cli) enter(view string) error {
	if err := c.app.Guard.Enter(view); err != nil {
		_ = c.close(context.Background())
		if errors.Is(err, guard.ErrLoginRequired) {
			return fmt.Errorf("%w: run 'adminctl login' first", err)
		}
		return err
	}
	return nil
}

func (c *cli) printer(w io.Writer) *printer {
	return &printer{w: w, format: c.v.GetString("output")}
}
