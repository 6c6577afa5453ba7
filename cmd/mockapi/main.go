package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/drivesim-admin/internal/config"
	"github.com/jrsteele09/drivesim-admin/internal/tracing"
	"github.com/jrsteele09/drivesim-admin/mockapi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running mock API")
	}
	log.Info().Msg("Mock API stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	log.Logger = config.NewLogger(c, os.Stderr)
	displayAppname(c.GetAppName() + " Mock")

	traceShutdown, err := tracing.Init(context.Background(), c, "drivesim-mockapi", "dev")
	if err != nil {
		return err
	}
	defer func() {
		if err := traceShutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	api := mockapi.New(
		mockapi.WithEnv(c.GetEnv()),
		mockapi.WithSecret(c.GetMockSecret()),
		mockapi.WithTokenTTL(c.GetMockTokenTTL()),
		mockapi.WithLoginRateLimit(c.GetMockLoginRate(), c.GetMockLoginBurst()),
		mockapi.WithLogger(log.Logger),
	)
	password, err := api.Bootstrap(c.GetMockAdminEmail(), c.GetMockAdminPassword())
	if err != nil {
		return err
	}
	if c.GetMockAdminPassword() == "" {
		log.Info().Str("email", c.GetMockAdminEmail()).Str("password", password).Msg("generated admin credentials")
	}

	server := &http.Server{Addr: c.GetMockAddr(), Handler: api, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server, log.Logger)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Mock API listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
