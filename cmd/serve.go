package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/statify/internal/repositories"
	"github.com/desertthunder/statify/internal/server"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if addr := cmd.String("addr"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("%w: --addr %q: %v", shared.ErrInvalidArgument, addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: --addr port %q", shared.ErrInvalidArgument, port)
		}
		config.Server.Host, config.Server.Port = host, p
	}

	if err := config.Validate(); err != nil {
		return err
	}
	if config.Admin.Email == "" {
		r.logger.Warn("no admin email configured, signup administration is disabled")
	}

	db, err := shared.OpenMigrated(config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	srv := server.New(server.Options{
		Config:    &config,
		Exchanger: services.NewTokenExchanger(config.ClientCredentials(), nil),
		Signups:   repositories.NewPendingSignupRepository(db),
		Identity:  services.NewSpotifyService(config.Provider.APIURL, r.httpClient, nil),
		Logger:    r.logger,
	})

	return srv.ListenAndServe(ctx)
}
