package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/statify/internal/server"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login signs the user in.
//
// Starts a local HTTP server, opens the browser for authorization, then hands the callback
// URL to the session, which has the backend exchange the code.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if token := cmd.String("token"); token != "" {
		if err := r.session.SetToken(token); err != nil {
			return err
		}
		return r.writePlain("✓ Token stored\n")
	}

	if r.session.Authenticated() {
		return r.writePlain("Already signed in. Run 'statify logout' first to switch accounts.\n")
	}

	if r.config.Credentials.Spotify.ClientID == "" {
		return fmt.Errorf("%w: Spotify client_id must be set in config.toml or %s", shared.ErrMissingCredentials, shared.EnvClientID)
	}

	callbackURL, err := r.doOAuth(ctx, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	clean, err := r.session.Bootstrap(ctx, callbackURL)
	r.logger.Debug("callback handled", "url", clean)
	if err != nil {
		var exErr *services.ExchangeError
		if errors.As(err, &exErr) {
			r.logger.Warn("backend rejected the exchange", "status", exErr.Status, "error", exErr.Response.Error)
		}
		return err
	}

	r.writePlainln("✓ Signed in")
	r.writePlain("You can now use: statify dashboard\n")
	return nil
}

// Logout forgets the stored token.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// Status reports whether a token is stored and whether it still works, plus backend health.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("statify status")

	if err := r.backend.Health(ctx); err != nil {
		r.logger.Debug("backend health check failed", "error", err)
		r.writePlain("Backend:  ✗ unreachable (%s)\n", r.config.Client.BackendURL)
	} else {
		r.writePlain("Backend:  ✓ healthy (%s)\n", r.config.Client.BackendURL)
	}

	if !r.session.Authenticated() {
		return r.writePlain("Session:  ✗ not signed in\n")
	}

	profile, err := r.stats.Profile(ctx)
	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		return r.writePlain("Session:  ✗ expired, signed out. Run 'statify login'\n")
	case err != nil:
		r.logger.Warn("profile unavailable", "error", err)
		return r.writePlain("Session:  ✓ signed in (profile unavailable)\n")
	}

	name := profile.DisplayName
	if name == "" {
		name = profile.ID
	}
	return r.writePlain("Session:  ✓ signed in as %s\n", name)
}

// doOAuth runs the authorization redirect through a local HTTP server and returns the
// callback URL the provider redirected to.
func (r *Runner) doOAuth(ctx context.Context, openBrowser bool) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	creds := r.config.Credentials.Spotify
	authURL := services.AuthCodeURL(r.config.Provider.AuthURL, creds.ClientID, creds.RedirectURI, creds.Scopes, state)

	handler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Client.CallbackHost, r.config.Client.CallbackPort)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	opened := false
	if openBrowser {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
		} else {
			opened = true
		}
	}
	if !opened {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if result.Error() != nil {
		return "", fmt.Errorf("authorization failed: %w", result.Error())
	}

	return result.URL, nil
}
