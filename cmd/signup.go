package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/statify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SignupSubmit asks the backend for access on behalf of an email address.
func (r *Runner) SignupSubmit(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.StringArg("email"))
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	signup, err := r.backend.SubmitSignup(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to submit signup: %w", err)
	}
	r.logger.Debug("signup submitted", "id", signup.ID)
	return r.writePlain("✓ Access requested for %s. You will be notified once approved.\n", signup.Email)
}

// SignupList prints pending signups. The stored token must belong to the administrator.
func (r *Runner) SignupList(ctx context.Context, cmd *cli.Command) error {
	token, err := r.adminToken()
	if err != nil {
		return err
	}

	signups, err := r.backend.ListSignups(ctx, token)
	if err != nil {
		return r.adminError(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(signups, cmd.Bool("pretty"))
	}

	if len(signups) == 0 {
		return r.writePlain("No pending signups\n")
	}
	r.writePlain("%d pending signups:\n\n", len(signups))
	for _, s := range signups {
		r.writePlain("%s  %s  %s\n", s.ID, s.Timestamp.Local().Format("2006-01-02 15:04"), s.Email)
	}
	return nil
}

// SignupDelete removes a pending signup by ID.
func (r *Runner) SignupDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: signup ID", shared.ErrMissingArgument)
	}
	token, err := r.adminToken()
	if err != nil {
		return err
	}

	if err := r.backend.DeleteSignup(ctx, token, id); err != nil {
		return r.adminError(err)
	}
	return r.writePlain("✓ Deleted signup %s\n", id)
}

func (r *Runner) adminToken() (string, error) {
	token, ok := r.session.Token()
	if !ok {
		return "", fmt.Errorf("%w: sign in as the administrator with `statify login`", shared.ErrNotAuthenticated)
	}
	return token, nil
}

func (r *Runner) adminError(err error) error {
	switch {
	case errors.Is(err, shared.ErrForbidden):
		return fmt.Errorf("%w: the signed-in account is not the administrator", shared.ErrForbidden)
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return fmt.Errorf("%w: the backend rejected the stored token", err)
	}
	return err
}
