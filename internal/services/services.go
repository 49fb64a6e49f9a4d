package services

import (
	"context"

	"github.com/desertthunder/statify/internal/models"
)

// Credentials supplies the bearer token for authorized requests and receives the
// authorization-expired signal. [session.Session] implements it.
type Credentials interface {
	// Token returns the stored access token and whether one exists.
	Token() (string, bool)

	// Expire terminates the session after the provider rejected the token.
	// Returns true only for the call that performed the transition.
	Expire() bool
}

// StatsSource is the read-only view of the Web API the stats engine and UI consume.
type StatsSource interface {
	Profile(ctx context.Context) (*models.Profile, error)
	TopArtists(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Artist, error)
	TopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Track, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]models.Play, error)
	Playlists(ctx context.Context, limit int) ([]models.Playlist, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// IdentityResolver maps a raw bearer token to the profile it belongs to.
type IdentityResolver interface {
	Identify(ctx context.Context, token string) (*models.Profile, error)
}

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// ClampLimit bounds a requested page size to 1..[MaxLimit], using [DefaultLimit] for <= 0.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
