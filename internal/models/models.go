// package models defines the data model for the statistics client and its backend
package models

import (
	"encoding/json"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations for append-and-delete collections.
//
// There is intentionally no Update: records are created and later removed.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// TimeRange is the window Spotify ranks top resources over.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // ~4 weeks
	MediumTerm TimeRange = "medium_term" // ~6 months
	LongTerm   TimeRange = "long_term"   // ~1 year
)

// ParseTimeRange accepts the API names plus short aliases; empty yields [MediumTerm].
func ParseTimeRange(s string) (TimeRange, bool) {
	switch s {
	case "", "medium", string(MediumTerm):
		return MediumTerm, true
	case "short", string(ShortTerm):
		return ShortTerm, true
	case "long", string(LongTerm):
		return LongTerm, true
	}
	return "", false
}

// Profile is the current user's public profile.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	Followers   int    `json:"followers"`
}

// Artist is a ranked or referenced artist.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// Track is a song with enough metadata to render and curate it.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity"`
	URI        string   `json:"uri,omitempty"`
}

// PrimaryArtist returns the first credited artist or "".
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Play is a single entry of the recently-played history.
type Play struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}

// Playlist represents a user playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner"`
	Public      bool   `json:"public"`
	TrackCount  int    `json:"track_count"`
}

// GenreCount is a genre and how many top artists carry it.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// TokenResponse is the token endpoint payload relayed to clients.
//
// Raw is the provider's body exactly as received, when there was one; it is what the
// backend relays, so provider fields beyond the ones decoded here reach the client.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	Scope        string          `json:"scope"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// ErrorResponse is the OAuth2 error object.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
