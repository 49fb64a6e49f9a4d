// Spotify Web API implementation of [StatsSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

type followers struct {
	Total int `json:"total"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
}

type spotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Popularity int            `json:"popularity"`
	Followers  followers      `json:"followers"`
	Images     []spotifyImage `json:"images"`
}

type spotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       owner  `json:"owner"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// page is the paging object wrapping list responses.
type page[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

type playHistory struct {
	Track    spotifyTrack `json:"track"`
	PlayedAt time.Time    `json:"played_at"`
}

type searchResponse struct {
	Tracks page[spotifyTrack] `json:"tracks"`
}

// apiError is the Web API error object: {"error": {"status": 401, "message": "..."}}
type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService is the resource fetcher: authorized GETs against the Web API using the
// token held by [Credentials].
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

var (
	_ StatsSource      = (*SpotifyService)(nil)
	_ IdentityResolver = (*SpotifyService)(nil)
)

// NewSpotifyService creates a Web API client. Empty baseURL uses the public API, nil client
// uses [http.DefaultClient]. creds may be nil for services only used through Identify.
func NewSpotifyService(baseURL string, client *http.Client, creds Credentials) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		creds:      creds,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Get performs an authorized GET of endpoint (path relative to the API base, with query)
// and decodes the JSON body into result.
//
// Without a stored token no request is made and [shared.ErrNotAuthenticated] is returned.
// A 401 expires the session and returns [shared.ErrTokenExpired].
func (s *SpotifyService) Get(ctx context.Context, endpoint string, result any) error {
	if s.creds == nil {
		return fmt.Errorf("%w: no credentials configured", shared.ErrNotAuthenticated)
	}
	token, ok := s.creds.Token()
	if !ok {
		return shared.ErrNotAuthenticated
	}

	status, err := s.get(ctx, token, endpoint, result)
	if status == http.StatusUnauthorized {
		s.creds.Expire()
	}
	return err
}

// Identify resolves token to its owner's profile without touching any session.
func (s *SpotifyService) Identify(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	var user spotifyUser
	if _, err := s.get(ctx, token, "/me", &user); err != nil {
		return nil, err
	}
	return user.model(), nil
}

// get returns the response status alongside any error so callers can react to 401.
func (s *SpotifyService) get(ctx context.Context, token, endpoint string, result any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, fmt.Errorf("%w: %s", shared.ErrTokenExpired, errorMessage(resp.Body))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%w: %s status %d: %s", shared.ErrAPIRequest, endpointPath(endpoint), resp.StatusCode, errorMessage(resp.Body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return resp.StatusCode, nil
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*models.Profile, error) {
	var user spotifyUser
	if err := s.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return user.model(), nil
}

// TopArtists retrieves the user's most-played artists over timeRange.
func (s *SpotifyService) TopArtists(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Artist, error) {
	var response page[spotifyArtist]
	if err := s.Get(ctx, topEndpoint("artists", timeRange, limit), &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Items))
	for _, a := range response.Items {
		artists = append(artists, a.model())
	}
	return artists, nil
}

// TopTracks retrieves the user's most-played tracks over timeRange.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Track, error) {
	var response page[spotifyTrack]
	if err := s.Get(ctx, topEndpoint("tracks", timeRange, limit), &response); err != nil {
		return nil, err
	}
	return trackModels(response.Items), nil
}

// Track retrieves a single catalog track by ID.
func (s *SpotifyService) Track(ctx context.Context, id string) (*models.Track, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}

	var track spotifyTrack
	if err := s.Get(ctx, "/tracks/"+url.PathEscape(id), &track); err != nil {
		return nil, err
	}
	model := track.model()
	return &model, nil
}

// RecentlyPlayed retrieves the most recent plays, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Play, error) {
	endpoint := "/me/player/recently-played?limit=" + strconv.Itoa(ClampLimit(limit))

	var response page[playHistory]
	if err := s.Get(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	plays := make([]models.Play, 0, len(response.Items))
	for _, item := range response.Items {
		plays = append(plays, models.Play{Track: item.Track.model(), PlayedAt: item.PlayedAt})
	}
	return plays, nil
}

// Playlists retrieves a single page of the current user's playlists.
func (s *SpotifyService) Playlists(ctx context.Context, limit int) ([]models.Playlist, error) {
	endpoint := "/me/playlists?limit=" + strconv.Itoa(ClampLimit(limit))

	var response page[spotifySimplePlaylist]
	if err := s.Get(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(response.Items))
	for _, p := range response.Items {
		name := p.Owner.DisplayName
		if name == "" {
			name = p.Owner.ID
		}
		playlists = append(playlists, models.Playlist{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Owner:       name,
			Public:      p.Public,
			TrackCount:  p.Tracks.Total,
		})
	}
	return playlists, nil
}

// SearchTracks runs a track search. A blank query returns no results without a request.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Track{}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(ClampLimit(limit)))

	var response searchResponse
	if err := s.Get(ctx, "/search?"+params.Encode(), &response); err != nil {
		return nil, err
	}
	return trackModels(response.Tracks.Items), nil
}

func topEndpoint(kind string, timeRange models.TimeRange, limit int) string {
	if timeRange == "" {
		timeRange = models.MediumTerm
	}
	return fmt.Sprintf("/me/top/%s?time_range=%s&limit=%d", kind, timeRange, ClampLimit(limit))
}

func endpointPath(endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	return path
}

// errorMessage extracts the Web API error message, if the body carries one.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no details"
	}
	var e apiError
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return "no details"
}

func (u spotifyUser) model() *models.Profile {
	return &models.Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
		Followers:   u.Followers.Total,
	}
}

func (a spotifyArtist) model() models.Artist {
	artist := models.Artist{
		ID:         a.ID,
		Name:       a.Name,
		Genres:     a.Genres,
		Popularity: a.Popularity,
		Followers:  a.Followers.Total,
	}
	if len(a.Images) > 0 {
		artist.ImageURL = a.Images[0].URL
	}
	return artist
}

func (t spotifyTrack) model() models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		Popularity: t.Popularity,
		URI:        t.URI,
	}
}

func trackModels(items []spotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, t := range items {
		tracks = append(tracks, t.model())
	}
	return tracks
}
