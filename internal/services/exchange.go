// Server-side OAuth2 authorization-code exchange against the Spotify accounts service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// ErrMissingCode is returned when an exchange is attempted without an authorization code.
var ErrMissingCode = fmt.Errorf("%w: missing code parameter", shared.ErrInvalidInput)

// ProviderError is a non-success answer from the provider's token endpoint.
//
// Body holds the raw response so it can be relayed to the caller unchanged.
type ProviderError struct {
	Status      int
	Body        []byte
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token endpoint returned %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("token endpoint returned %d", e.Status)
}

func (e *ProviderError) Unwrap() error {
	return shared.ErrExchangeFailed
}

// TokenExchanger trades authorization codes for access tokens using the confidential
// client credentials. It holds no mutable state and is safe for concurrent use.
type TokenExchanger struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewTokenExchanger builds an exchanger from immutable credentials. A nil client uses
// [http.DefaultClient] with a 15s timeout.
func NewTokenExchanger(creds shared.ClientCredentials, client *http.Client) *TokenExchanger {
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &TokenExchanger{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyAuthURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: client,
	}
}

// Exchange POSTs grant_type=authorization_code with the code and the registered
// redirect_uri, authenticating with HTTP Basic client credentials.
//
// Provider rejections come back as [*ProviderError]; transport failures and malformed
// responses wrap [shared.ErrExchangeFailed].
func (e *TokenExchanger) Exchange(ctx context.Context, code string) (*models.TokenResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	recorder := &bodyRecorder{next: e.httpClient.Transport}
	client := *e.httpClient
	client.Transport = recorder

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &client)
	token, err := e.config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &ProviderError{
				Status:      re.Response.StatusCode,
				Body:        re.Body,
				Code:        re.ErrorCode,
				Description: re.ErrorDescription,
			}
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}

	resp := tokenResponse(token)
	if json.Valid(recorder.body) {
		resp.Raw = json.RawMessage(recorder.body)
	}
	return resp, nil
}

// bodyRecorder keeps a copy of the token endpoint's response body; the oauth2 package
// decodes only the fields it knows about.
type bodyRecorder struct {
	next http.RoundTripper
	body []byte
}

func (b *bodyRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	next := b.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	b.body = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func tokenResponse(token *oauth2.Token) *models.TokenResponse {
	scope, _ := token.Extra("scope").(string)

	expiresIn := token.ExpiresIn
	if expiresIn == 0 && !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Round(time.Second) / time.Second)
	}

	return &models.TokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresIn:    expiresIn,
		Scope:        scope,
		RefreshToken: token.RefreshToken,
	}
}

// AuthCodeURL builds the provider authorize URL the user is sent to.
func AuthCodeURL(authURL, clientID, redirectURI string, scopes []string, state string) string {
	if authURL == "" {
		authURL = spotifyAuthURL
	}
	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL, TokenURL: spotifyTokenURL},
	}
	return config.AuthCodeURL(state)
}
