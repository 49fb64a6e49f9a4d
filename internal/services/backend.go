// Client for the statify backend: token exchange relay and pending signups
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

// APIResponse represents a raw backend response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ExchangeError is a failed exchange as reported by the backend.
type ExchangeError struct {
	Status   int
	Response models.ErrorResponse
}

func (e *ExchangeError) Error() string {
	if e.Response.ErrorDescription != "" {
		return fmt.Sprintf("exchange failed with status %d: %s (%s)", e.Status, e.Response.Error, e.Response.ErrorDescription)
	}
	return fmt.Sprintf("exchange failed with status %d: %s", e.Status, e.Response.Error)
}

func (e *ExchangeError) Unwrap() error {
	return shared.ErrAuthFailed
}

// BackendClient calls the statify backend over HTTP.
type BackendClient struct {
	baseURL     string
	exchangeURL string
	httpClient  *http.Client
}

// NewBackendClient creates a client. exchangeURL defaults to {baseURL}/spotifyAuth.
func NewBackendClient(baseURL, exchangeURL string, client *http.Client) *BackendClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8888"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if exchangeURL == "" {
		exchangeURL = baseURL + "/spotifyAuth"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendClient{
		baseURL:     baseURL,
		exchangeURL: exchangeURL,
		httpClient:  client,
	}
}

// Exchange asks the backend to trade code for a token.
//
// Non-2xx answers become [*ExchangeError] carrying the relayed provider error.
func (b *BackendClient) Exchange(ctx context.Context, code string) (*models.TokenResponse, error) {
	u, err := url.Parse(b.exchangeURL)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange url: %v", shared.ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()

	resp, err := b.do(ctx, http.MethodGet, u.String(), "", nil, "")
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		exErr := &ExchangeError{Status: resp.StatusCode}
		if json.Unmarshal(resp.Body, &exErr.Response) != nil || exErr.Response.Error == "" {
			exErr.Response.Error = http.StatusText(resp.StatusCode)
		}
		return nil, exErr
	}

	var token models.TokenResponse
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", shared.ErrAuthFailed, err)
	}
	return &token, nil
}

// SubmitSignup files a pending signup for email.
func (b *BackendClient) SubmitSignup(ctx context.Context, email string) (*models.PendingSignupJSON, error) {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return nil, err
	}

	resp, err := b.do(ctx, http.MethodPost, b.baseURL+"/signup", "", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	var signup models.PendingSignupJSON
	if err := json.Unmarshal(resp.Body, &signup); err != nil {
		return nil, fmt.Errorf("%w: failed to decode signup: %v", shared.ErrAPIRequest, err)
	}
	return &signup, nil
}

// ListSignups lists pending signups; token must belong to the administrator.
func (b *BackendClient) ListSignups(ctx context.Context, token string) ([]models.PendingSignupJSON, error) {
	resp, err := b.do(ctx, http.MethodGet, b.baseURL+"/admin/signups", token, nil, "")
	if err != nil {
		return nil, err
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	var signups []models.PendingSignupJSON
	if err := json.Unmarshal(resp.Body, &signups); err != nil {
		return nil, fmt.Errorf("%w: failed to decode signups: %v", shared.ErrAPIRequest, err)
	}
	return signups, nil
}

// DeleteSignup removes the pending signup with id; token must belong to the administrator.
func (b *BackendClient) DeleteSignup(ctx context.Context, token, id string) error {
	resp, err := b.do(ctx, http.MethodDelete, b.baseURL+"/admin/signups/"+url.PathEscape(id), token, nil, "")
	if err != nil {
		return err
	}
	return statusError(resp)
}

// Health checks the backend's /health endpoint.
func (b *BackendClient) Health(ctx context.Context) error {
	resp, err := b.do(ctx, http.MethodGet, b.baseURL+"/health", "", nil, "")
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

func (b *BackendClient) do(ctx context.Context, method, fullURL, token string, body io.Reader, contentType string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

// statusError maps backend statuses to sentinel errors.
func statusError(resp *APIResponse) error {
	if resp.OK() {
		return nil
	}

	var e models.ErrorResponse
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(resp.Body, &e) == nil && e.Error != "" {
		msg = e.Error
		if e.ErrorDescription != "" {
			msg += ": " + e.ErrorDescription
		}
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}
}
