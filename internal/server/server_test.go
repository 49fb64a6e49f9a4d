package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/repositories"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/shared"
)

const (
	testSecret = "super-secret-client-value"
	testOrigin = "http://localhost:3000"
	adminEmail = "admin@example.com"
)

type fakeExchanger struct {
	calls atomic.Int32
	resp  *models.TokenResponse
	err   error
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*models.TokenResponse, error) {
	f.calls.Add(1)
	return f.resp, f.err
}

type fakeIdentity struct {
	profile *models.Profile
	err     error
}

func (f *fakeIdentity) Identify(ctx context.Context, token string) (*models.Profile, error) {
	return f.profile, f.err
}

func testConfig() *shared.Config {
	cfg := shared.DefaultConfig()
	cfg.Credentials.Spotify.ClientSecret = testSecret
	cfg.Admin.Email = adminEmail
	cfg.Server.AllowedOrigins = []string{testOrigin}
	cfg.Server.SignupRatePerMinute = 0
	return cfg
}

func setupRepo(t *testing.T) *repositories.PendingSignupRepository {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return repositories.NewPendingSignupRepository(db)
}

func newTestServer(t *testing.T, cfg *shared.Config, ex TokenExchanger, id services.IdentityResolver) (*Server, *repositories.PendingSignupRepository) {
	t.Helper()
	repo := setupRepo(t)
	srv := New(Options{
		Config:    cfg,
		Exchanger: ex,
		Signups:   repo,
		Identity:  id,
		Logger:    shared.NewLogger(io.Discard),
	})
	return srv, repo
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func assertNoSecret(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if strings.Contains(rec.Body.String(), testSecret) {
		t.Error("response body contains the client secret")
	}
	for name, values := range rec.Header() {
		for _, v := range values {
			if strings.Contains(v, testSecret) {
				t.Errorf("header %s contains the client secret", name)
			}
		}
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var e models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
	return e
}

func TestExchangeEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ex := &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc", TokenType: "Bearer", ExpiresIn: 3600, Scope: "user-top-read"}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=good", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %s", rec.Header().Get("Content-Type"))
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Error("expected token response to be marked no-store")
		}

		var token models.TokenResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
			t.Fatalf("failed to decode token: %v", err)
		}
		if token.AccessToken != "acc" || token.ExpiresIn != 3600 || token.Scope != "user-top-read" {
			t.Errorf("unexpected token %+v", token)
		}
		if ex.calls.Load() != 1 {
			t.Errorf("expected exactly one exchange, got %d", ex.calls.Load())
		}
		assertNoSecret(t, rec)
	})

	t.Run("Success Relays Provider Body", func(t *testing.T) {
		raw := `{"access_token":"acc","token_type":"Bearer","expires_in":3600,"scope":"user-top-read","provider_extra":"kept?"}`
		ex := &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc", TokenType: "Bearer", ExpiresIn: 3600, Raw: json.RawMessage(raw)}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=good", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %s", rec.Header().Get("Content-Type"))
		}
		if rec.Body.String() != raw {
			t.Errorf("expected provider body verbatim, got %s", rec.Body.String())
		}
	})

	t.Run("Success Body Echoing Secret Is Rebuilt", func(t *testing.T) {
		raw := `{"access_token":"acc","token_type":"Bearer","expires_in":3600,"debug":"` + testSecret + `"}`
		ex := &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc", TokenType: "Bearer", ExpiresIn: 3600, Raw: json.RawMessage(raw)}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=good", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var token models.TokenResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil || token.AccessToken != "acc" {
			t.Errorf("expected rebuilt token, got %s", rec.Body.String())
		}
		assertNoSecret(t, rec)
	})

	t.Run("Missing Code", func(t *testing.T) {
		for _, target := range []string{"/spotifyAuth", "/spotifyAuth?code=", "/spotifyAuth?code=%20%20"} {
			ex := &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc"}}
			srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

			rec := do(srv, httptest.NewRequest(http.MethodGet, target, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", target, rec.Code)
			}
			e := decodeError(t, rec)
			if e.Error != "invalid_request" || e.ErrorDescription != "missing code parameter" {
				t.Errorf("%s: unexpected error %+v", target, e)
			}
			if strings.Contains(rec.Body.String(), "access_token") {
				t.Errorf("%s: response must not carry a token", target)
			}
			if ex.calls.Load() != 0 {
				t.Errorf("%s: expected no provider call, got %d", target, ex.calls.Load())
			}
		}
	})

	t.Run("Provider Rejection Relayed Verbatim", func(t *testing.T) {
		body := `{"error":"invalid_grant","error_description":"Invalid authorization code"}`
		ex := &fakeExchanger{err: &services.ProviderError{Status: http.StatusBadRequest, Body: []byte(body), Code: "invalid_grant"}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=used", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if rec.Body.String() != body {
			t.Errorf("expected provider body, got %s", rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %s", rec.Header().Get("Content-Type"))
		}
	})

	t.Run("Provider Body Echoing Secret Is Replaced", func(t *testing.T) {
		body := `{"error":"invalid_client","error_description":"bad secret ` + testSecret + `"}`
		ex := &fakeExchanger{err: &services.ProviderError{Status: http.StatusUnauthorized, Body: []byte(body)}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected provider status 401, got %d", rec.Code)
		}
		if e := decodeError(t, rec); e.Error != "token_exchange_failed" {
			t.Errorf("expected fallback error, got %+v", e)
		}
		assertNoSecret(t, rec)
	})

	t.Run("Non-JSON Provider Body Is Replaced", func(t *testing.T) {
		ex := &fakeExchanger{err: &services.ProviderError{Status: http.StatusServiceUnavailable, Body: []byte("<html>down</html>")}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
		if e := decodeError(t, rec); e.Error != "token_exchange_failed" {
			t.Errorf("expected fallback error, got %+v", e)
		}
	})

	t.Run("Provider Error With OK Status Is Not Success", func(t *testing.T) {
		ex := &fakeExchanger{err: &services.ProviderError{Status: http.StatusOK, Body: []byte(`{"error":"invalid_grant"}`)}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		ex := &fakeExchanger{err: errors.New("dial tcp 10.0.0.1:443: connection refused")}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		e := decodeError(t, rec)
		if e.Error != "server_error" || e.ErrorDescription != "token exchange failed" {
			t.Errorf("unexpected error %+v", e)
		}
		if strings.Contains(rec.Body.String(), "10.0.0.1") {
			t.Error("response leaked transport details")
		}
	})

	t.Run("Empty Access Token Is Failure", func(t *testing.T) {
		ex := &fakeExchanger{resp: &models.TokenResponse{TokenType: "Bearer"}}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		ex := &fakeExchanger{}
		srv, _ := newTestServer(t, testConfig(), ex, &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodPost, "/spotifyAuth?code=abc", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("unexpected Allow header %q", rec.Header().Get("Allow"))
		}
		if ex.calls.Load() != 0 {
			t.Error("expected no exchange")
		}
	})

	t.Run("Custom Exchange Path", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.ExchangePath = "/auth/exchange"
		srv, _ := newTestServer(t, cfg, &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc"}}, &fakeIdentity{})

		if rec := do(srv, httptest.NewRequest(http.MethodGet, "/auth/exchange?code=abc", nil)); rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Against Provider", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			w.Header().Set("Content-Type", "application/json")
			if _, secret, _ := r.BasicAuth(); secret != testSecret {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
			if r.PostForm.Get("code") != "good" || r.PostForm.Get("redirect_uri") != "http://127.0.0.1:3000/callback" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
				return
			}
			w.Write([]byte(`{"access_token":"issued","token_type":"Bearer","expires_in":3600,"scope":"user-top-read","provider_extra":"kept?"}`))
		}))
		t.Cleanup(provider.Close)

		cfg := testConfig()
		cfg.Provider.TokenURL = provider.URL
		srv, _ := newTestServer(t, cfg, services.NewTokenExchanger(cfg.ClientCredentials(), provider.Client()), &fakeIdentity{})

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=good", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var token models.TokenResponse
		json.Unmarshal(rec.Body.Bytes(), &token)
		if token.AccessToken == "" {
			t.Error("expected non-empty access_token")
		}
		var fields map[string]any
		json.Unmarshal(rec.Body.Bytes(), &fields)
		if fields["provider_extra"] != "kept?" {
			t.Errorf("expected provider fields to pass through, got %s", rec.Body.String())
		}
		assertNoSecret(t, rec)

		rec = do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=already-used", nil))
		if rec.Code < 400 {
			t.Fatalf("expected non-2xx, got %d", rec.Code)
		}
		if e := decodeError(t, rec); e.Error != "invalid_grant" {
			t.Errorf("expected provider error object, got %+v", e)
		}
		assertNoSecret(t, rec)
	})
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc"}}, &fakeIdentity{})

	t.Run("Preflight From Allowed Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/spotifyAuth?code=abc", nil)
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")

		rec := do(srv, req)

		if rec.Code >= 300 {
			t.Errorf("expected preflight success, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
			t.Errorf("expected allowed origin, got %q", got)
		}
	})

	t.Run("Preflight To Admin Route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/admin/signups/abc", nil)
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)

		rec := do(srv, req)
		if rec.Code >= 300 {
			t.Errorf("expected preflight success, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
			t.Errorf("expected allowed origin, got %q", got)
		}
	})

	t.Run("Disallowed Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		rec := do(srv, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
	})

	t.Run("Simple Request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", testOrigin)

		rec := do(srv, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
			t.Errorf("expected allowed origin, got %q", got)
		}
	})
}

func TestSignupEndpoint(t *testing.T) {
	t.Run("JSON Submission", func(t *testing.T) {
		srv, repo := newTestServer(t, testConfig(), &fakeExchanger{}, &fakeIdentity{})

		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"  ada@example.com "}`))
		req.Header.Set("Content-Type", "application/json")
		rec := do(srv, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var created models.PendingSignupJSON
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if created.ID == "" || created.Email != "ada@example.com" || created.Timestamp.IsZero() {
			t.Errorf("unexpected record %+v", created)
		}

		if count, _ := repo.Count(); count != 1 {
			t.Errorf("expected exactly one record, got %d", count)
		}
	})

	t.Run("Form Submission", func(t *testing.T) {
		srv, repo := newTestServer(t, testConfig(), &fakeExchanger{}, &fakeIdentity{})

		form := url.Values{"email": {"grace@example.com"}}
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(srv, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		signups, _ := repo.List(map[string]any{"email": "grace@example.com"})
		if len(signups) != 1 {
			t.Errorf("expected record for form email, got %d", len(signups))
		}
	})

	t.Run("Empty Email Creates Nothing", func(t *testing.T) {
		srv, repo := newTestServer(t, testConfig(), &fakeExchanger{}, &fakeIdentity{})

		for _, body := range []string{`{"email":""}`, `{"email":"   "}`, `{}`} {
			req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := do(srv, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", body, rec.Code)
			}
		}

		if count, _ := repo.Count(); count != 0 {
			t.Errorf("expected no records, got %d", count)
		}
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &fakeExchanger{}, &fakeIdentity{})

		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":`))
		req.Header.Set("Content-Type", "application/json")
		if rec := do(srv, req); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.SignupRatePerMinute = 2
		srv, repo := newTestServer(t, cfg, &fakeExchanger{}, &fakeIdentity{})

		var codes []int
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"a@example.com"}`))
			req.Header.Set("Content-Type", "application/json")
			codes = append(codes, do(srv, req).Code)
		}

		if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
			t.Errorf("unexpected status sequence %v", codes)
		}
		if count, _ := repo.Count(); count != 2 {
			t.Errorf("expected two records, got %d", count)
		}
	})
}

func TestAdminEndpoints(t *testing.T) {
	admin := &fakeIdentity{profile: &models.Profile{ID: "root", Email: "Admin@Example.com"}}

	seed := func(t *testing.T, repo *repositories.PendingSignupRepository, emails ...string) []string {
		t.Helper()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var ids []string
		for i, email := range emails {
			s := models.RestorePendingSignup("", email, base.Add(time.Duration(i)*time.Hour))
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}
			ids = append(ids, s.ID())
		}
		return ids
	}

	authed := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		return req
	}

	t.Run("Missing Bearer", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &fakeExchanger{}, admin)

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/admin/signups", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Error("expected WWW-Authenticate challenge")
		}
	})

	t.Run("Identity Lookup Failure", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &fakeExchanger{}, &fakeIdentity{err: shared.ErrTokenExpired})

		if rec := do(srv, authed(http.MethodGet, "/admin/signups")); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("Non-Admin Identity", func(t *testing.T) {
		other := &fakeIdentity{profile: &models.Profile{ID: "u", Email: "someone@example.com"}}
		srv, repo := newTestServer(t, testConfig(), &fakeExchanger{}, other)
		ids := seed(t, repo, "a@example.com")

		if rec := do(srv, authed(http.MethodGet, "/admin/signups")); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
		if rec := do(srv, authed(http.MethodDelete, "/admin/signups/"+ids[0])); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
		if count, _ := repo.Count(); count != 1 {
			t.Error("forbidden delete must not remove anything")
		}
	})

	t.Run("No Admin Configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.Admin.Email = ""
		srv, _ := newTestServer(t, cfg, &fakeExchanger{}, &fakeIdentity{profile: &models.Profile{ID: "u"}})

		if rec := do(srv, authed(http.MethodGet, "/admin/signups")); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("List Newest First", func(t *testing.T) {
		srv, repo := newTestServer(t, testConfig(), &fakeExchanger{}, admin)
		seed(t, repo, "old@example.com", "mid@example.com", "new@example.com")

		rec := do(srv, authed(http.MethodGet, "/admin/signups"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var signups []models.PendingSignupJSON
		if err := json.Unmarshal(rec.Body.Bytes(), &signups); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(signups) != 3 {
			t.Fatalf("expected 3 signups, got %d", len(signups))
		}
		if signups[0].Email != "new@example.com" || signups[2].Email != "old@example.com" {
			t.Errorf("unexpected order %+v", signups)
		}
	})

	t.Run("List Empty", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &fakeExchanger{}, admin)

		rec := do(srv, authed(http.MethodGet, "/admin/signups"))
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("expected empty array, got %s", rec.Body.String())
		}
	})

	t.Run("Delete Removes Only Target", func(t *testing.T) {
		srv, repo := newTestServer(t, testConfig(), &fakeExchanger{}, admin)
		ids := seed(t, repo, "a@example.com", "b@example.com", "c@example.com")

		rec := do(srv, authed(http.MethodDelete, "/admin/signups/"+ids[1]))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}

		if _, err := repo.Get(ids[1]); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected deleted record to be gone, got %v", err)
		}
		for _, id := range []string{ids[0], ids[2]} {
			if _, err := repo.Get(id); err != nil {
				t.Errorf("expected %s to remain, got %v", id, err)
			}
		}
	})

	t.Run("Delete Missing", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &fakeExchanger{}, admin)

		if rec := do(srv, authed(http.MethodDelete, "/admin/signups/does-not-exist")); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &fakeExchanger{resp: &models.TokenResponse{AccessToken: "acc"}}, &fakeIdentity{})

	t.Run("Health", func(t *testing.T) {
		rec := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("Request ID", func(t *testing.T) {
		rec := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Header().Get("X-Request-Id") == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("Panic Is Logged As 500", func(t *testing.T) {
		logs := &strings.Builder{}
		s := New(Options{
			Config:    testConfig(),
			Exchanger: &fakeExchanger{},
			Signups:   setupRepo(t),
			Identity:  &fakeIdentity{},
			Logger:    shared.NewLogger(logs),
		})
		s.router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := do(s, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(logs.String(), "path=/boom") || !strings.Contains(logs.String(), "status=500") {
			t.Errorf("expected request line with status 500, got %q", logs.String())
		}

		rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if !strings.Contains(rec.Body.String(), `status="500"`) {
			t.Errorf("expected 500 in request metrics, got:\n%s", rec.Body.String())
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		do(srv, httptest.NewRequest(http.MethodGet, "/spotifyAuth?code=abc", nil))

		rec := do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `statify_token_exchanges_total{result="success"} 1`) {
			t.Errorf("expected exchange counter, got:\n%s", body)
		}
		if !strings.Contains(body, "http_requests_total") {
			t.Error("expected request counter")
		}
		if strings.Contains(body, "code=abc") {
			t.Error("metrics must not carry query strings")
		}
	})

	t.Run("Serve Shuts Down On Cancel", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.Port = 0
		s, _ := newTestServer(t, cfg, &fakeExchanger{}, &fakeIdentity{})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.ListenAndServe(ctx) }()

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})
}
