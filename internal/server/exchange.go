package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/services"
)

// TokenExchanger trades an authorization code for a token. [services.TokenExchanger]
// implements it against the provider.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*models.TokenResponse, error)
}

var fallbackProviderError = []byte(`{"error":"token_exchange_failed"}`)

// ExchangeHandler serves GET {exchange_path}?code=.
//
// It keeps no per-request state. The client secret is held only to ensure a relayed
// provider body never echoes it.
type ExchangeHandler struct {
	exchanger TokenExchanger
	secret    string
	metrics   *Metrics
	logger    *log.Logger
}

func NewExchangeHandler(exchanger TokenExchanger, secret string, metrics *Metrics, logger *log.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchanger: exchanger, secret: secret, metrics: metrics, logger: logger}
}

func (h *ExchangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		h.record(exchangeInvalid)
		writeError(w, http.StatusBadRequest, "invalid_request", "missing code parameter")
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		var pe *services.ProviderError
		if errors.As(err, &pe) && pe.Status >= 400 {
			h.record(exchangeRejected)
			h.logger.Warn("provider rejected code", "status", pe.Status, "error", pe.Code)
			h.relay(w, pe)
			return
		}

		h.record(exchangeFailed)
		h.logger.Error("token exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "server_error", "token exchange failed")
		return
	}

	if token.AccessToken == "" {
		h.record(exchangeFailed)
		h.logger.Error("token exchange returned no access token")
		writeError(w, http.StatusBadGateway, "server_error", "token exchange failed")
		return
	}

	h.record(exchangeSuccess)
	if h.relayable(token.Raw) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(token.Raw)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// relayable reports whether a provider body can be forwarded as is.
func (h *ExchangeHandler) relayable(body []byte) bool {
	return json.Valid(body) && (h.secret == "" || !bytes.Contains(body, []byte(h.secret)))
}

// relay forwards the provider's status and error body unchanged, unless the body is not
// JSON or contains the client secret.
func (h *ExchangeHandler) relay(w http.ResponseWriter, pe *services.ProviderError) {
	body := pe.Body
	if !h.relayable(body) {
		body = fallbackProviderError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pe.Status)
	w.Write(body)
}

func (h *ExchangeHandler) record(result string) {
	if h.metrics != nil {
		h.metrics.exchange(result)
	}
}
