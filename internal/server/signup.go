package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
	"golang.org/x/time/rate"
)

// SignupStore persists pending signups. [repositories.PendingSignupRepository] implements it.
type SignupStore interface {
	Create(signup *models.PendingSignup) error
	List(criteria map[string]any) ([]*models.PendingSignup, error)
	Delete(id string) error
}

const maxSignupBody = 4 << 10

// SignupHandler accepts unauthenticated signup submissions.
type SignupHandler struct {
	store   SignupStore
	limiter *rate.Limiter
	metrics *Metrics
	logger  *log.Logger
}

// NewSignupHandler allows perMinute submissions per minute with a burst of the same size.
// perMinute <= 0 disables throttling.
func NewSignupHandler(store SignupStore, perMinute int, metrics *Metrics, logger *log.Logger) *SignupHandler {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	}
	return &SignupHandler{store: store, limiter: limiter, metrics: metrics, logger: logger}
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		h.record("throttled")
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many signup requests")
		return
	}

	email, err := readEmail(w, r)
	if err != nil {
		h.record("invalid")
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	signup := models.NewPendingSignup(email)
	if err := h.store.Create(signup); err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			h.record("invalid")
			writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
			return
		}
		h.record("failed")
		h.logger.Error("failed to store signup", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	h.record("created")
	h.logger.Info("signup received", "id", signup.ID())
	writeJSON(w, http.StatusCreated, signup.JSON())
}

// readEmail accepts a JSON object or a url-encoded form.
func readEmail(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSignupBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", err
		}
		return body.Email, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostForm.Get("email"), nil
}

func (h *SignupHandler) record(result string) {
	if h.metrics != nil {
		h.metrics.signup(result)
	}
}
