package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/services"
	"github.com/desertthunder/statify/internal/shared"
)

// AdminGate admits only requests whose bearer token resolves to adminEmail.
//
// Missing tokens and tokens the provider will not resolve get 401. A resolved identity
// with a different e-mail, or an empty adminEmail, gets 403.
func AdminGate(identity services.IdentityResolver, adminEmail string, logger *log.Logger) Middleware {
	adminEmail = strings.TrimSpace(adminEmail)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="statify"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			profile, err := identity.Identify(r.Context(), token)
			if err != nil {
				logger.Warn("admin identity lookup failed", "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="statify", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "could not verify identity")
				return
			}

			if adminEmail == "" || !strings.EqualFold(strings.TrimSpace(profile.Email), adminEmail) {
				logger.Warn("admin access denied", "user", profile.ID)
				writeError(w, http.StatusForbidden, "forbidden", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AdminHandler lists and deletes pending signups. Wrap it with [AdminGate].
type AdminHandler struct {
	store  SignupStore
	logger *log.Logger
}

func NewAdminHandler(store SignupStore, logger *log.Logger) *AdminHandler {
	return &AdminHandler{store: store, logger: logger}
}

// List serves GET /admin/signups, newest first.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	signups, err := h.store.List(nil)
	if err != nil {
		h.logger.Error("failed to list signups", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	out := make([]models.PendingSignupJSON, 0, len(signups))
	for _, s := range signups {
		out = append(out, s.JSON())
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete serves DELETE /admin/signups/{id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing id")
		return
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "")
			return
		}
		h.logger.Error("failed to delete signup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	h.logger.Info("signup deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
