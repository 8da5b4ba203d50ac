package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/klarity-app/klarity/internal/auth"
	"github.com/klarity-app/klarity/internal/platform/httpx"
	"github.com/klarity-app/klarity/internal/shared"
)

// Handler serves the dashboard summary endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(auth.RequireUser)
	r.Get("/summary", h.handleSummary)
}

// Page serves the dashboard page itself. The access gate has already
// redirected unauthenticated browsers to sign-in; API callers without a
// session still get a 401 from the middleware.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	h.handleSummary(w, r)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())
	if ownerID == "" {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.service.Summary(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("build dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
