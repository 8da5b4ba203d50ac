package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/klarity-app/klarity/internal/platform/httpx"
)

// Handler exposes queue health for operators.
type Handler struct {
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes registers the job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/queue", h.handleQueueInfo)
}

type queueInfoResponse struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Failed    int    `json:"failed"`
}

func (h *Handler) handleQueueInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Error("inspect queue", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.JSON(w, http.StatusOK, queueInfoResponse{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Failed:    info.Failed,
	})
}
