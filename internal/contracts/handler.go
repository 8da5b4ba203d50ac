package contracts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/klarity-app/klarity/internal/auth"
	"github.com/klarity-app/klarity/internal/platform/httpx"
	"github.com/klarity-app/klarity/internal/shared"
)

// Handler wires the contract CRUD endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the contract routes; all of them require a
// valid session.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(auth.RequireUser)
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	r.Patch("/{id}/archive", h.handleArchive)
}

type listResponse struct {
	Contracts  []Contract        `json:"contracts"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())

	query := r.URL.Query()
	filter := ListFilter{
		Status: query.Get("status"),
		Page:   intParam(query.Get("page"), 1),
		Limit:  intParam(query.Get("limit"), shared.DefaultPageSize),
	}

	items, pagination, err := h.service.List(r.Context(), ownerID, filter)
	if err != nil {
		h.respondError(w, r, "list contracts", err)
		return
	}
	if items == nil {
		items = []Contract{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Contracts: items, Pagination: pagination})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())

	in, err := decodeInput(r)
	if err != nil {
		h.respondError(w, r, "decode contract", err)
		return
	}

	contract, err := h.service.Create(r.Context(), ownerID, in)
	if err != nil {
		h.respondError(w, r, "create contract", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contract)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())

	contract, err := h.service.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, "get contract", err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())

	in, err := decodeInput(r)
	if err != nil {
		h.respondError(w, r, "decode contract", err)
		return
	}

	contract, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondError(w, r, "update contract", err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "delete contract", err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.MessageBody{Message: "contract deleted"})
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	ownerID := shared.UserFromContext(r.Context())

	var req archiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contract, err := h.service.Archive(r.Context(), ownerID, chi.URLParam(r, "id"), req.Archived)
	if err != nil {
		h.respondError(w, r, "archive contract", err)
		return
	}
	httpx.JSON(w, http.StatusOK, contract)
}

// respondError logs unexpected failures server-side only; the client
// sees the mapped status with a generic body.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrValidation) {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// decodeInput parses the request body; malformed numeric or date
// fields surface as validation errors.
func decodeInput(r *http.Request) (Input, error) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		if errors.Is(err, shared.ErrValidation) {
			return Input{}, err
		}
		return Input{}, shared.ErrValidation
	}
	return in, nil
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
