package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/klarity-app/klarity/internal/platform/httpx"
	"github.com/klarity-app/klarity/internal/shared"
)

const stateCookie = "klarity_oauth_state"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *Sessions
	google    *GoogleProvider
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. The Google provider may be
// nil when OAuth is not configured.
func NewHandler(logger *slog.Logger, service *Service, sessions *Sessions, google *GoogleProvider) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		google:    google,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.With(RequireUser).Get("/me", h.handleMe)
	if h.google != nil {
		r.Get("/google", h.handleGoogleStart)
		r.Get("/google/callback", h.handleGoogleCallback)
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "email, password (min 8 chars) and name are required")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if !errors.Is(err, shared.ErrDuplicate) {
			h.logger.Error("register user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	h.issueSession(w, r, user, http.StatusCreated)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	h.issueSession(w, r, user, http.StatusOK)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	httpx.JSON(w, http.StatusOK, httpx.MessageBody{Message: "signed out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.UserByID(r.Context(), shared.UserFromContext(r.Context()))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("load current user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	state, err := NewState()
	if err != nil {
		h.logger.Error("generate oauth state", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusSeeOther)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Redirect(w, r, "/auth/error", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/api/auth", MaxAge: -1, HttpOnly: true})

	identity, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Warn("google exchange failed", slog.Any("error", err))
		http.Redirect(w, r, "/auth/error", http.StatusSeeOther)
		return
	}

	user, err := h.service.SignInWithProvider(r.Context(), identity)
	if err != nil {
		h.logger.Error("provider sign-in", slog.Any("error", err))
		http.Redirect(w, r, "/auth/error", http.StatusSeeOther)
		return
	}

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		http.Redirect(w, r, "/auth/error", http.StatusSeeOther)
		return
	}
	h.sessions.SetCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user *User, status int) {
	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.sessions.SetCookie(w, token)
	httpx.JSON(w, status, sessionResponse{Token: token, User: user})
}
