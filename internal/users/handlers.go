package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tracknest/tracknest/internal/auth"
	"github.com/tracknest/tracknest/internal/httputil"
	"github.com/tracknest/tracknest/internal/models"
)

type Handler struct {
	repo *Repository
	auth *auth.Auth
}

func NewHandler(repo *Repository, a *auth.Auth) *Handler {
	return &Handler{repo: repo, auth: a}
}

// Router mounts the public auth routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	return r
}

// AuthedRouter mounts routes requiring authentication.
func (h *Handler) AuthedRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.me)
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_INPUT", "username and email are required")
		return
	}

	if existing, err := h.repo.GetByUsername(req.Username); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to check username")
		return
	} else if existing != nil {
		httputil.WriteError(w, http.StatusConflict, "USERNAME_TAKEN", "username is already taken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", err.Error())
		return
	}

	// First registered account becomes the admin.
	role := models.RoleUser
	if n, err := h.repo.CountUsers(); err == nil && n == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := h.repo.Create(user); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create user")
		return
	}

	token, err := h.auth.IssueToken(user.ID.String(), user.Role == models.RoleAdmin)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	user, err := h.repo.GetByUsername(req.Username)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}
	if user == nil || !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		httputil.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
		return
	}

	token, err := h.auth.IssueToken(user.ID.String(), user.Role == models.RoleAdmin)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}
	user, err := h.repo.GetByID(u.UserID)
	if err != nil || user == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
