package handlers

import (
	"log/slog"
	"net/http"

	"github.com/agendametrics/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides account endpoints for the caller and for admins.
type UserHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// UserRouter registers user routes on the given router.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewUserHandler(userService, logger)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/me", handler.GetMe)
		r.Put("/me", handler.UpdateMe)
		r.Delete("/me", handler.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin(userService, logger))
			r.Get("/", handler.ListUsers)
			r.Get("/{userID}", handler.GetUser)
			r.Delete("/{userID}", handler.DeleteUser)
		})
	})
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), identityFrom(r).ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var update services.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), identityFrom(r).ID, update)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	h.deleteUser(w, r, identityFrom(r).ID)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.deleteUser(w, r, chi.URLParam(r, "userID"))
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
