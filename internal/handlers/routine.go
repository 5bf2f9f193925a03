package handlers

import (
	"log/slog"
	"net/http"

	"github.com/agendametrics/apiserver/internal/services"
	"github.com/agendametrics/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// RoutineHandler provides owner-scoped routine endpoints.
type RoutineHandler struct {
	routineService *services.RoutineService
	logger         *slog.Logger
}

func NewRoutineHandler(routineService *services.RoutineService, logger *slog.Logger) *RoutineHandler {
	return &RoutineHandler{routineService: routineService, logger: logger}
}

// RoutineRouter registers routine routes. Every route requires authentication;
// listing across owners additionally requires the admin role.
func RoutineRouter(
	r chi.Router,
	routineService *services.RoutineService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewRoutineHandler(routineService, logger)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.ListRoutines)
		r.Post("/", handler.CreateRoutine)
		r.With(requireAdmin(userService, logger)).Get("/all", handler.ListAllRoutines)
		r.Route("/{routineID}", func(r chi.Router) {
			r.Get("/", handler.GetRoutine)
			r.Put("/", handler.UpdateRoutine)
			r.Delete("/", handler.DeleteRoutine)
		})
	})
}

func (h *RoutineHandler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := h.routineService.ListOwn(r.Context(), identityFrom(r).ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, routines)
}

func (h *RoutineHandler) ListAllRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := h.routineService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, routines)
}

func (h *RoutineHandler) GetRoutine(w http.ResponseWriter, r *http.Request) {
	routine, err := h.routineService.Get(r.Context(), chi.URLParam(r, "routineID"), identityFrom(r).ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

// CreateRoutine stores a routine owned by the caller. Any owner in the body is ignored.
func (h *RoutineHandler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	var input types.RoutineInput
	if !decodeJSON(w, r, &input) {
		return
	}

	routine, err := h.routineService.Create(r.Context(), input, identityFrom(r).ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, routine)
}

// UpdateRoutine applies a partial update. Absent fields keep their values.
func (h *RoutineHandler) UpdateRoutine(w http.ResponseWriter, r *http.Request) {
	var patch types.RoutinePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	routine, err := h.routineService.Update(r.Context(), chi.URLParam(r, "routineID"), patch, identityFrom(r).ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

func (h *RoutineHandler) DeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if err := h.routineService.Delete(r.Context(), chi.URLParam(r, "routineID"), identityFrom(r).ID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
