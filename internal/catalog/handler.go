// CanineKind | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes exposes the read-only catalog to authenticated clients.
// The progress handler enforces the feature gate; the catalog itself is
// public curriculum data once you are signed in.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/catalog", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/goals", h.ListGoals)
		r.Get("/goals/{goalID}", h.GetGoal)
		r.Get("/levels", h.ListLevels)
		r.Get("/levels/{level}", h.GetLevel)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/catalog", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/goals", h.CreateGoal)
		r.Put("/goals/{goalID}", h.UpdateGoal)
		r.Post("/goals/{goalID}/activate", h.ActivateGoal)
		r.Post("/goals/{goalID}/deactivate", h.DeactivateGoal)
		r.Delete("/goals/{goalID}", h.DeleteGoal)
		r.Put("/levels/{level}", h.UpsertLevel)
	})
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	goals, err := h.service.ListGoals(r.Context(), activeOnly)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, goals)
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.service.GetGoal(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "goal")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, goal)
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.ListLevels(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, levels)
}

func (h *Handler) GetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		core.BadRequest(w, "invalid level")
		return
	}

	lvl, err := h.service.GetLevel(r.Context(), level)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "level")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, lvl)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	createdBy := middleware.GetAccountID(r.Context())

	goal, err := h.service.CreateGoal(r.Context(), req.ToGoal(), createdBy)
	if err != nil {
		h.writeGoalError(w, err)
		return
	}

	core.Created(w, goal)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	goal, err := h.service.UpdateGoal(
		r.Context(),
		req.ToGoal(chi.URLParam(r, "goalID")),
	)
	if err != nil {
		h.writeGoalError(w, err)
		return
	}

	core.OK(w, goal)
}

func (h *Handler) ActivateGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.service.ActivateGoal(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeGoalError(w, err)
		return
	}

	core.OK(w, goal)
}

func (h *Handler) DeactivateGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.service.DeactivateGoal(r.Context(), chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeGoalError(w, err)
		return
	}

	core.OK(w, goal)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGoal(r.Context(), chi.URLParam(r, "goalID")); err != nil {
		h.writeGoalError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) UpsertLevel(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		core.BadRequest(w, "invalid level")
		return
	}

	var req UpsertLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	lvl := req.ToLevel(level)
	if err := h.service.UpsertLevel(r.Context(), lvl); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, err.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, lvl)
}

func (h *Handler) writeGoalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrCycleRejected):
		core.Conflict(w, err.Error())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "goal")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
