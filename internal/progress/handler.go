// CanineKind | 2026
// handler.go

package progress

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caninekind/portal-api/internal/account"
	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/middleware"
)

// AccessChecker is the approval-plus-settings gate consulted before any
// curriculum data is served.
type AccessChecker interface {
	CanAccess(
		ctx context.Context,
		id string,
		feature account.Feature,
	) (bool, error)
}

type Handler struct {
	service *Service
	access  AccessChecker
}

func NewHandler(service *Service, access AccessChecker) *Handler {
	return &Handler{service: service, access: access}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(h.requireGoalsAccess)

		r.Get("/overview", h.Overview)
		r.Get("/eligible", h.EligibleGoals)
		r.Get("/records", h.ListRecords)
		r.Get("/levels/{level}/unlocked", h.LevelUnlocked)
		r.Post("/goals/{goalID}/complete", h.CompleteGoal)
		r.Post("/goals/{goalID}/tasks/{taskID}/complete", h.CompleteTask)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/progress/{accountID}", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/overview", h.AdminOverview)
		r.Get("/records", h.AdminListRecords)
		r.Post("/goals/{goalID}/uncomplete", h.AdminUncompleteGoal)
		r.Post(
			"/goals/{goalID}/tasks/{taskID}/uncomplete",
			h.AdminUncompleteTask,
		)
	})
}

// requireGoalsAccess re-derives the gate from stored state on every request.
func (h *Handler) requireGoalsAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.GetAccountID(r.Context())

		allowed, err := h.access.CanAccess(
			r.Context(),
			accountID,
			account.FeatureGoals,
		)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			core.InternalServerError(w, err)
			return
		}
		if !allowed {
			core.Forbidden(w, "goals access not granted")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	h.writeOverview(w, r, middleware.GetAccountID(r.Context()))
}

func (h *Handler) AdminOverview(w http.ResponseWriter, r *http.Request) {
	h.writeOverview(w, r, chi.URLParam(r, "accountID"))
}

func (h *Handler) writeOverview(
	w http.ResponseWriter,
	r *http.Request,
	accountID string,
) {
	overview, err := h.service.Overview(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, overview)
}

func (h *Handler) EligibleGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.EligibleGoals(
		r.Context(),
		middleware.GetAccountID(r.Context()),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, goals)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	h.writeRecords(w, r, middleware.GetAccountID(r.Context()))
}

func (h *Handler) AdminListRecords(w http.ResponseWriter, r *http.Request) {
	h.writeRecords(w, r, chi.URLParam(r, "accountID"))
}

func (h *Handler) writeRecords(
	w http.ResponseWriter,
	r *http.Request,
	accountID string,
) {
	records, err := h.service.ListRecords(r.Context(), accountID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, records)
}

func (h *Handler) LevelUnlocked(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		core.BadRequest(w, "invalid level")
		return
	}

	unlocked, err := h.service.LevelUnlocked(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		level,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "level")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]any{"level": level, "unlocked": unlocked})
}

func (h *Handler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.CompleteGoal(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "goalID"),
	)
	if err != nil {
		h.writeProgressError(w, err)
		return
	}

	core.OK(w, rec)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.CompleteTask(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "goalID"),
		chi.URLParam(r, "taskID"),
	)
	if err != nil {
		h.writeProgressError(w, err)
		return
	}

	core.OK(w, rec)
}

func (h *Handler) AdminUncompleteGoal(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.UncompleteGoal(
		r.Context(),
		chi.URLParam(r, "accountID"),
		chi.URLParam(r, "goalID"),
	)
	if err != nil {
		h.writeProgressError(w, err)
		return
	}

	core.OK(w, rec)
}

func (h *Handler) AdminUncompleteTask(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.UncompleteTask(
		r.Context(),
		chi.URLParam(r, "accountID"),
		chi.URLParam(r, "goalID"),
		chi.URLParam(r, "taskID"),
	)
	if err != nil {
		h.writeProgressError(w, err)
		return
	}

	core.OK(w, rec)
}

func (h *Handler) writeProgressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "goal or task")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
