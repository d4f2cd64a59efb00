// CanineKind | 2026
// handler.go

package forms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caninekind/portal-api/internal/account"
	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/middleware"
)

type AccessChecker interface {
	CanAccess(
		ctx context.Context,
		id string,
		feature account.Feature,
	) (bool, error)
}

type Handler struct {
	service   *Service
	access    AccessChecker
	validator *validator.Validate
}

func NewHandler(service *Service, access AccessChecker) *Handler {
	return &Handler{
		service:   service,
		access:    access,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/forms", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(h.requireFormsAccess)

		r.Get("/obligations", h.MyObligations)
		r.Get("/complete", h.MyDocumentsComplete)
		r.Post("/{formID}/sign", h.Sign)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/forms/{accountID}", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/obligations", h.AdminObligations)
		r.Post("/{formID}/assign", h.Assign)
		r.Delete("/{formID}", h.Unassign)
	})
}

func (h *Handler) requireFormsAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.GetAccountID(r.Context())

		allowed, err := h.access.CanAccess(
			r.Context(),
			accountID,
			account.FeatureForms,
		)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			core.InternalServerError(w, err)
			return
		}
		if !allowed {
			core.Forbidden(w, "forms access not granted")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) MyObligations(w http.ResponseWriter, r *http.Request) {
	h.writeObligations(w, r, middleware.GetAccountID(r.Context()))
}

func (h *Handler) AdminObligations(w http.ResponseWriter, r *http.Request) {
	h.writeObligations(w, r, chi.URLParam(r, "accountID"))
}

func (h *Handler) writeObligations(
	w http.ResponseWriter,
	r *http.Request,
	accountID string,
) {
	statuses, err := h.service.Obligations(r.Context(), accountID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, statuses)
}

func (h *Handler) MyDocumentsComplete(w http.ResponseWriter, r *http.Request) {
	complete, err := h.service.DocumentsComplete(
		r.Context(),
		middleware.GetAccountID(r.Context()),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]bool{"complete": complete})
}

type signRequest struct {
	SignerName  string `json:"signerName" validate:"required,max=200"`
	ArtifactRef string `json:"artifactRef" validate:"max=500"`
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sig, err := h.service.Sign(
		r.Context(),
		middleware.GetAccountID(r.Context()),
		chi.URLParam(r, "formID"),
		req.SignerName,
		req.ArtifactRef,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "form obligation")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, sig)
}

type assignRequest struct {
	Order int `json:"order" validate:"min=0"`
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	}

	obligation, err := h.service.Assign(
		r.Context(),
		chi.URLParam(r, "accountID"),
		chi.URLParam(r, "formID"),
		middleware.GetAccountID(r.Context()),
		req.Order,
	)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "missing account or form id")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, obligation)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	err := h.service.Unassign(
		r.Context(),
		chi.URLParam(r, "accountID"),
		chi.URLParam(r, "formID"),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "form obligation")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
