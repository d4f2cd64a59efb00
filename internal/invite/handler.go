// CanineKind | 2026
// handler.go

package invite

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

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

// RegisterRoutes mounts redemption for authenticated callers; the token in
// the request body proves the invitation, the bearer token proves identity.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/invitations", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/redeem", h.Redeem)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/invitations", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/{invitationID}/revoke", h.Revoke)
		r.Post("/expire", h.ExpirePending)
	})
}

type createRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=200"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	inv, err := h.service.Create(
		r.Context(),
		req.Email,
		req.Name,
		middleware.GetAccountID(r.Context()),
	)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid email")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, inv)
}

type redeemRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	inv, err := h.service.Redeem(
		r.Context(),
		req.Token,
		middleware.GetAccountID(r.Context()),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "invitation")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, inv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.service.List(
		r.Context(),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, invitations)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Revoke(r.Context(), chi.URLParam(r, "invitationID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "invitation")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, inv)
}

// ExpirePending is invoked by the external job runner on a schedule; running
// it by hand is harmless.
func (h *Handler) ExpirePending(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.ExpirePending(r.Context(), time.Now().UTC())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]int{"expired": count})
}
