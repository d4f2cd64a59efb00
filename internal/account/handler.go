// CanineKind | 2026
// handler.go

package account

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/accounts", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/request-access", h.RequestAccess)
		r.Get("/me", h.GetMe)
		r.Get("/me/access", h.GetMyAccess)
	})
}

// RequestAccess provisions the caller's account record in pending state.
// Identity comes from the verified token, never from the request body.
func (h *Handler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "authentication required")
		return
	}

	acct, err := h.service.RequestAccess(
		r.Context(),
		claims.AccountID,
		claims.Email,
		claims.Name,
	)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "missing account id")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToAccountResponse(acct))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	acct, err := h.service.Get(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) GetMyAccess(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	acct, err := h.service.Get(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	features := make(map[Feature]bool, len(Features))
	for _, feature := range Features {
		features[feature] = acct.IsApproved() && acct.Settings.Allows(feature)
	}

	core.OK(w, AccessResponse{
		Status:   acct.Status,
		Features: features,
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/accounts", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAccounts)
		r.Get("/{accountID}", h.GetAccount)
		r.Post("/{accountID}/approve", h.ApproveAccount)
		r.Post("/{accountID}/deny", h.DenyAccount)
		r.Put("/{accountID}/role", h.UpdateRole)
		r.Put("/{accountID}/settings", h.UpdateSettings)
		r.Delete("/{accountID}", h.DeleteAccount)
	})
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	params := ListAccountsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Status:   r.URL.Query().Get("status"),
		Role:     r.URL.Query().Get("role"),
	}

	accounts, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToAccountResponseList(accounts),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	acct, err := h.service.Get(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) ApproveAccount(w http.ResponseWriter, r *http.Request) {
	approverID := middleware.GetAccountID(r.Context())
	targetID := chi.URLParam(r, "accountID")

	acct, err := h.service.Approve(r.Context(), targetID, approverID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) DenyAccount(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "accountID")

	acct, err := h.service.Deny(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "accountID")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	acct, err := h.service.SetRole(r.Context(), targetID, req.Role)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "accountID")

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	acct, err := h.service.SetSettings(r.Context(), targetID, req.ToSettings())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetAccountID(r.Context())
	targetID := chi.URLParam(r, "accountID")

	if err := h.service.CanDeleteAccount(r.Context(), requesterID, targetID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "insufficient permissions")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), targetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
