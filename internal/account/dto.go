// CanineKind | 2026
// dto.go

package account

import (
	"time"
)

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client admin"`
}

type UpdateSettingsRequest struct {
	CanAccessGoals        bool  `json:"canAccessGoals"`
	CanAccessSchedule     bool  `json:"canAccessSchedule"`
	CanAccessSessions     bool  `json:"canAccessSessions"`
	CanAccessForms        bool  `json:"canAccessForms"`
	AccessibleLevels      []int `json:"accessibleLevels" validate:"dive,gte=0"`
	HasCompletedIntake    bool  `json:"hasCompletedIntake"`
	FirstSessionCompleted bool  `json:"firstSessionCompleted"`
}

func (r UpdateSettingsRequest) ToSettings() Settings {
	levels := r.AccessibleLevels
	if levels == nil {
		levels = []int{}
	}
	return Settings{
		CanAccessGoals:        r.CanAccessGoals,
		CanAccessSchedule:     r.CanAccessSchedule,
		CanAccessSessions:     r.CanAccessSessions,
		CanAccessForms:        r.CanAccessForms,
		AccessibleLevels:      levels,
		HasCompletedIntake:    r.HasCompletedIntake,
		FirstSessionCompleted: r.FirstSessionCompleted,
	}
}

type AccountResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Settings   Settings   `json:"settings"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
}

type AccessResponse struct {
	Status   string           `json:"status"`
	Features map[Feature]bool `json:"features"`
}

type ListAccountsParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Status   string `json:"status"`
	Role     string `json:"role"`
}

func (p *ListAccountsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListAccountsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.Name,
		Role:       a.Role,
		Status:     a.Status,
		Settings:   a.Settings,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
		ApprovedAt: a.ApprovedAt,
		ApprovedBy: a.ApprovedBy,
	}
}

func ToAccountResponseList(accounts []Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		responses = append(responses, ToAccountResponse(&a))
	}
	return responses
}
