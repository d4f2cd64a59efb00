// CanineKind | 2026
// entity.go

package account

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Account struct {
	ID         string     `db:"id"`
	Email      string     `db:"email"`
	Name       string     `db:"name"`
	Role       string     `db:"role"`
	Status     string     `db:"status"`
	Settings   Settings   `db:"settings"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	ApprovedAt *time.Time `db:"approved_at"`
	ApprovedBy *string    `db:"approved_by"`
}

// IsAdmin requires the role AND an approved status: denying an admin strips
// admin capability immediately, even though the role field is untouched.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin && a.Status == StatusApproved
}

func (a *Account) IsApproved() bool {
	return a.Status == StatusApproved
}

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

func ValidRole(role string) bool {
	return role == RoleClient || role == RoleAdmin
}

func ValidStatus(status string) bool {
	return status == StatusPending ||
		status == StatusApproved ||
		status == StatusRejected
}

// Settings are the per-account feature flags. Field names are the stored
// contract shared with the existing portal data; do not rename.
type Settings struct {
	CanAccessGoals        bool  `json:"canAccessGoals"`
	CanAccessSchedule     bool  `json:"canAccessSchedule"`
	CanAccessSessions     bool  `json:"canAccessSessions"`
	CanAccessForms        bool  `json:"canAccessForms"`
	AccessibleLevels      []int `json:"accessibleLevels"`
	HasCompletedIntake    bool  `json:"hasCompletedIntake"`
	FirstSessionCompleted bool  `json:"firstSessionCompleted"`
}

// DefaultSettings is the all-false baseline reasserted on every approval.
func DefaultSettings() Settings {
	return Settings{AccessibleLevels: []int{}}
}

func (s Settings) HasLevel(level int) bool {
	for _, l := range s.AccessibleLevels {
		if l == level {
			return true
		}
	}
	return false
}

func (s Settings) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}

func (s *Settings) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*s = DefaultSettings()
		return nil
	default:
		return fmt.Errorf("scan settings: unsupported type %T", src)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal settings: %w", err)
	}
	if s.AccessibleLevels == nil {
		s.AccessibleLevels = []int{}
	}
	return nil
}

type Feature string

const (
	FeatureGoals    Feature = "goals"
	FeatureSchedule Feature = "schedule"
	FeatureSessions Feature = "sessions"
	FeatureForms    Feature = "forms"
)

var Features = []Feature{
	FeatureGoals,
	FeatureSchedule,
	FeatureSessions,
	FeatureForms,
}

func ParseFeature(s string) (Feature, bool) {
	switch Feature(s) {
	case FeatureGoals, FeatureSchedule, FeatureSessions, FeatureForms:
		return Feature(s), true
	}
	return "", false
}

func (s Settings) Allows(feature Feature) bool {
	switch feature {
	case FeatureGoals:
		return s.CanAccessGoals
	case FeatureSchedule:
		return s.CanAccessSchedule
	case FeatureSessions:
		return s.CanAccessSessions
	case FeatureForms:
		return s.CanAccessForms
	}
	return false
}
