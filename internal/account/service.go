// CanineKind | 2026
// service.go

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
)

type Service struct {
	repo     Repository
	observer events.Observer
}

func NewService(repo Repository, observer events.Observer) *Service {
	if observer == nil {
		observer = events.Nop()
	}
	return &Service{repo: repo, observer: observer}
}

// RequestAccess creates the account in pending with zeroed settings. Calling
// it again for an existing id returns the stored record unchanged.
func (s *Service) RequestAccess(
	ctx context.Context,
	id, email, name string,
) (*Account, error) {
	if id == "" {
		return nil, fmt.Errorf("request access: %w", core.ErrInvalidInput)
	}

	acct := &Account{
		ID:       id,
		Email:    strings.ToLower(email),
		Name:     name,
		Role:     RoleClient,
		Status:   StatusPending,
		Settings: DefaultSettings(),
	}

	created, err := s.repo.CreateIfAbsent(ctx, acct)
	if err != nil {
		return nil, err
	}

	if !created {
		return s.repo.GetByID(ctx, id)
	}

	return acct, nil
}

// Approve moves the account to approved and resets settings to the default
// baseline. Permissions granted before a denial do not survive re-approval.
func (s *Service) Approve(
	ctx context.Context,
	id, approvedBy string,
) (*Account, error) {
	acct, err := s.repo.Approve(ctx, id, approvedBy, DefaultSettings())
	if err != nil {
		return nil, err
	}

	s.observer.Publish(ctx, events.Event{
		Type:      events.AccountApproved,
		AccountID: acct.ID,
		Fields:    map[string]any{"approved_by": approvedBy},
	})

	return acct, nil
}

// Deny rejects the account. Settings are intentionally left in place; the
// reset happens only on the next approval.
func (s *Service) Deny(ctx context.Context, id string) (*Account, error) {
	acct, err := s.repo.Deny(ctx, id)
	if err != nil {
		return nil, err
	}

	s.observer.Publish(ctx, events.Event{
		Type:      events.AccountDenied,
		AccountID: acct.ID,
	})

	return acct, nil
}

func (s *Service) SetRole(
	ctx context.Context,
	id, role string,
) (*Account, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"set role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	return s.repo.SetRole(ctx, id, role)
}

func (s *Service) SetSettings(
	ctx context.Context,
	id string,
	settings Settings,
) (*Account, error) {
	if settings.AccessibleLevels == nil {
		settings.AccessibleLevels = []int{}
	}
	return s.repo.SetSettings(ctx, id, settings)
}

// IsAdmin evaluates role AND status from the store on every call; it is
// never answered from cached or token state.
func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return acct.IsAdmin(), nil
}

// CanAccess is the two-layer gate: approved status outside, settings flag
// inside. A true flag on a pending or rejected account grants nothing.
func (s *Service) CanAccess(
	ctx context.Context,
	id string,
	feature Feature,
) (bool, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	return acct.IsApproved() && acct.Settings.Allows(feature), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListAccountsParams,
) ([]Account, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) CanDeleteAccount(
	ctx context.Context,
	requesterID, targetID string,
) error {
	if requesterID == targetID {
		return fmt.Errorf(
			"cannot delete own account: %w",
			core.ErrForbidden,
		)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin accounts: %w", core.ErrForbidden)
	}

	return nil
}
