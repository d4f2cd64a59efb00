// CanineKind | 2026
// service_test.go

package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
)

// stubRepository keeps accounts in a map and mimics the mutation semantics
// of the postgres implementation closely enough for service tests.
type stubRepository struct {
	accounts map[string]*Account
}

func newStubRepository() *stubRepository {
	return &stubRepository{accounts: make(map[string]*Account)}
}

func (s *stubRepository) CreateIfAbsent(_ context.Context, acct *Account) (bool, error) {
	if _, ok := s.accounts[acct.ID]; ok {
		return false, nil
	}
	stored := *acct
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	s.accounts[acct.ID] = &stored
	return true, nil
}

func (s *stubRepository) GetByID(_ context.Context, id string) (*Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

func (s *stubRepository) Approve(
	_ context.Context,
	id, approvedBy string,
	settings Settings,
) (*Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	now := time.Now()
	acct.Status = StatusApproved
	acct.Settings = settings
	acct.ApprovedAt = &now
	acct.ApprovedBy = &approvedBy
	acct.UpdatedAt = now
	copied := *acct
	return &copied, nil
}

func (s *stubRepository) Deny(_ context.Context, id string) (*Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	acct.Status = StatusRejected
	acct.UpdatedAt = time.Now()
	copied := *acct
	return &copied, nil
}

func (s *stubRepository) SetRole(_ context.Context, id, role string) (*Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	acct.Role = role
	copied := *acct
	return &copied, nil
}

func (s *stubRepository) SetSettings(
	_ context.Context,
	id string,
	settings Settings,
) (*Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	acct.Settings = settings
	copied := *acct
	return &copied, nil
}

func (s *stubRepository) Delete(_ context.Context, id string) error {
	if _, ok := s.accounts[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *stubRepository) List(
	_ context.Context,
	_ ListAccountsParams,
) ([]Account, int, error) {
	out := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, *acct)
	}
	return out, len(out), nil
}

// recordingObserver captures published events for assertions.
type recordingObserver struct {
	published []events.Event
}

func (r *recordingObserver) Publish(_ context.Context, e events.Event) {
	r.published = append(r.published, e)
}

func newTestService() (*Service, *stubRepository, *recordingObserver) {
	repo := newStubRepository()
	observer := &recordingObserver{}
	return NewService(repo, observer), repo, observer
}

func TestRequestAccessCreatesPendingWithZeroedSettings(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	acct, err := svc.RequestAccess(ctx, "acct-1", "Rex@Example.COM", "Rex Owner")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, acct.Status)
	assert.Equal(t, RoleClient, acct.Role)
	assert.Equal(t, "rex@example.com", acct.Email)
	assert.False(t, acct.Settings.CanAccessGoals)
	assert.False(t, acct.Settings.CanAccessSchedule)
	assert.False(t, acct.Settings.CanAccessSessions)
	assert.False(t, acct.Settings.CanAccessForms)
	assert.Empty(t, acct.Settings.AccessibleLevels)
}

func TestRequestAccessIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	first, err := svc.RequestAccess(ctx, "acct-1", "rex@example.com", "Rex Owner")
	require.NoError(t, err)

	// Approve in between so the second request cannot regress the record.
	_, err = svc.Approve(ctx, "acct-1", "admin-1")
	require.NoError(t, err)

	second, err := svc.RequestAccess(ctx, "acct-1", "other@example.com", "Changed")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, StatusApproved, second.Status)
	assert.Equal(t, "rex@example.com", second.Email)
	assert.Len(t, repo.accounts, 1)
}

func TestRequestAccessRejectsEmptyID(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RequestAccess(context.Background(), "", "rex@example.com", "Rex")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestApproveResetsSettingsToBaseline(t *testing.T) {
	svc, _, observer := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "acct-1", "rex@example.com", "Rex")
	require.NoError(t, err)

	// Settings granted while still pending must not survive approval.
	_, err = svc.SetSettings(ctx, "acct-1", Settings{
		CanAccessGoals:   true,
		CanAccessForms:   true,
		AccessibleLevels: []int{0, 1, 2},
	})
	require.NoError(t, err)

	acct, err := svc.Approve(ctx, "acct-1", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, acct.Status)
	assert.False(t, acct.Settings.CanAccessGoals)
	assert.False(t, acct.Settings.CanAccessForms)
	assert.Empty(t, acct.Settings.AccessibleLevels)
	require.NotNil(t, acct.ApprovedBy)
	assert.Equal(t, "admin-1", *acct.ApprovedBy)
	assert.NotNil(t, acct.ApprovedAt)

	require.Len(t, observer.published, 1)
	assert.Equal(t, events.AccountApproved, observer.published[0].Type)
	assert.Equal(t, "acct-1", observer.published[0].AccountID)
}

func TestDenyPreservesSettings(t *testing.T) {
	svc, _, observer := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "acct-1", "rex@example.com", "Rex")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, "acct-1", "admin-1")
	require.NoError(t, err)

	_, err = svc.SetSettings(ctx, "acct-1", Settings{
		CanAccessGoals:   true,
		AccessibleLevels: []int{0, 1},
	})
	require.NoError(t, err)

	acct, err := svc.Deny(ctx, "acct-1")
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, acct.Status)
	assert.True(t, acct.Settings.CanAccessGoals)
	assert.Equal(t, []int{0, 1}, acct.Settings.AccessibleLevels)

	require.Len(t, observer.published, 2)
	assert.Equal(t, events.AccountDenied, observer.published[1].Type)
}

func TestDenyThenApproveDropsEarlierGrants(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "acct-1", "rex@example.com", "Rex")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, "acct-1", "admin-1")
	require.NoError(t, err)
	_, err = svc.SetSettings(ctx, "acct-1", Settings{
		CanAccessGoals:   true,
		CanAccessForms:   true,
		AccessibleLevels: []int{0, 1, 2},
	})
	require.NoError(t, err)
	_, err = svc.Deny(ctx, "acct-1")
	require.NoError(t, err)

	acct, err := svc.Approve(ctx, "acct-1", "admin-2")
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, acct.Status)
	assert.False(t, acct.Settings.CanAccessGoals)
	assert.False(t, acct.Settings.CanAccessForms)
	assert.Empty(t, acct.Settings.AccessibleLevels)
	require.NotNil(t, acct.ApprovedBy)
	assert.Equal(t, "admin-2", *acct.ApprovedBy)
}

func TestIsAdminRequiresApprovedStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "acct-1", "admin@example.com", "Admin")
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, "acct-1", RoleAdmin)
	require.NoError(t, err)

	// Admin role on a pending account grants nothing.
	isAdmin, err := svc.IsAdmin(ctx, "acct-1")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = svc.Approve(ctx, "acct-1", "root")
	require.NoError(t, err)

	isAdmin, err = svc.IsAdmin(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// Denial flips the live check back to false immediately.
	_, err = svc.Deny(ctx, "acct-1")
	require.NoError(t, err)

	isAdmin, err = svc.IsAdmin(ctx, "acct-1")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestIsAdminUnknownAccountIsFalseNotError(t *testing.T) {
	svc, _, _ := newTestService()

	isAdmin, err := svc.IsAdmin(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestCanAccessRequiresApprovalAndFlag(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "acct-1", "rex@example.com", "Rex")
	require.NoError(t, err)

	// Flag true while pending: still gated off.
	_, err = svc.SetSettings(ctx, "acct-1", Settings{CanAccessGoals: true})
	require.NoError(t, err)

	ok, err := svc.CanAccess(ctx, "acct-1", FeatureGoals)
	require.NoError(t, err)
	assert.False(t, ok)

	// Approval resets flags, so access stays off until granted again.
	_, err = svc.Approve(ctx, "acct-1", "admin-1")
	require.NoError(t, err)

	ok, err = svc.CanAccess(ctx, "acct-1", FeatureGoals)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.SetSettings(ctx, "acct-1", Settings{CanAccessGoals: true})
	require.NoError(t, err)

	ok, err = svc.CanAccess(ctx, "acct-1", FeatureGoals)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccess(ctx, "acct-1", FeatureForms)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "acct-1", "rex@example.com", "Rex")
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, "acct-1", "superuser")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCanDeleteAccount(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestAccess(ctx, "client-1", "c@example.com", "Client")
	require.NoError(t, err)
	_, err = svc.RequestAccess(ctx, "admin-1", "a@example.com", "Admin")
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, "admin-1", RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, "admin-1", "root")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CanDeleteAccount(ctx, "admin-1", "admin-1"), core.ErrForbidden)
	assert.ErrorIs(t, svc.CanDeleteAccount(ctx, "client-1", "admin-1"), core.ErrForbidden)
	assert.NoError(t, svc.CanDeleteAccount(ctx, "admin-1", "client-1"))
}
