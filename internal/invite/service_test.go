// CanineKind | 2026
// service_test.go

package invite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
)

type stubRepository struct {
	invitations map[string]*Invitation
	emailLog    []EmailLog
}

func newStubRepository() *stubRepository {
	return &stubRepository{invitations: make(map[string]*Invitation)}
}

func (s *stubRepository) Create(_ context.Context, inv *Invitation) error {
	inv.CreatedAt = time.Now()
	stored := *inv
	s.invitations[inv.ID] = &stored
	return nil
}

func (s *stubRepository) GetByTokenHash(
	_ context.Context,
	hash string,
) (*Invitation, error) {
	for _, inv := range s.invitations {
		if inv.TokenHash == hash {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *stubRepository) GetByID(_ context.Context, id string) (*Invitation, error) {
	inv, ok := s.invitations[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (s *stubRepository) List(_ context.Context, status string) ([]Invitation, error) {
	var out []Invitation
	for _, inv := range s.invitations {
		if status == "" || inv.Status == status {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (s *stubRepository) MarkAccepted(
	_ context.Context,
	id, accountID string,
) (*Invitation, error) {
	inv, ok := s.invitations[id]
	if !ok || inv.Status != StatusPending {
		return nil, core.ErrNotFound
	}
	now := time.Now()
	inv.Status = StatusAccepted
	inv.AcceptedBy = &accountID
	inv.AcceptedAt = &now
	copied := *inv
	return &copied, nil
}

func (s *stubRepository) MarkRevoked(_ context.Context, id string) (*Invitation, error) {
	inv, ok := s.invitations[id]
	if !ok || inv.Status != StatusPending {
		return nil, core.ErrNotFound
	}
	inv.Status = StatusRevoked
	copied := *inv
	return &copied, nil
}

func (s *stubRepository) ExpireOverdue(
	_ context.Context,
	now time.Time,
) ([]Invitation, error) {
	var expired []Invitation
	for _, inv := range s.invitations {
		if inv.Status == StatusPending && now.After(inv.ExpiresAt) {
			inv.Status = StatusExpired
			expired = append(expired, *inv)
		}
	}
	return expired, nil
}

func (s *stubRepository) LogEmail(_ context.Context, entry *EmailLog) error {
	entry.CreatedAt = time.Now()
	s.emailLog = append(s.emailLog, *entry)
	return nil
}

type stubMailer struct {
	sent []Email
	err  error
}

func (m *stubMailer) Send(_ context.Context, email Email) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, email)
	return "msg-1", nil
}

type recordingObserver struct {
	published []events.Event
}

func (r *recordingObserver) Publish(_ context.Context, e events.Event) {
	r.published = append(r.published, e)
}

const testExpiry = 7 * 24 * time.Hour

func newTestService(mailer *stubMailer) (*Service, *stubRepository, *recordingObserver) {
	repo := newStubRepository()
	observer := &recordingObserver{}
	svc := NewService(repo, mailer, observer, testExpiry, "https://portal.example.com")
	return svc, repo, observer
}

// tokenFor digs the raw token out of the email link so tests can redeem it.
func tokenFor(t *testing.T, mailer *stubMailer) string {
	t.Helper()
	require.NotEmpty(t, mailer.sent)
	body := mailer.sent[len(mailer.sent)-1].HTML
	marker := "token="
	idx := 0
	for i := 0; i+len(marker) <= len(body); i++ {
		if body[i:i+len(marker)] == marker {
			idx = i + len(marker)
			break
		}
	}
	require.NotZero(t, idx)
	end := idx
	for end < len(body) && body[end] != '"' {
		end++
	}
	return body[idx:end]
}

func TestCreateSendsEmailAndLogs(t *testing.T) {
	mailer := &stubMailer{}
	svc, repo, _ := newTestService(mailer)

	inv, err := svc.Create(context.Background(), " Pat@Example.com ", "Pat", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "pat@example.com", inv.Email)
	assert.Equal(t, StatusPending, inv.Status)
	assert.NotEmpty(t, inv.TokenHash)
	assert.WithinDuration(t, time.Now().Add(testExpiry), inv.ExpiresAt, time.Minute)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "pat@example.com", mailer.sent[0].To)

	require.Len(t, repo.emailLog, 1)
	assert.Equal(t, EmailStatusSent, repo.emailLog[0].Status)
	assert.Equal(t, "msg-1", repo.emailLog[0].ProviderID)
}

func TestCreateSurvivesMailFailure(t *testing.T) {
	mailer := &stubMailer{err: errors.New("provider down")}
	svc, repo, _ := newTestService(mailer)

	inv, err := svc.Create(context.Background(), "pat@example.com", "Pat", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, inv.Status)
	require.Len(t, repo.emailLog, 1)
	assert.Equal(t, EmailStatusFailed, repo.emailLog[0].Status)
	assert.Contains(t, repo.emailLog[0].Error, "provider down")
}

func TestRedeemAcceptsPendingInvitation(t *testing.T) {
	mailer := &stubMailer{}
	svc, _, _ := newTestService(mailer)
	ctx := context.Background()

	_, err := svc.Create(ctx, "pat@example.com", "Pat", "admin-1")
	require.NoError(t, err)

	inv, err := svc.Redeem(ctx, tokenFor(t, mailer), "acct-1")
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, inv.Status)
	require.NotNil(t, inv.AcceptedBy)
	assert.Equal(t, "acct-1", *inv.AcceptedBy)
	assert.NotNil(t, inv.AcceptedAt)

	// A redeemed token cannot be redeemed again.
	_, err = svc.Redeem(ctx, tokenFor(t, mailer), "acct-2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRedeemRejectsUnknownAndExpiredTokens(t *testing.T) {
	mailer := &stubMailer{}
	svc, repo, _ := newTestService(mailer)
	ctx := context.Background()

	_, err := svc.Redeem(ctx, "no-such-token", "acct-1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	created, err := svc.Create(ctx, "pat@example.com", "Pat", "admin-1")
	require.NoError(t, err)

	// Push the deadline into the past.
	repo.invitations[created.ID].ExpiresAt = time.Now().Add(-time.Hour)

	_, err = svc.Redeem(ctx, tokenFor(t, mailer), "acct-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRevoke(t *testing.T) {
	mailer := &stubMailer{}
	svc, _, _ := newTestService(mailer)
	ctx := context.Background()

	created, err := svc.Create(ctx, "pat@example.com", "Pat", "admin-1")
	require.NoError(t, err)

	inv, err := svc.Revoke(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRevoked, inv.Status)

	_, err = svc.Redeem(ctx, tokenFor(t, mailer), "acct-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpirePendingIsIdempotent(t *testing.T) {
	mailer := &stubMailer{}
	svc, repo, observer := newTestService(mailer)
	ctx := context.Background()

	fresh, err := svc.Create(ctx, "fresh@example.com", "Fresh", "admin-1")
	require.NoError(t, err)
	overdue, err := svc.Create(ctx, "overdue@example.com", "Overdue", "admin-1")
	require.NoError(t, err)

	repo.invitations[overdue.ID].ExpiresAt = time.Now().Add(-time.Hour)

	now := time.Now().UTC()
	count, err := svc.ExpirePending(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, observer.published, 1)
	assert.Equal(t, events.InvitationExpired, observer.published[0].Type)
	assert.Equal(t, overdue.ID, observer.published[0].Fields["invitation_id"])

	// Second sweep with the same clock flips nothing.
	count, err = svc.ExpirePending(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	kept, err := svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, kept.Status)
}
