// CanineKind | 2026
// service.go

package invite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
)

type Service struct {
	repo      Repository
	mailer    Mailer
	observer  events.Observer
	expiry    time.Duration
	portalURL string
}

func NewService(
	repo Repository,
	mailer Mailer,
	observer events.Observer,
	expiry time.Duration,
	portalURL string,
) *Service {
	if observer == nil {
		observer = events.Nop()
	}
	return &Service{
		repo:      repo,
		mailer:    mailer,
		observer:  observer,
		expiry:    expiry,
		portalURL: portalURL,
	}
}

// Create stores the invitation and emails its one-time link. A mail failure
// is recorded in the email log but does not undo the invitation; admins can
// resend from the portal.
func (s *Service) Create(
	ctx context.Context,
	email, name, createdBy string,
) (*Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("create invitation: %w", core.ErrInvalidInput)
	}

	token, err := core.GenerateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	inv := &Invitation{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		TokenHash: core.HashToken(token),
		Status:    StatusPending,
		CreatedBy: createdBy,
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.sendInvitationEmail(ctx, inv, token)

	return inv, nil
}

func (s *Service) sendInvitationEmail(
	ctx context.Context,
	inv *Invitation,
	token string,
) {
	link := fmt.Sprintf("%s/invite?token=%s", s.portalURL, token)
	email := Email{
		To:      inv.Email,
		Subject: "You're invited to the CanineKind client portal",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p>
<p>You've been invited to the CanineKind client portal. Click the link
below to set up your account. The link expires on %s.</p>
<p><a href="%s">Accept your invitation</a></p>`,
			inv.Name,
			inv.ExpiresAt.Format("January 2, 2006"),
			link,
		),
	}

	entry := &EmailLog{
		ID:        uuid.New().String(),
		Recipient: inv.Email,
		Subject:   email.Subject,
	}

	providerID, err := s.mailer.Send(ctx, email)
	if err != nil {
		entry.Status = EmailStatusFailed
		entry.Error = err.Error()
	} else {
		entry.Status = EmailStatusSent
		entry.ProviderID = providerID
	}

	// Log failures are swallowed: the invitation itself already exists.
	_ = s.repo.LogEmail(ctx, entry)
}

// Redeem accepts a pending, unexpired invitation. Expired or unknown
// tokens are indistinguishable to the caller.
func (s *Service) Redeem(
	ctx context.Context,
	token, accountID string,
) (*Invitation, error) {
	inv, err := s.repo.GetByTokenHash(ctx, core.HashToken(token))
	if err != nil {
		return nil, err
	}

	if inv.Status != StatusPending || inv.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("redeem invitation: %w", core.ErrNotFound)
	}

	return s.repo.MarkAccepted(ctx, inv.ID, accountID)
}

func (s *Service) Revoke(ctx context.Context, id string) (*Invitation, error) {
	return s.repo.MarkRevoked(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Invitation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	status string,
) ([]Invitation, error) {
	return s.repo.List(ctx, status)
}

// ExpirePending sweeps overdue pending invitations to expired. Running it
// twice with the same clock flips nothing the second time.
func (s *Service) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, inv := range expired {
		s.observer.Publish(ctx, events.Event{
			Type:      events.InvitationExpired,
			AccountID: inv.CreatedBy,
			Fields:    map[string]any{"invitation_id": inv.ID, "email": inv.Email},
		})
	}

	return len(expired), nil
}
