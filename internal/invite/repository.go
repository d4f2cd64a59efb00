// CanineKind | 2026
// repository.go

package invite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caninekind/portal-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByTokenHash(ctx context.Context, hash string) (*Invitation, error)
	GetByID(ctx context.Context, id string) (*Invitation, error)
	List(ctx context.Context, status string) ([]Invitation, error)
	MarkAccepted(ctx context.Context, id, accountID string) (*Invitation, error)
	MarkRevoked(ctx context.Context, id string) (*Invitation, error)
	// ExpireOverdue flips pending invitations past their deadline to
	// expired and returns the flipped rows.
	ExpireOverdue(ctx context.Context, now time.Time) ([]Invitation, error)
	LogEmail(ctx context.Context, entry *EmailLog) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const invitationColumns = `
		id, email, name, token_hash, status, created_by, created_at,
		expires_at, accepted_by, accepted_at`

func (r *repository) Create(ctx context.Context, inv *Invitation) error {
	query := `
		INSERT INTO invitations (
			id, email, name, token_hash, status, created_by, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		inv.ID,
		inv.Email,
		inv.Name,
		inv.TokenHash,
		inv.Status,
		inv.CreatedBy,
		inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("create invitation: %w", core.StoreError(err))
	}

	return nil
}

func (r *repository) GetByTokenHash(
	ctx context.Context,
	hash string,
) (*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE token_hash = $1`

	var inv Invitation
	err := r.db.GetContext(ctx, &inv, query, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", core.StoreError(err))
	}

	return &inv, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE id = $1`

	var inv Invitation
	err := r.db.GetContext(ctx, &inv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", core.StoreError(err))
	}

	return &inv, nil
}

func (r *repository) List(
	ctx context.Context,
	status string,
) ([]Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations`
	var args []any
	if status != "" {
		query += `
		WHERE status = $1`
		args = append(args, status)
	}
	query += `
		ORDER BY created_at DESC`

	var invitations []Invitation
	if err := r.db.SelectContext(ctx, &invitations, query, args...); err != nil {
		return nil, fmt.Errorf("list invitations: %w", core.StoreError(err))
	}

	return invitations, nil
}

func (r *repository) MarkAccepted(
	ctx context.Context,
	id, accountID string,
) (*Invitation, error) {
	query := `
		UPDATE invitations
		SET status = $2, accepted_by = $3, accepted_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + invitationColumns

	var inv Invitation
	err := r.db.GetContext(ctx, &inv, query,
		id, StatusAccepted, accountID, StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("accept invitation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("accept invitation: %w", core.StoreError(err))
	}

	return &inv, nil
}

func (r *repository) MarkRevoked(
	ctx context.Context,
	id string,
) (*Invitation, error) {
	query := `
		UPDATE invitations
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING ` + invitationColumns

	var inv Invitation
	err := r.db.GetContext(ctx, &inv, query, id, StatusRevoked, StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revoke invitation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revoke invitation: %w", core.StoreError(err))
	}

	return &inv, nil
}

func (r *repository) ExpireOverdue(
	ctx context.Context,
	now time.Time,
) ([]Invitation, error) {
	query := `
		UPDATE invitations
		SET status = $1
		WHERE status = $2 AND expires_at < $3
		RETURNING ` + invitationColumns

	var expired []Invitation
	err := r.db.SelectContext(ctx, &expired, query,
		StatusExpired, StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("expire invitations: %w", core.StoreError(err))
	}

	return expired, nil
}

func (r *repository) LogEmail(ctx context.Context, entry *EmailLog) error {
	query := `
		INSERT INTO email_log (id, recipient, subject, status, provider_id, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.Recipient,
		entry.Subject,
		entry.Status,
		entry.ProviderID,
		entry.Error,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("log email: %w", core.StoreError(err))
	}

	return nil
}
