// CanineKind | 2026
// repository.go

package forms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caninekind/portal-api/internal/core"
)

type Repository interface {
	Assign(ctx context.Context, obligation *Obligation) error
	Unassign(ctx context.Context, accountID, formID string) error
	ListObligations(ctx context.Context, accountID string) ([]Obligation, error)
	GetObligation(ctx context.Context, accountID, formID string) (*Obligation, error)
	// SaveSignature keeps the first signature for an account and form;
	// later attempts return the stored row unchanged.
	SaveSignature(ctx context.Context, sig *Signature) (*Signature, error)
	ListSignatures(ctx context.Context, accountID string) ([]Signature, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Assign(ctx context.Context, obligation *Obligation) error {
	query := `
		INSERT INTO form_obligations (
			account_id, form_id, assigned_by, sort_order
		)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, form_id) DO UPDATE
		SET assigned_by = EXCLUDED.assigned_by,
		    sort_order = EXCLUDED.sort_order
		RETURNING assigned_at`

	err := r.db.QueryRowxContext(ctx, query,
		obligation.AccountID,
		obligation.FormID,
		obligation.AssignedBy,
		obligation.Order,
	).Scan(&obligation.AssignedAt)
	if err != nil {
		return fmt.Errorf("assign form: %w", core.StoreError(err))
	}

	return nil
}

func (r *repository) Unassign(ctx context.Context, accountID, formID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM form_obligations WHERE account_id = $1 AND form_id = $2`,
		accountID, formID)
	if err != nil {
		return fmt.Errorf("unassign form: %w", core.StoreError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unassign form: %w", core.StoreError(err))
	}

	if rows == 0 {
		return fmt.Errorf("unassign form: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListObligations(
	ctx context.Context,
	accountID string,
) ([]Obligation, error) {
	query := `
		SELECT account_id, form_id, assigned_at, assigned_by, sort_order
		FROM form_obligations
		WHERE account_id = $1
		ORDER BY sort_order, form_id`

	var obligations []Obligation
	if err := r.db.SelectContext(ctx, &obligations, query, accountID); err != nil {
		return nil, fmt.Errorf("list obligations: %w", core.StoreError(err))
	}

	return obligations, nil
}

func (r *repository) GetObligation(
	ctx context.Context,
	accountID, formID string,
) (*Obligation, error) {
	query := `
		SELECT account_id, form_id, assigned_at, assigned_by, sort_order
		FROM form_obligations
		WHERE account_id = $1 AND form_id = $2`

	var obligation Obligation
	err := r.db.GetContext(ctx, &obligation, query, accountID, formID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get obligation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get obligation: %w", core.StoreError(err))
	}

	return &obligation, nil
}

func (r *repository) SaveSignature(
	ctx context.Context,
	sig *Signature,
) (*Signature, error) {
	query := `
		INSERT INTO form_signatures (
			account_id, form_id, signer_name, artifact_ref
		)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, form_id) DO NOTHING
		RETURNING account_id, form_id, signer_name, signed_at, artifact_ref`

	var saved Signature
	err := r.db.GetContext(ctx, &saved, query,
		sig.AccountID,
		sig.FormID,
		sig.SignerName,
		sig.ArtifactRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Already signed; the first signature wins.
		return r.getSignature(ctx, sig.AccountID, sig.FormID)
	}
	if err != nil {
		return nil, fmt.Errorf("save signature: %w", core.StoreError(err))
	}

	return &saved, nil
}

func (r *repository) getSignature(
	ctx context.Context,
	accountID, formID string,
) (*Signature, error) {
	query := `
		SELECT account_id, form_id, signer_name, signed_at, artifact_ref
		FROM form_signatures
		WHERE account_id = $1 AND form_id = $2`

	var sig Signature
	err := r.db.GetContext(ctx, &sig, query, accountID, formID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get signature: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get signature: %w", core.StoreError(err))
	}

	return &sig, nil
}

func (r *repository) ListSignatures(
	ctx context.Context,
	accountID string,
) ([]Signature, error) {
	query := `
		SELECT account_id, form_id, signer_name, signed_at, artifact_ref
		FROM form_signatures
		WHERE account_id = $1`

	var sigs []Signature
	if err := r.db.SelectContext(ctx, &sigs, query, accountID); err != nil {
		return nil, fmt.Errorf("list signatures: %w", core.StoreError(err))
	}

	return sigs, nil
}
