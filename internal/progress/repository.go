// CanineKind | 2026
// repository.go

package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/caninekind/portal-api/internal/catalog"
	"github.com/caninekind/portal-api/internal/core"
)

type Repository interface {
	Get(ctx context.Context, accountID, goalID string) (*Record, error)
	ListByAccount(ctx context.Context, accountID string) ([]Record, error)
	// Update runs fn against the current record (a fresh not-started record
	// when none exists) and persists the result, all under one transaction
	// with the row locked.
	Update(
		ctx context.Context,
		accountID, goalID string,
		fn func(*Record) error,
	) (*Record, error)
}

type repository struct {
	db *core.Database
}

func NewRepository(db *core.Database) Repository {
	return &repository{db: db}
}

const recordColumns = `
		account_id, goal_id, status, completed_task_ids, completed_at, updated_at`

func (r *repository) Get(
	ctx context.Context,
	accountID, goalID string,
) (*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM goal_progress
		WHERE account_id = $1 AND goal_id = $2`

	var rec Record
	err := r.db.DB.GetContext(ctx, &rec, query, accountID, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get progress: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", core.StoreError(err))
	}

	return &rec, nil
}

func (r *repository) ListByAccount(
	ctx context.Context,
	accountID string,
) ([]Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM goal_progress
		WHERE account_id = $1`

	var records []Record
	if err := r.db.DB.SelectContext(ctx, &records, query, accountID); err != nil {
		return nil, fmt.Errorf("list progress: %w", core.StoreError(err))
	}

	return records, nil
}

func (r *repository) Update(
	ctx context.Context,
	accountID, goalID string,
	fn func(*Record) error,
) (*Record, error) {
	var out *Record

	err := core.InTx(ctx, r.db.DB, func(tx *sqlx.Tx) error {
		query := `
			SELECT ` + recordColumns + `
			FROM goal_progress
			WHERE account_id = $1 AND goal_id = $2
			FOR UPDATE`

		rec := Record{
			AccountID:        accountID,
			GoalID:           goalID,
			Status:           StatusNotStarted,
			CompletedTaskIDs: catalog.StringList{},
		}
		err := tx.GetContext(ctx, &rec, query, accountID, goalID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lock progress: %w", core.StoreError(err))
		}

		if err := fn(&rec); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now().UTC()

		upsert := `
			INSERT INTO goal_progress (
				account_id, goal_id, status, completed_task_ids,
				completed_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (account_id, goal_id) DO UPDATE
			SET status = EXCLUDED.status,
			    completed_task_ids = EXCLUDED.completed_task_ids,
			    completed_at = EXCLUDED.completed_at,
			    updated_at = EXCLUDED.updated_at`

		if _, err := tx.ExecContext(ctx, upsert,
			rec.AccountID,
			rec.GoalID,
			rec.Status,
			rec.CompletedTaskIDs,
			rec.CompletedAt,
			rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("save progress: %w", core.StoreError(err))
		}

		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
