// CanineKind | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caninekind/portal-api/internal/core"
)

// Repository exposes the account-store capabilities as semantic operations.
// Each mutation is a single statement (or transaction) against the backing
// row, so concurrent admin actions on the same account never interleave
// partial writes.
type Repository interface {
	CreateIfAbsent(ctx context.Context, acct *Account) (bool, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Approve(
		ctx context.Context,
		id, approvedBy string,
		settings Settings,
	) (*Account, error)
	Deny(ctx context.Context, id string) (*Account, error)
	SetRole(ctx context.Context, id, role string) (*Account, error)
	SetSettings(ctx context.Context, id string, settings Settings) (*Account, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListAccountsParams) ([]Account, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const accountColumns = `
		id, email, name, role, status, settings,
		created_at, updated_at, approved_at, approved_by`

func (r *repository) CreateIfAbsent(
	ctx context.Context,
	acct *Account,
) (bool, error) {
	query := `
		INSERT INTO accounts (id, email, name, role, status, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		acct.ID,
		acct.Email,
		acct.Name,
		acct.Role,
		acct.Status,
		acct.Settings,
	).Scan(&acct.CreatedAt, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Row already existed; prior data is left untouched.
		return false, nil
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("create account: %w", core.StoreError(err))
	}

	return true, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	var acct Account
	err := r.db.GetContext(ctx, &acct, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", core.StoreError(err))
	}

	return &acct, nil
}

// Approve is the one place default settings are reasserted: status, stamps
// and the settings reset land in a single atomic write.
func (r *repository) Approve(
	ctx context.Context,
	id, approvedBy string,
	settings Settings,
) (*Account, error) {
	query := `
		UPDATE accounts
		SET status = $2, settings = $3, approved_at = $4, approved_by = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	var acct Account
	err := r.db.GetContext(ctx, &acct, query,
		id,
		StatusApproved,
		settings,
		time.Now().UTC(),
		approvedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("approve account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("approve account: %w", core.StoreError(err))
	}

	return &acct, nil
}

func (r *repository) Deny(ctx context.Context, id string) (*Account, error) {
	query := `
		UPDATE accounts
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	var acct Account
	err := r.db.GetContext(ctx, &acct, query, id, StatusRejected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deny account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("deny account: %w", core.StoreError(err))
	}

	return &acct, nil
}

func (r *repository) SetRole(
	ctx context.Context,
	id, role string,
) (*Account, error) {
	query := `
		UPDATE accounts
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	var acct Account
	err := r.db.GetContext(ctx, &acct, query, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set role: %w", core.StoreError(err))
	}

	return &acct, nil
}

func (r *repository) SetSettings(
	ctx context.Context,
	id string,
	settings Settings,
) (*Account, error) {
	query := `
		UPDATE accounts
		SET settings = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	var acct Account
	err := r.db.GetContext(ctx, &acct, query, id, settings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set settings: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set settings: %w", core.StoreError(err))
	}

	return &acct, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", core.StoreError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", core.StoreError(err))
	}

	if rows == 0 {
		return fmt.Errorf("delete account: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListAccountsParams,
) ([]Account, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM accounts WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", core.StoreError(err))
	}

	query := fmt.Sprintf(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", core.StoreError(err))
	}

	return accounts, total, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
