// CanineKind | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caninekind/portal-api/internal/core"
)

type Repository interface {
	CreateGoal(ctx context.Context, goal *Goal) error
	UpdateGoal(ctx context.Context, goal *Goal) (*Goal, error)
	SetGoalActive(ctx context.Context, id string, active bool) (*Goal, error)
	GetGoal(ctx context.Context, id string) (*Goal, error)
	ListGoals(ctx context.Context, activeOnly bool) ([]Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	UpsertLevel(ctx context.Context, level *Level) error
	GetLevel(ctx context.Context, level int) (*Level, error)
	ListLevels(ctx context.Context) ([]Level, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const goalColumns = `
		id, title, description, level, sort_order, goal_type, tasks,
		prerequisites, related_goals, category, active, created_at, created_by`

func (r *repository) CreateGoal(ctx context.Context, goal *Goal) error {
	query := `
		INSERT INTO goals (
			id, title, description, level, sort_order, goal_type, tasks,
			prerequisites, related_goals, category, active, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		goal.ID,
		goal.Title,
		goal.Description,
		goal.Level,
		goal.Order,
		goal.Type,
		goal.Tasks,
		goal.Prerequisites,
		goal.RelatedGoals,
		goal.Category,
		goal.Active,
		goal.CreatedBy,
	).Scan(&goal.CreatedAt)
	if err != nil {
		return fmt.Errorf("create goal: %w", core.StoreError(err))
	}

	return nil
}

func (r *repository) UpdateGoal(ctx context.Context, goal *Goal) (*Goal, error) {
	query := `
		UPDATE goals
		SET title = $2, description = $3, level = $4, sort_order = $5,
		    goal_type = $6, tasks = $7, prerequisites = $8, related_goals = $9,
		    category = $10
		WHERE id = $1
		RETURNING ` + goalColumns

	var updated Goal
	err := r.db.GetContext(ctx, &updated, query,
		goal.ID,
		goal.Title,
		goal.Description,
		goal.Level,
		goal.Order,
		goal.Type,
		goal.Tasks,
		goal.Prerequisites,
		goal.RelatedGoals,
		goal.Category,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update goal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", core.StoreError(err))
	}

	return &updated, nil
}

func (r *repository) SetGoalActive(
	ctx context.Context,
	id string,
	active bool,
) (*Goal, error) {
	query := `
		UPDATE goals
		SET active = $2
		WHERE id = $1
		RETURNING ` + goalColumns

	var goal Goal
	err := r.db.GetContext(ctx, &goal, query, id, active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set goal active: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set goal active: %w", core.StoreError(err))
	}

	return &goal, nil
}

func (r *repository) GetGoal(ctx context.Context, id string) (*Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE id = $1`

	var goal Goal
	err := r.db.GetContext(ctx, &goal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get goal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", core.StoreError(err))
	}

	return &goal, nil
}

func (r *repository) ListGoals(
	ctx context.Context,
	activeOnly bool,
) ([]Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals`
	if activeOnly {
		query += `
		WHERE active`
	}
	query += `
		ORDER BY level, sort_order, id`

	var goals []Goal
	if err := r.db.SelectContext(ctx, &goals, query); err != nil {
		return nil, fmt.Errorf("list goals: %w", core.StoreError(err))
	}

	return goals, nil
}

func (r *repository) DeleteGoal(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", core.StoreError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal: %w", core.StoreError(err))
	}

	if rows == 0 {
		return fmt.Errorf("delete goal: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpsertLevel(ctx context.Context, level *Level) error {
	query := `
		INSERT INTO levels (
			level, name, description, required_goals, unlock_criteria,
			sort_order, color, icon
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (level) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    required_goals = EXCLUDED.required_goals,
		    unlock_criteria = EXCLUDED.unlock_criteria,
		    sort_order = EXCLUDED.sort_order,
		    color = EXCLUDED.color,
		    icon = EXCLUDED.icon`

	_, err := r.db.ExecContext(ctx, query,
		level.Level,
		level.Name,
		level.Description,
		level.RequiredGoals,
		level.UnlockCriteria,
		level.Order,
		level.Color,
		level.Icon,
	)
	if err != nil {
		return fmt.Errorf("upsert level: %w", core.StoreError(err))
	}

	return nil
}

func (r *repository) GetLevel(ctx context.Context, level int) (*Level, error) {
	query := `
		SELECT level, name, description, required_goals, unlock_criteria,
		       sort_order, color, icon
		FROM levels
		WHERE level = $1`

	var lvl Level
	err := r.db.GetContext(ctx, &lvl, query, level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get level: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get level: %w", core.StoreError(err))
	}

	return &lvl, nil
}

func (r *repository) ListLevels(ctx context.Context) ([]Level, error) {
	query := `
		SELECT level, name, description, required_goals, unlock_criteria,
		       sort_order, color, icon
		FROM levels
		ORDER BY level`

	var levels []Level
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list levels: %w", core.StoreError(err))
	}

	return levels, nil
}
