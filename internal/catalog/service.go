// CanineKind | 2026
// service.go

package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caninekind/portal-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateGoal(
	ctx context.Context,
	goal *Goal,
	createdBy string,
) (*Goal, error) {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if goal.Type == "" {
		goal.Type = GoalTypeSingle
	}
	if !ValidGoalType(goal.Type) {
		return nil, fmt.Errorf(
			"create goal: invalid type %q: %w",
			goal.Type,
			core.ErrInvalidInput,
		)
	}

	goal.Active = true
	goal.CreatedBy = createdBy
	normalizeGoal(goal)

	if err := s.validatePrerequisites(ctx, goal.ID, goal.Prerequisites); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	if err := s.repo.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *Service) UpdateGoal(ctx context.Context, goal *Goal) (*Goal, error) {
	if !ValidGoalType(goal.Type) {
		return nil, fmt.Errorf(
			"update goal: invalid type %q: %w",
			goal.Type,
			core.ErrInvalidInput,
		)
	}

	normalizeGoal(goal)

	if err := s.validatePrerequisites(ctx, goal.ID, goal.Prerequisites); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	return s.repo.UpdateGoal(ctx, goal)
}

func (s *Service) DeactivateGoal(ctx context.Context, id string) (*Goal, error) {
	return s.repo.SetGoalActive(ctx, id, false)
}

func (s *Service) ActivateGoal(ctx context.Context, id string) (*Goal, error) {
	return s.repo.SetGoalActive(ctx, id, true)
}

func (s *Service) GetGoal(ctx context.Context, id string) (*Goal, error) {
	return s.repo.GetGoal(ctx, id)
}

func (s *Service) ListGoals(
	ctx context.Context,
	activeOnly bool,
) ([]Goal, error) {
	return s.repo.ListGoals(ctx, activeOnly)
}

func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	return s.repo.DeleteGoal(ctx, id)
}

// UpsertLevel enforces the chain shape: level 0 has no previous level, every
// other level names exactly the level below it.
func (s *Service) UpsertLevel(ctx context.Context, level *Level) error {
	prev := level.UnlockCriteria.PreviousLevel
	switch {
	case level.Level < 0:
		return fmt.Errorf(
			"upsert level: negative level: %w",
			core.ErrInvalidInput,
		)
	case level.Level == 0 && prev != nil:
		return fmt.Errorf(
			"upsert level: level 0 cannot have a previous level: %w",
			core.ErrInvalidInput,
		)
	case level.Level > 0 && (prev == nil || *prev != level.Level-1):
		return fmt.Errorf(
			"upsert level: level %d must chain from level %d: %w",
			level.Level,
			level.Level-1,
			core.ErrInvalidInput,
		)
	}

	if level.UnlockCriteria.MinGoalsCompleted < 0 {
		return fmt.Errorf(
			"upsert level: negative goal requirement: %w",
			core.ErrInvalidInput,
		)
	}

	if level.RequiredGoals == nil {
		level.RequiredGoals = StringList{}
	}

	return s.repo.UpsertLevel(ctx, level)
}

func (s *Service) GetLevel(ctx context.Context, level int) (*Level, error) {
	return s.repo.GetLevel(ctx, level)
}

func (s *Service) ListLevels(ctx context.Context) ([]Level, error) {
	return s.repo.ListLevels(ctx)
}

// validatePrerequisites rejects references to unknown goals and any
// prerequisite set that would make goalID reachable from itself.
func (s *Service) validatePrerequisites(
	ctx context.Context,
	goalID string,
	prereqs []string,
) error {
	if len(prereqs) == 0 {
		return nil
	}

	// Inactive goals stay in the graph: deactivation suspends unlock math,
	// it does not license cycles.
	existing, err := s.repo.ListGoals(ctx, false)
	if err != nil {
		return err
	}

	edges := make(map[string][]string, len(existing))
	for _, g := range existing {
		edges[g.ID] = g.Prerequisites
	}

	for _, p := range prereqs {
		if p == goalID {
			return fmt.Errorf(
				"goal %s cannot require itself: %w",
				goalID,
				core.ErrCycleRejected,
			)
		}
		if _, ok := edges[p]; !ok {
			return fmt.Errorf(
				"unknown prerequisite %s: %w",
				p,
				core.ErrNotFound,
			)
		}
	}

	// The proposed edges replace whatever the goal had before.
	edges[goalID] = prereqs

	if reachable(edges, prereqs, goalID) {
		return fmt.Errorf(
			"prerequisites of goal %s form a cycle: %w",
			goalID,
			core.ErrCycleRejected,
		)
	}

	return nil
}

// reachable reports whether target can be reached from any of the start
// nodes by following prerequisite edges.
func reachable(edges map[string][]string, start []string, target string) bool {
	seen := make(map[string]bool, len(edges))
	stack := append([]string(nil), start...)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node == target {
			return true
		}
		if seen[node] {
			continue
		}
		seen[node] = true

		stack = append(stack, edges[node]...)
	}

	return false
}

func normalizeGoal(goal *Goal) {
	if goal.Tasks == nil {
		goal.Tasks = TaskList{}
	}
	if goal.Prerequisites == nil {
		goal.Prerequisites = StringList{}
	}
	if goal.RelatedGoals == nil {
		goal.RelatedGoals = StringList{}
	}
	if goal.Type == GoalTypeSingle {
		goal.Tasks = TaskList{}
	}
	for i := range goal.Tasks {
		if goal.Tasks[i].ID == "" {
			goal.Tasks[i].ID = uuid.New().String()
		}
	}
}
