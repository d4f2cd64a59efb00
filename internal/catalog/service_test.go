// CanineKind | 2026
// service_test.go

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninekind/portal-api/internal/core"
)

type stubRepository struct {
	goals  map[string]*Goal
	levels map[int]*Level
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		goals:  make(map[string]*Goal),
		levels: make(map[int]*Level),
	}
}

func (s *stubRepository) CreateGoal(_ context.Context, goal *Goal) error {
	goal.CreatedAt = time.Now()
	stored := *goal
	s.goals[goal.ID] = &stored
	return nil
}

func (s *stubRepository) UpdateGoal(_ context.Context, goal *Goal) (*Goal, error) {
	existing, ok := s.goals[goal.ID]
	if !ok {
		return nil, core.ErrNotFound
	}
	goal.Active = existing.Active
	goal.CreatedAt = existing.CreatedAt
	goal.CreatedBy = existing.CreatedBy
	stored := *goal
	s.goals[goal.ID] = &stored
	copied := stored
	return &copied, nil
}

func (s *stubRepository) SetGoalActive(
	_ context.Context,
	id string,
	active bool,
) (*Goal, error) {
	goal, ok := s.goals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	goal.Active = active
	copied := *goal
	return &copied, nil
}

func (s *stubRepository) GetGoal(_ context.Context, id string) (*Goal, error) {
	goal, ok := s.goals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *goal
	return &copied, nil
}

func (s *stubRepository) ListGoals(_ context.Context, activeOnly bool) ([]Goal, error) {
	out := make([]Goal, 0, len(s.goals))
	for _, goal := range s.goals {
		if activeOnly && !goal.Active {
			continue
		}
		out = append(out, *goal)
	}
	return out, nil
}

func (s *stubRepository) DeleteGoal(_ context.Context, id string) error {
	if _, ok := s.goals[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *stubRepository) UpsertLevel(_ context.Context, level *Level) error {
	stored := *level
	s.levels[level.Level] = &stored
	return nil
}

func (s *stubRepository) GetLevel(_ context.Context, level int) (*Level, error) {
	lvl, ok := s.levels[level]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *lvl
	return &copied, nil
}

func (s *stubRepository) ListLevels(_ context.Context) ([]Level, error) {
	out := make([]Level, 0, len(s.levels))
	for _, lvl := range s.levels {
		out = append(out, *lvl)
	}
	return out, nil
}

func seedGoal(t *testing.T, svc *Service, id string, prereqs ...string) *Goal {
	t.Helper()
	goal, err := svc.CreateGoal(context.Background(), &Goal{
		ID:            id,
		Title:         id,
		Prerequisites: StringList(prereqs),
	}, "trainer-1")
	require.NoError(t, err)
	return goal
}

func TestCreateGoalDefaults(t *testing.T) {
	svc := NewService(newStubRepository())

	goal, err := svc.CreateGoal(context.Background(), &Goal{
		Title: "Loose-leash walking",
		Level: 1,
	}, "trainer-1")
	require.NoError(t, err)

	assert.NotEmpty(t, goal.ID)
	assert.Equal(t, GoalTypeSingle, goal.Type)
	assert.True(t, goal.Active)
	assert.Equal(t, "trainer-1", goal.CreatedBy)
	assert.NotNil(t, goal.Prerequisites)
	assert.NotNil(t, goal.Tasks)
}

func TestCreateGoalAssignsTaskIDs(t *testing.T) {
	svc := NewService(newStubRepository())

	goal, err := svc.CreateGoal(context.Background(), &Goal{
		Title: "Recall",
		Type:  GoalTypeTasks,
		Tasks: TaskList{
			{Title: "Recall indoors", Order: 0},
			{Title: "Recall with distractions", Order: 1},
		},
	}, "trainer-1")
	require.NoError(t, err)

	require.Len(t, goal.Tasks, 2)
	assert.NotEmpty(t, goal.Tasks[0].ID)
	assert.NotEmpty(t, goal.Tasks[1].ID)
	assert.NotEqual(t, goal.Tasks[0].ID, goal.Tasks[1].ID)
}

func TestCreateGoalRejectsSelfReference(t *testing.T) {
	svc := NewService(newStubRepository())

	_, err := svc.CreateGoal(context.Background(), &Goal{
		ID:            "sit",
		Title:         "Sit",
		Prerequisites: StringList{"sit"},
	}, "trainer-1")

	assert.ErrorIs(t, err, core.ErrCycleRejected)
}

func TestCreateGoalRejectsUnknownPrerequisite(t *testing.T) {
	svc := NewService(newStubRepository())

	_, err := svc.CreateGoal(context.Background(), &Goal{
		ID:            "stay",
		Title:         "Stay",
		Prerequisites: StringList{"missing"},
	}, "trainer-1")

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateGoalRejectsCycle(t *testing.T) {
	svc := NewService(newStubRepository())

	seedGoal(t, svc, "sit")
	seedGoal(t, svc, "stay", "sit")
	seedGoal(t, svc, "settle", "stay")

	// sit -> settle would close the loop sit -> settle -> stay -> sit.
	_, err := svc.UpdateGoal(context.Background(), &Goal{
		ID:            "sit",
		Title:         "Sit",
		Type:          GoalTypeSingle,
		Prerequisites: StringList{"settle"},
	})

	assert.ErrorIs(t, err, core.ErrCycleRejected)
}

func TestUpdateGoalAllowsDiamondDependency(t *testing.T) {
	svc := NewService(newStubRepository())

	seedGoal(t, svc, "focus")
	seedGoal(t, svc, "sit", "focus")
	seedGoal(t, svc, "down", "focus")

	// Shared ancestors are fine; only true cycles are rejected.
	goal, err := svc.CreateGoal(context.Background(), &Goal{
		ID:            "settle",
		Title:         "Settle",
		Prerequisites: StringList{"sit", "down"},
	}, "trainer-1")
	require.NoError(t, err)

	assert.Equal(t, StringList{"sit", "down"}, goal.Prerequisites)
}

func TestCycleCheckIncludesInactiveGoals(t *testing.T) {
	svc := NewService(newStubRepository())

	seedGoal(t, svc, "sit")
	seedGoal(t, svc, "stay", "sit")

	_, err := svc.DeactivateGoal(context.Background(), "stay")
	require.NoError(t, err)

	// Deactivating stay does not remove its edge to sit.
	_, err = svc.UpdateGoal(context.Background(), &Goal{
		ID:            "sit",
		Title:         "Sit",
		Type:          GoalTypeSingle,
		Prerequisites: StringList{"stay"},
	})

	assert.ErrorIs(t, err, core.ErrCycleRejected)
}

func TestUpsertLevelChainValidation(t *testing.T) {
	svc := NewService(newStubRepository())
	ctx := context.Background()

	one := 1
	zero := 0

	err := svc.UpsertLevel(ctx, &Level{
		Level:          0,
		Name:           "Foundation",
		UnlockCriteria: UnlockCriteria{PreviousLevel: nil},
	})
	require.NoError(t, err)

	// Level 0 must not chain from anything.
	err = svc.UpsertLevel(ctx, &Level{
		Level:          0,
		Name:           "Foundation",
		UnlockCriteria: UnlockCriteria{PreviousLevel: &one},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	// Level 2 must chain from level 1, not level 0.
	err = svc.UpsertLevel(ctx, &Level{
		Level:          2,
		Name:           "Intermediate",
		UnlockCriteria: UnlockCriteria{PreviousLevel: &zero},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	err = svc.UpsertLevel(ctx, &Level{
		Level:          1,
		Name:           "Basics",
		UnlockCriteria: UnlockCriteria{PreviousLevel: &zero, MinGoalsCompleted: 3},
	})
	require.NoError(t, err)

	lvl, err := svc.GetLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, lvl.UnlockCriteria.MinGoalsCompleted)
	assert.NotNil(t, lvl.RequiredGoals)
}
