// CanineKind | 2026
// service.go

package progress

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/caninekind/portal-api/internal/account"
	"github.com/caninekind/portal-api/internal/catalog"
	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
)

// CatalogReader is the slice of the catalog the resolver needs.
type CatalogReader interface {
	GetGoal(ctx context.Context, id string) (*catalog.Goal, error)
	ListGoals(ctx context.Context, activeOnly bool) ([]catalog.Goal, error)
	GetLevel(ctx context.Context, level int) (*catalog.Level, error)
	ListLevels(ctx context.Context) ([]catalog.Level, error)
}

// AccountReader supplies the settings consulted for trainer-approval gates.
type AccountReader interface {
	Get(ctx context.Context, id string) (*account.Account, error)
}

type Service struct {
	repo     Repository
	catalog  CatalogReader
	accounts AccountReader
	observer events.Observer
}

func NewService(
	repo Repository,
	cat CatalogReader,
	accounts AccountReader,
	observer events.Observer,
) *Service {
	if observer == nil {
		observer = events.Nop()
	}
	return &Service{
		repo:     repo,
		catalog:  cat,
		accounts: accounts,
		observer: observer,
	}
}

// CompleteTask adds taskID to the goal's completed set. Re-adding a present
// id is a no-op and never restamps completedAt.
func (s *Service) CompleteTask(
	ctx context.Context,
	accountID, goalID, taskID string,
) (*Record, error) {
	goal, err := s.catalog.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if !goalHasTask(goal, taskID) {
		return nil, fmt.Errorf(
			"complete task: goal %s has no task %s: %w",
			goalID,
			taskID,
			core.ErrNotFound,
		)
	}

	var wasCompleted bool
	rec, err := s.repo.Update(ctx, accountID, goalID, func(r *Record) error {
		wasCompleted = r.Completed()
		if !r.hasTask(taskID) {
			r.CompletedTaskIDs = append(r.CompletedTaskIDs, taskID)
		}
		recomputeStatus(r, goal)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !wasCompleted && rec.Completed() {
		s.afterGoalCompleted(ctx, accountID, goal)
	}

	return rec, nil
}

// UncompleteTask is the admin correction path. completedAt survives unless
// the removal drops the goal out of completed.
func (s *Service) UncompleteTask(
	ctx context.Context,
	accountID, goalID, taskID string,
) (*Record, error) {
	goal, err := s.catalog.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if !goalHasTask(goal, taskID) {
		return nil, fmt.Errorf(
			"uncomplete task: goal %s has no task %s: %w",
			goalID,
			taskID,
			core.ErrNotFound,
		)
	}

	return s.repo.Update(ctx, accountID, goalID, func(r *Record) error {
		kept := r.CompletedTaskIDs[:0]
		for _, id := range r.CompletedTaskIDs {
			if id != taskID {
				kept = append(kept, id)
			}
		}
		r.CompletedTaskIDs = kept
		recomputeStatus(r, goal)
		return nil
	})
}

// CompleteGoal marks a single-type goal done in one step.
func (s *Service) CompleteGoal(
	ctx context.Context,
	accountID, goalID string,
) (*Record, error) {
	goal, err := s.catalog.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Type != catalog.GoalTypeSingle {
		return nil, fmt.Errorf(
			"complete goal: goal %s is task-based: %w",
			goalID,
			core.ErrInvalidInput,
		)
	}

	var wasCompleted bool
	rec, err := s.repo.Update(ctx, accountID, goalID, func(r *Record) error {
		wasCompleted = r.Completed()
		r.Status = StatusCompleted
		if r.CompletedAt == nil {
			now := time.Now().UTC()
			r.CompletedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !wasCompleted {
		s.afterGoalCompleted(ctx, accountID, goal)
	}

	return rec, nil
}

func (s *Service) UncompleteGoal(
	ctx context.Context,
	accountID, goalID string,
) (*Record, error) {
	goal, err := s.catalog.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Type != catalog.GoalTypeSingle {
		return nil, fmt.Errorf(
			"uncomplete goal: goal %s is task-based: %w",
			goalID,
			core.ErrInvalidInput,
		)
	}

	return s.repo.Update(ctx, accountID, goalID, func(r *Record) error {
		r.Status = StatusNotStarted
		r.CompletedTaskIDs = catalog.StringList{}
		r.CompletedAt = nil
		return nil
	})
}

// EligibleGoals returns active goals whose prerequisites are all completed,
// excluding goals the account has already completed. One pass, no sort: the
// catalog guarantees the prerequisite graph is acyclic.
func (s *Service) EligibleGoals(
	ctx context.Context,
	accountID string,
) ([]catalog.Goal, error) {
	goals, err := s.catalog.ListGoals(ctx, true)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedGoalSet(ctx, accountID)
	if err != nil {
		return nil, err
	}

	eligible := make([]catalog.Goal, 0, len(goals))
	for _, goal := range goals {
		if completed[goal.ID] {
			continue
		}
		if prerequisitesMet(goal, completed) {
			eligible = append(eligible, goal)
		}
	}

	return eligible, nil
}

func (s *Service) GoalsCompletedInLevel(
	ctx context.Context,
	accountID string,
	level int,
) (int, error) {
	goals, err := s.catalog.ListGoals(ctx, true)
	if err != nil {
		return 0, err
	}

	completed, err := s.completedGoalSet(ctx, accountID)
	if err != nil {
		return 0, err
	}

	return completedInLevel(goals, completed, level), nil
}

// LevelUnlocked walks the previousLevel chain down to level 0, requiring
// every hop's goal count and trainer-approval gate. A level is never
// reachable past a locked ancestor.
func (s *Service) LevelUnlocked(
	ctx context.Context,
	accountID string,
	level int,
) (bool, error) {
	if _, err := s.catalog.GetLevel(ctx, level); err != nil {
		return false, err
	}

	res, err := s.resolve(ctx, accountID)
	if err != nil {
		return false, err
	}

	return res.unlocked(level), nil
}

type LevelOverview struct {
	Level     int    `json:"level"`
	Name      string `json:"name"`
	Unlocked  bool   `json:"unlocked"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Overview is the dashboard rollup: one row per level in chain order.
func (s *Service) Overview(
	ctx context.Context,
	accountID string,
) ([]LevelOverview, error) {
	res, err := s.resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	levels := make([]catalog.Level, len(res.levelList))
	copy(levels, res.levelList)
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Level < levels[j].Level
	})

	overview := make([]LevelOverview, 0, len(levels))
	for _, lvl := range levels {
		total := 0
		for _, goal := range res.goals {
			if goal.Level == lvl.Level {
				total++
			}
		}
		overview = append(overview, LevelOverview{
			Level:     lvl.Level,
			Name:      lvl.Name,
			Unlocked:  res.unlocked(lvl.Level),
			Completed: completedInLevel(res.goals, res.completed, lvl.Level),
			Total:     total,
		})
	}

	return overview, nil
}

func (s *Service) GetRecord(
	ctx context.Context,
	accountID, goalID string,
) (*Record, error) {
	return s.repo.Get(ctx, accountID, goalID)
}

func (s *Service) ListRecords(
	ctx context.Context,
	accountID string,
) ([]Record, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// afterGoalCompleted publishes the completion and any level unlocks the
// completion produced. Unlock state before is derived by subtracting the
// goal just completed.
func (s *Service) afterGoalCompleted(
	ctx context.Context,
	accountID string,
	goal *catalog.Goal,
) {
	s.observer.Publish(ctx, events.Event{
		Type:      events.GoalCompleted,
		AccountID: accountID,
		Fields:    map[string]any{"goal_id": goal.ID, "level": goal.Level},
	})

	res, err := s.resolve(ctx, accountID)
	if err != nil {
		return
	}

	before := res.without(goal.ID)
	for _, lvl := range res.levelList {
		if lvl.Level == 0 {
			continue
		}
		if res.unlocked(lvl.Level) && !before.unlocked(lvl.Level) {
			s.observer.Publish(ctx, events.Event{
				Type:      events.LevelUnlocked,
				AccountID: accountID,
				Fields:    map[string]any{"level": lvl.Level},
			})
		}
	}
}

// resolution is a point-in-time snapshot for unlock evaluation.
type resolution struct {
	goals     []catalog.Goal
	levelList []catalog.Level
	levels    map[int]catalog.Level
	completed map[string]bool
	settings  account.Settings
}

func (s *Service) resolve(
	ctx context.Context,
	accountID string,
) (*resolution, error) {
	goals, err := s.catalog.ListGoals(ctx, true)
	if err != nil {
		return nil, err
	}

	levelList, err := s.catalog.ListLevels(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedGoalSet(ctx, accountID)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	levels := make(map[int]catalog.Level, len(levelList))
	for _, lvl := range levelList {
		levels[lvl.Level] = lvl
	}

	return &resolution{
		goals:     goals,
		levelList: levelList,
		levels:    levels,
		completed: completed,
		settings:  acct.Settings,
	}, nil
}

func (r *resolution) without(goalID string) *resolution {
	completed := make(map[string]bool, len(r.completed))
	for id, done := range r.completed {
		if id != goalID {
			completed[id] = done
		}
	}
	clone := *r
	clone.completed = completed
	return &clone
}

func (r *resolution) unlocked(level int) bool {
	for cur := level; cur > 0; {
		lvl, ok := r.levels[cur]
		if !ok {
			return false
		}

		prev := lvl.UnlockCriteria.PreviousLevel
		if prev == nil {
			return false
		}

		if completedInLevel(r.goals, r.completed, *prev) <
			lvl.UnlockCriteria.MinGoalsCompleted {
			return false
		}

		if lvl.UnlockCriteria.RequiresTrainerApproval &&
			!r.settings.HasLevel(cur) {
			return false
		}

		cur = *prev
	}

	return true
}

func (s *Service) completedGoalSet(
	ctx context.Context,
	accountID string,
) (map[string]bool, error) {
	records, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Completed() {
			completed[rec.GoalID] = true
		}
	}

	return completed, nil
}

func completedInLevel(
	goals []catalog.Goal,
	completed map[string]bool,
	level int,
) int {
	count := 0
	for _, goal := range goals {
		if goal.Level == level && completed[goal.ID] {
			count++
		}
	}
	return count
}

func prerequisitesMet(goal catalog.Goal, completed map[string]bool) bool {
	for _, prereq := range goal.Prerequisites {
		if !completed[prereq] {
			return false
		}
	}
	return true
}

func goalHasTask(goal *catalog.Goal, taskID string) bool {
	for _, task := range goal.Tasks {
		if task.ID == taskID {
			return true
		}
	}
	return false
}

func recomputeStatus(r *Record, goal *catalog.Goal) {
	done := make(map[string]bool, len(r.CompletedTaskIDs))
	for _, id := range r.CompletedTaskIDs {
		done[id] = true
	}

	allDone := len(goal.Tasks) > 0
	for _, task := range goal.Tasks {
		if !done[task.ID] {
			allDone = false
			break
		}
	}

	switch {
	case allDone:
		r.Status = StatusCompleted
		if r.CompletedAt == nil {
			now := time.Now().UTC()
			r.CompletedAt = &now
		}
	case len(r.CompletedTaskIDs) > 0:
		r.Status = StatusInProgress
		r.CompletedAt = nil
	default:
		r.Status = StatusNotStarted
		r.CompletedAt = nil
	}
}
