// CanineKind | 2026
// service_test.go

package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninekind/portal-api/internal/account"
	"github.com/caninekind/portal-api/internal/catalog"
	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
)

type recordKey struct {
	accountID string
	goalID    string
}

type stubRepository struct {
	records map[recordKey]*Record
}

func newStubRepository() *stubRepository {
	return &stubRepository{records: make(map[recordKey]*Record)}
}

func (s *stubRepository) Get(
	_ context.Context,
	accountID, goalID string,
) (*Record, error) {
	rec, ok := s.records[recordKey{accountID, goalID}]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (s *stubRepository) ListByAccount(
	_ context.Context,
	accountID string,
) ([]Record, error) {
	var out []Record
	for key, rec := range s.records {
		if key.accountID == accountID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *stubRepository) Update(
	_ context.Context,
	accountID, goalID string,
	fn func(*Record) error,
) (*Record, error) {
	key := recordKey{accountID, goalID}
	rec, ok := s.records[key]
	if !ok {
		rec = &Record{
			AccountID:        accountID,
			GoalID:           goalID,
			Status:           StatusNotStarted,
			CompletedTaskIDs: catalog.StringList{},
		}
	}
	working := *rec
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	s.records[key] = &working
	copied := working
	return &copied, nil
}

type stubCatalog struct {
	goals  map[string]*catalog.Goal
	levels map[int]*catalog.Level
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		goals:  make(map[string]*catalog.Goal),
		levels: make(map[int]*catalog.Level),
	}
}

func (s *stubCatalog) GetGoal(_ context.Context, id string) (*catalog.Goal, error) {
	goal, ok := s.goals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *goal
	return &copied, nil
}

func (s *stubCatalog) ListGoals(
	_ context.Context,
	activeOnly bool,
) ([]catalog.Goal, error) {
	var out []catalog.Goal
	for _, goal := range s.goals {
		if activeOnly && !goal.Active {
			continue
		}
		out = append(out, *goal)
	}
	return out, nil
}

func (s *stubCatalog) GetLevel(_ context.Context, level int) (*catalog.Level, error) {
	lvl, ok := s.levels[level]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *lvl
	return &copied, nil
}

func (s *stubCatalog) ListLevels(_ context.Context) ([]catalog.Level, error) {
	var out []catalog.Level
	for _, lvl := range s.levels {
		out = append(out, *lvl)
	}
	return out, nil
}

func (s *stubCatalog) addGoal(id string, level int, tasks []string, prereqs ...string) {
	taskList := make(catalog.TaskList, 0, len(tasks))
	for i, title := range tasks {
		taskList = append(taskList, catalog.Task{ID: title, Title: title, Order: i})
	}
	goalType := catalog.GoalTypeSingle
	if len(tasks) > 0 {
		goalType = catalog.GoalTypeTasks
	}
	s.goals[id] = &catalog.Goal{
		ID:            id,
		Title:         id,
		Level:         level,
		Type:          goalType,
		Tasks:         taskList,
		Prerequisites: catalog.StringList(prereqs),
		Active:        true,
	}
}

func (s *stubCatalog) addLevel(level int, minGoals int, trainerApproval bool) {
	criteria := catalog.UnlockCriteria{
		MinGoalsCompleted:       minGoals,
		RequiresTrainerApproval: trainerApproval,
	}
	if level > 0 {
		prev := level - 1
		criteria.PreviousLevel = &prev
	}
	s.levels[level] = &catalog.Level{
		Level:          level,
		Name:           "Level",
		UnlockCriteria: criteria,
	}
}

type stubAccounts struct {
	accounts map[string]*account.Account
}

func (s *stubAccounts) Get(_ context.Context, id string) (*account.Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

type recordingObserver struct {
	published []events.Event
}

func (r *recordingObserver) Publish(_ context.Context, e events.Event) {
	r.published = append(r.published, e)
}

func (r *recordingObserver) byType(t events.Type) []events.Event {
	var out []events.Event
	for _, e := range r.published {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	repo     *stubRepository
	cat      *stubCatalog
	accounts *stubAccounts
	observer *recordingObserver
}

func newFixture() *fixture {
	repo := newStubRepository()
	cat := newStubCatalog()
	accounts := &stubAccounts{accounts: map[string]*account.Account{
		"u1": {
			ID:       "u1",
			Status:   account.StatusApproved,
			Settings: account.DefaultSettings(),
		},
	}}
	observer := &recordingObserver{}
	return &fixture{
		svc:      NewService(repo, cat, accounts, observer),
		repo:     repo,
		cat:      cat,
		accounts: accounts,
		observer: observer,
	}
}

func (f *fixture) grantLevels(accountID string, levels ...int) {
	f.accounts.accounts[accountID].Settings.AccessibleLevels = levels
}

func TestCompleteTaskIsIdempotent(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("recall", 0, []string{"t1", "t2"})
	ctx := context.Background()

	rec, err := f.svc.CompleteTask(ctx, "u1", "recall", "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rec.Status)
	assert.Nil(t, rec.CompletedAt)

	rec, err = f.svc.CompleteTask(ctx, "u1", "recall", "t2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.CompletedAt)
	firstStamp := *rec.CompletedAt

	// Repeat call: set unchanged, stamp untouched, no duplicate event.
	rec, err = f.svc.CompleteTask(ctx, "u1", "recall", "t2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Len(t, rec.CompletedTaskIDs, 2)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, firstStamp, *rec.CompletedAt)
	assert.Len(t, f.observer.byType(events.GoalCompleted), 1)
}

func TestCompleteTaskUnknownGoalOrTask(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("recall", 0, []string{"t1"})
	ctx := context.Background()

	_, err := f.svc.CompleteTask(ctx, "u1", "missing", "t1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.CompleteTask(ctx, "u1", "recall", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUncompleteTaskClearsStampOnlyWhenLeavingCompleted(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("recall", 0, []string{"t1", "t2"})
	ctx := context.Background()

	_, err := f.svc.CompleteTask(ctx, "u1", "recall", "t1")
	require.NoError(t, err)
	_, err = f.svc.CompleteTask(ctx, "u1", "recall", "t2")
	require.NoError(t, err)

	rec, err := f.svc.UncompleteTask(ctx, "u1", "recall", "t2")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rec.Status)
	assert.Nil(t, rec.CompletedAt)
	assert.Equal(t, catalog.StringList{"t1"}, rec.CompletedTaskIDs)
}

func TestCompleteGoalSingleType(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("orientation", 0, nil)
	ctx := context.Background()

	rec, err := f.svc.CompleteGoal(ctx, "u1", "orientation")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.CompletedAt)
	firstStamp := *rec.CompletedAt

	rec, err = f.svc.CompleteGoal(ctx, "u1", "orientation")
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *rec.CompletedAt)
	assert.Len(t, f.observer.byType(events.GoalCompleted), 1)

	f.cat.addGoal("recall", 0, []string{"t1"})
	_, err = f.svc.CompleteGoal(ctx, "u1", "recall")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestEligibleGoalsPrerequisiteGating(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("markers-release", 0, nil)
	f.cat.addGoal("sit", 0, nil, "markers-release")
	ctx := context.Background()

	ids := func(goals []catalog.Goal) []string {
		out := make([]string, 0, len(goals))
		for _, g := range goals {
			out = append(out, g.ID)
		}
		return out
	}

	eligible, err := f.svc.EligibleGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, ids(eligible), "markers-release")
	assert.NotContains(t, ids(eligible), "sit")

	_, err = f.svc.CompleteGoal(ctx, "u1", "markers-release")
	require.NoError(t, err)

	eligible, err = f.svc.EligibleGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, ids(eligible), "sit")
	// Completed goals leave the eligible set.
	assert.NotContains(t, ids(eligible), "markers-release")
}

func TestEligibleGoalsExcludesInactive(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("sit", 0, nil)
	f.cat.addGoal("retired", 0, nil)
	f.cat.goals["retired"].Active = false

	eligible, err := f.svc.EligibleGoals(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, "sit", eligible[0].ID)
}

func TestLevelUnlockedRequiresThresholdAndApproval(t *testing.T) {
	f := newFixture()
	f.cat.addLevel(0, 0, false)
	f.cat.addLevel(1, 3, true)
	f.cat.addGoal("training-gear", 0, nil)
	f.cat.addGoal("legal-forms", 0, nil)
	f.cat.addGoal("review-instructions", 0, nil)
	ctx := context.Background()

	unlocked, err := f.svc.LevelUnlocked(ctx, "u1", 0)
	require.NoError(t, err)
	assert.True(t, unlocked)

	// Trainer approval granted but only 2 of 3 goals done.
	f.grantLevels("u1", 1)
	_, err = f.svc.CompleteGoal(ctx, "u1", "training-gear")
	require.NoError(t, err)
	_, err = f.svc.CompleteGoal(ctx, "u1", "legal-forms")
	require.NoError(t, err)

	unlocked, err = f.svc.LevelUnlocked(ctx, "u1", 1)
	require.NoError(t, err)
	assert.False(t, unlocked)

	_, err = f.svc.CompleteGoal(ctx, "u1", "review-instructions")
	require.NoError(t, err)

	unlocked, err = f.svc.LevelUnlocked(ctx, "u1", 1)
	require.NoError(t, err)
	assert.True(t, unlocked)

	// Threshold met but approval withdrawn: locked again.
	f.grantLevels("u1")
	unlocked, err = f.svc.LevelUnlocked(ctx, "u1", 1)
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestLevelUnlockedNeverSkipsAncestor(t *testing.T) {
	f := newFixture()
	f.cat.addLevel(0, 0, false)
	f.cat.addLevel(1, 2, false)
	f.cat.addLevel(2, 0, false)
	f.cat.addGoal("g0a", 0, nil)
	f.cat.addGoal("g0b", 0, nil)
	ctx := context.Background()

	// Level 2 asks for zero goals from level 1, but level 1 itself is
	// locked until two level-0 goals are done.
	unlocked, err := f.svc.LevelUnlocked(ctx, "u1", 2)
	require.NoError(t, err)
	assert.False(t, unlocked)

	_, err = f.svc.CompleteGoal(ctx, "u1", "g0a")
	require.NoError(t, err)
	_, err = f.svc.CompleteGoal(ctx, "u1", "g0b")
	require.NoError(t, err)

	unlocked, err = f.svc.LevelUnlocked(ctx, "u1", 2)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestLevelUnlockedUnknownLevel(t *testing.T) {
	f := newFixture()

	_, err := f.svc.LevelUnlocked(context.Background(), "u1", 7)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGoalsCompletedInLevelCountsActiveOnly(t *testing.T) {
	f := newFixture()
	f.cat.addGoal("sit", 0, nil)
	f.cat.addGoal("stay", 0, nil)
	ctx := context.Background()

	_, err := f.svc.CompleteGoal(ctx, "u1", "sit")
	require.NoError(t, err)
	_, err = f.svc.CompleteGoal(ctx, "u1", "stay")
	require.NoError(t, err)

	count, err := f.svc.GoalsCompletedInLevel(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Deactivation retroactively removes the goal from the count.
	f.cat.goals["stay"].Active = false

	count, err = f.svc.GoalsCompletedInLevel(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompletionEmitsLevelUnlockedEvent(t *testing.T) {
	f := newFixture()
	f.cat.addLevel(0, 0, false)
	f.cat.addLevel(1, 1, false)
	f.cat.addGoal("sit", 0, nil)
	ctx := context.Background()

	_, err := f.svc.CompleteGoal(ctx, "u1", "sit")
	require.NoError(t, err)

	unlockEvents := f.observer.byType(events.LevelUnlocked)
	require.Len(t, unlockEvents, 1)
	assert.Equal(t, 1, unlockEvents[0].Fields["level"])

	completions := f.observer.byType(events.GoalCompleted)
	require.Len(t, completions, 1)
	assert.Equal(t, "sit", completions[0].Fields["goal_id"])
}

func TestOverviewRollup(t *testing.T) {
	f := newFixture()
	f.cat.addLevel(0, 0, false)
	f.cat.addLevel(1, 2, false)
	f.cat.addGoal("sit", 0, nil)
	f.cat.addGoal("stay", 0, nil)
	f.cat.addGoal("heel", 1, nil)
	ctx := context.Background()

	_, err := f.svc.CompleteGoal(ctx, "u1", "sit")
	require.NoError(t, err)

	overview, err := f.svc.Overview(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, overview, 2)

	assert.Equal(t, 0, overview[0].Level)
	assert.True(t, overview[0].Unlocked)
	assert.Equal(t, 1, overview[0].Completed)
	assert.Equal(t, 2, overview[0].Total)

	assert.Equal(t, 1, overview[1].Level)
	assert.False(t, overview[1].Unlocked)
	assert.Equal(t, 0, overview[1].Completed)
	assert.Equal(t, 1, overview[1].Total)
}
