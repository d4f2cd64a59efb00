// CanineKind | 2026
// entity.go

package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// GoalTypeSingle is completed in one step; GoalTypeTasks tracks a
	// per-task checklist and completes when every task is done.
	GoalTypeSingle = "single"
	GoalTypeTasks  = "tasks"
)

func ValidGoalType(t string) bool {
	return t == GoalTypeSingle || t == GoalTypeTasks
}

type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

type Goal struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Level         int        `db:"level" json:"level"`
	Order         int        `db:"sort_order" json:"order"`
	Type          string     `db:"goal_type" json:"type"`
	Tasks         TaskList   `db:"tasks" json:"tasks"`
	Prerequisites StringList `db:"prerequisites" json:"prerequisites"`
	RelatedGoals  StringList `db:"related_goals" json:"relatedGoals"`
	Category      string     `db:"category" json:"category"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	CreatedBy     string     `db:"created_by" json:"createdBy"`
}

type UnlockCriteria struct {
	PreviousLevel           *int `json:"previousLevel"`
	MinGoalsCompleted       int  `json:"minGoalsCompleted"`
	RequiresTrainerApproval bool `json:"requiresTrainerApproval"`
}

type Level struct {
	Level          int            `db:"level" json:"level"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description"`
	RequiredGoals  StringList     `db:"required_goals" json:"requiredGoals"`
	UnlockCriteria UnlockCriteria `db:"unlock_criteria" json:"unlockCriteria"`
	Order          int            `db:"sort_order" json:"order"`
	Color          string         `db:"color" json:"color"`
	Icon           string         `db:"icon" json:"icon"`
}

// TaskList and StringList are stored as JSONB columns.

type TaskList []Task

func (t TaskList) Value() (driver.Value, error) {
	if t == nil {
		t = TaskList{}
	}
	return json.Marshal(t)
}

func (t *TaskList) Scan(src any) error {
	return scanJSON(src, t, func() { *t = TaskList{} })
}

type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(src any) error {
	return scanJSON(src, s, func() { *s = StringList{} })
}

func (u UnlockCriteria) Value() (driver.Value, error) {
	return json.Marshal(u)
}

func (u *UnlockCriteria) Scan(src any) error {
	return scanJSON(src, u, func() { *u = UnlockCriteria{} })
}

func scanJSON(src, dst any, setEmpty func()) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		setEmpty()
		return nil
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
}
