// CanineKind | 2026
// entity.go

package progress

import (
	"time"

	"github.com/caninekind/portal-api/internal/catalog"
)

const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Record is the per-account, per-goal progress ledger row. Status is always
// derivable from CompletedTaskIDs and the goal's task list; it is stored so
// reads never need the catalog.
type Record struct {
	AccountID        string             `db:"account_id" json:"accountId"`
	GoalID           string             `db:"goal_id" json:"goalId"`
	Status           string             `db:"status" json:"status"`
	CompletedTaskIDs catalog.StringList `db:"completed_task_ids" json:"completedTaskIds"`
	CompletedAt      *time.Time         `db:"completed_at" json:"completedAt"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updatedAt"`
}

func (r *Record) Completed() bool {
	return r.Status == StatusCompleted
}

func (r *Record) hasTask(taskID string) bool {
	for _, id := range r.CompletedTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}
