// CanineKind | 2026
// dto.go

package catalog

type TaskInput struct {
	ID    string `json:"id"`
	Title string `json:"title" validate:"required,max=200"`
	Order int    `json:"order" validate:"min=0"`
}

type CreateGoalRequest struct {
	Title         string      `json:"title" validate:"required,max=200"`
	Description   string      `json:"description" validate:"max=2000"`
	Level         int         `json:"level" validate:"min=0"`
	Order         int         `json:"order" validate:"min=0"`
	Type          string      `json:"type" validate:"omitempty,oneof=single tasks"`
	Tasks         []TaskInput `json:"tasks" validate:"dive"`
	Prerequisites []string    `json:"prerequisites"`
	RelatedGoals  []string    `json:"relatedGoals"`
	Category      string      `json:"category" validate:"max=100"`
}

func (r CreateGoalRequest) ToGoal() *Goal {
	return &Goal{
		Title:         r.Title,
		Description:   r.Description,
		Level:         r.Level,
		Order:         r.Order,
		Type:          r.Type,
		Tasks:         toTasks(r.Tasks),
		Prerequisites: StringList(r.Prerequisites),
		RelatedGoals:  StringList(r.RelatedGoals),
		Category:      r.Category,
	}
}

type UpdateGoalRequest struct {
	Title         string      `json:"title" validate:"required,max=200"`
	Description   string      `json:"description" validate:"max=2000"`
	Level         int         `json:"level" validate:"min=0"`
	Order         int         `json:"order" validate:"min=0"`
	Type          string      `json:"type" validate:"required,oneof=single tasks"`
	Tasks         []TaskInput `json:"tasks" validate:"dive"`
	Prerequisites []string    `json:"prerequisites"`
	RelatedGoals  []string    `json:"relatedGoals"`
	Category      string      `json:"category" validate:"max=100"`
}

func (r UpdateGoalRequest) ToGoal(id string) *Goal {
	return &Goal{
		ID:            id,
		Title:         r.Title,
		Description:   r.Description,
		Level:         r.Level,
		Order:         r.Order,
		Type:          r.Type,
		Tasks:         toTasks(r.Tasks),
		Prerequisites: StringList(r.Prerequisites),
		RelatedGoals:  StringList(r.RelatedGoals),
		Category:      r.Category,
	}
}

type UpsertLevelRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   string   `json:"description" validate:"max=2000"`
	RequiredGoals []string `json:"requiredGoals"`
	UnlockCriteria struct {
		PreviousLevel           *int `json:"previousLevel"`
		MinGoalsCompleted       int  `json:"minGoalsCompleted" validate:"min=0"`
		RequiresTrainerApproval bool `json:"requiresTrainerApproval"`
	} `json:"unlockCriteria"`
	Order int    `json:"order" validate:"min=0"`
	Color string `json:"color" validate:"max=32"`
	Icon  string `json:"icon" validate:"max=64"`
}

func (r UpsertLevelRequest) ToLevel(level int) *Level {
	return &Level{
		Level:         level,
		Name:          r.Name,
		Description:   r.Description,
		RequiredGoals: StringList(r.RequiredGoals),
		UnlockCriteria: UnlockCriteria{
			PreviousLevel:           r.UnlockCriteria.PreviousLevel,
			MinGoalsCompleted:       r.UnlockCriteria.MinGoalsCompleted,
			RequiresTrainerApproval: r.UnlockCriteria.RequiresTrainerApproval,
		},
		Order: r.Order,
		Color: r.Color,
		Icon:  r.Icon,
	}
}

func toTasks(inputs []TaskInput) TaskList {
	tasks := make(TaskList, 0, len(inputs))
	for _, in := range inputs {
		tasks = append(tasks, Task(in))
	}
	return tasks
}
