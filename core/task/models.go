package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lazoapp/lazo/core"
)

// Statuses
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

var statuses = []string{StatusTodo, StatusInProgress, StatusDone}

func ValidStatus(s string) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Task is an action item assigned to one of a relationship's participants.
type Task struct {
	ID             string    `json:"id"`
	RelationshipID string    `json:"relationship_id"`
	AssigneeID     string    `json:"assignee_id"`
	CreatedByID    string    `json:"created_by_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	DueDate        time.Time `json:"due_date"`
	Status         string    `json:"status"`
	CompletedAt    time.Time `json:"completed_at"` // UTC; zero until done
	CreatedAt      time.Time `json:"created_at"`   // UTC
	UpdatedAt      time.Time `json:"updated_at"`   // UTC
}

// IsOverdue is a derived read-side flag; it is never stored.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusDone && !t.DueDate.IsZero() && t.DueDate.Before(now)
}

// NewTask contains information needed to create a task.
type NewTask struct {
	AssigneeID  string    `json:"assignee_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing task.
type UpdateTask struct {
	AssigneeID  string    `json:"assignee_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

func (ut *UpdateTask) Validate(orig Task, validate *validator.Validate) error {
	if title := core.CleanString(ut.Title); title != "" {
		ut.Title = title
	} else {
		ut.Title = orig.Title
	}
	if ut.AssigneeID == "" {
		ut.AssigneeID = orig.AssigneeID
	}
	if ut.Description == "" {
		ut.Description = orig.Description
	} else {
		ut.Description = core.CleanString(ut.Description)
	}
	if ut.DueDate.IsZero() {
		ut.DueDate = orig.DueDate
	}
	return validate.Struct(ut)
}

// SetTaskStatus moves a task between statuses.
type SetTaskStatus struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

func (st SetTaskStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(st)
}

type QueryFilter struct {
	RelationshipID string    `query:"relationship_id"`
	AssigneeID     string    `query:"assignee_id"`
	Status         string    `query:"status"`
	Overdue        *bool     `query:"overdue"`
	DueFrom        time.Time `query:"due_from"`
	DueTo          time.Time `query:"due_to"`
}
