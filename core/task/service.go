package task

import (
	"context"
	"errors"
	"time"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("task not found")
	ErrNotParticipant    = errors.New("user is not a participant of this relationship")
	ErrRelationshipEnded = errors.New("relationship has ended")

	errAssigneeNotParticipant = errors.New("assignee must be a participant of the relationship")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		QueryTasks(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTasksByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, creator user.User, relationshipID string, nt NewTask) (Task, error)
		GetByID(ctx context.Context, id string) (Task, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		Update(ctx context.Context, actor user.User, id string, ut UpdateTask) (Task, error)
		SetStatus(ctx context.Context, actor user.User, id string, st SetTaskStatus) (Task, error)
		Delete(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo   Repository
		relSvc relationship.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, relSvc relationship.Service) Service {
	return &service{repo: repo, relSvc: relSvc}
}

func (svc *service) Create(ctx context.Context, creator user.User, relationshipID string, nt NewTask) (Task, error) {
	rel, err := svc.relSvc.GetByID(ctx, relationshipID)
	if err != nil {
		return Task{}, err
	}
	if !rel.IsParticipant(creator.ID) && !creator.IsAdmin() {
		return Task{}, ErrNotParticipant
	}
	if rel.IsEnded() {
		return Task{}, core.NewValidationError(ErrRelationshipEnded)
	}
	if !rel.IsParticipant(nt.AssigneeID) {
		return Task{}, core.NewValidationError(errAssigneeNotParticipant, core.FieldError{
			Field: "assignee_id", Error: errAssigneeNotParticipant.Error(),
		})
	}

	now := time.Now().UTC()
	t := Task{
		RelationshipID: rel.ID,
		AssigneeID:     nt.AssigneeID,
		CreatedByID:    creator.ID,
		Title:          nt.Title,
		Description:    nt.Description,
		DueDate:        nt.DueDate,
		Status:         StatusTodo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, filter, ordering)
}

// getForUpdate loads the task and checks the actor is a participant or admin.
func (svc *service) getForUpdate(ctx context.Context, actor user.User, id string) (Task, relationship.Relationship, error) {
	t, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, relationship.Relationship{}, err
	}
	rel, err := svc.relSvc.GetByID(ctx, t.RelationshipID)
	if err != nil {
		return Task{}, relationship.Relationship{}, err
	}
	if !rel.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return Task{}, relationship.Relationship{}, ErrNotParticipant
	}
	return t, rel, nil
}

func (svc *service) Update(ctx context.Context, actor user.User, id string, ut UpdateTask) (Task, error) {
	t, rel, err := svc.getForUpdate(ctx, actor, id)
	if err != nil {
		return Task{}, err
	}
	if !rel.IsParticipant(ut.AssigneeID) {
		return Task{}, core.NewValidationError(errAssigneeNotParticipant, core.FieldError{
			Field: "assignee_id", Error: errAssigneeNotParticipant.Error(),
		})
	}

	t.AssigneeID = ut.AssigneeID
	t.Title = ut.Title
	t.Description = ut.Description
	t.DueDate = ut.DueDate
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *service) SetStatus(ctx context.Context, actor user.User, id string, st SetTaskStatus) (Task, error) {
	t, _, err := svc.getForUpdate(ctx, actor, id)
	if err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	t.Status = st.Status
	t.UpdatedAt = now
	if st.Status == StatusDone {
		t.CompletedAt = now
	} else {
		t.CompletedAt = time.Time{}
	}
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	if _, _, err := svc.getForUpdate(ctx, actor, id); err != nil {
		return err
	}
	_, err := svc.repo.DeleteTasksByID(ctx, id)
	return err
}
