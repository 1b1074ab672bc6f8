package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/task"
	"github.com/lazoapp/lazo/core/user"
	emailsvc "github.com/lazoapp/lazo/services/email"
	inmemdb "github.com/lazoapp/lazo/storage/database/inmem"
	testutil "github.com/lazoapp/lazo/tests"
)

type fixture struct {
	svc task.Service

	entrepreneur user.User
	ally         user.User
	rel          relationship.Relationship
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	relRepo := inmemdb.NewRelationshipRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	relSvc := relationship.NewService(relRepo, usrSvc)

	f := &fixture{svc: task.NewService(inmemdb.NewTaskRepository(db), relSvc)}
	f.entrepreneur = testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	f.ally = testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	f.rel = testutil.CreateRelationship(t, relRepo, f.entrepreneur.ID, f.ally.ID, "", relationship.StatusActive)
	return f
}

func Test_service_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("assignee must be a participant", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.ally, f.rel.ID, task.NewTask{AssigneeID: "nope", Title: "Pitch deck"})
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok, "expected *core.ValidationError, got %T", err)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "assignee_id", verr.Fields[0].Field)
	})

	t.Run("ok", func(t *testing.T) {
		tsk, err := f.svc.Create(ctx, f.ally, f.rel.ID, task.NewTask{
			AssigneeID: f.entrepreneur.ID, Title: "Pitch deck", DueDate: time.Now().UTC().AddDate(0, 0, 7),
		})
		require.NoError(t, err)
		assert.Equal(t, task.StatusTodo, tsk.Status)
		assert.Equal(t, f.ally.ID, tsk.CreatedByID)
		assert.False(t, tsk.IsOverdue(time.Now().UTC()))
	})
}

func Test_service_SetStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tsk, err := f.svc.Create(ctx, f.ally, f.rel.ID, task.NewTask{AssigneeID: f.entrepreneur.ID, Title: "Pitch deck"})
	require.NoError(t, err)

	t.Run("done stamps CompletedAt", func(t *testing.T) {
		tsk, err = f.svc.SetStatus(ctx, f.entrepreneur, tsk.ID, task.SetTaskStatus{Status: task.StatusDone})
		require.NoError(t, err)
		assert.False(t, tsk.CompletedAt.IsZero())
	})

	t.Run("reopening clears CompletedAt", func(t *testing.T) {
		tsk, err = f.svc.SetStatus(ctx, f.entrepreneur, tsk.ID, task.SetTaskStatus{Status: task.StatusInProgress})
		require.NoError(t, err)
		assert.True(t, tsk.CompletedAt.IsZero())
	})
}

func Test_Task_IsOverdue(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name string
		tsk  task.Task
		want bool
	}{
		{name: "no due date", tsk: task.Task{Status: task.StatusTodo}, want: false},
		{name: "due in the future", tsk: task.Task{Status: task.StatusTodo, DueDate: now.Add(time.Hour)}, want: false},
		{name: "past due", tsk: task.Task{Status: task.StatusTodo, DueDate: now.Add(-time.Hour)}, want: true},
		{name: "past due but done", tsk: task.Task{Status: task.StatusDone, DueDate: now.Add(-time.Hour)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tsk.IsOverdue(now))
		})
	}
}

func Test_service_Query_overdue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	due, err := f.svc.Create(ctx, f.ally, f.rel.ID, task.NewTask{
		AssigneeID: f.entrepreneur.ID, Title: "Late", DueDate: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.ally, f.rel.ID, task.NewTask{
		AssigneeID: f.entrepreneur.ID, Title: "On time", DueDate: time.Now().UTC().AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	overdue := true
	tasks, err := f.svc.Query(ctx, &task.QueryFilter{Overdue: &overdue}, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, due.ID, tasks[0].ID)
}

func Test_service_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tsk, err := f.svc.Create(ctx, f.ally, f.rel.ID, task.NewTask{AssigneeID: f.ally.ID, Title: "Pitch deck"})
	require.NoError(t, err)

	t.Run("outsiders cannot delete", func(t *testing.T) {
		other := user.User{ID: "stranger", Roles: []string{user.RoleEntrepreneur}}
		err := f.svc.Delete(ctx, other, tsk.ID)
		assert.Equal(t, task.ErrNotParticipant, err)
	})

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, f.entrepreneur, tsk.ID))
		_, err := f.svc.GetByID(ctx, tsk.ID)
		assert.Equal(t, task.ErrNotFound, err)
	})
}
