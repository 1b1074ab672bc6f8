package message_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazoapp/lazo/core"
	"github.com/lazoapp/lazo/core/message"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
	emailsvc "github.com/lazoapp/lazo/services/email"
	inmemdb "github.com/lazoapp/lazo/storage/database/inmem"
	testutil "github.com/lazoapp/lazo/tests"
)

type fixture struct {
	svc     message.Service
	relRepo relationship.Repository

	entrepreneur user.User
	ally         user.User
	admin        user.User
	rel          relationship.Relationship
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	relRepo := inmemdb.NewRelationshipRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	relSvc := relationship.NewService(relRepo, usrSvc)

	f := &fixture{svc: message.NewService(inmemdb.NewMessageRepository(db), relSvc), relRepo: relRepo}
	f.entrepreneur = testutil.CreateUser(t, usrRepo, "Espoir", "espoir", "espoir@test.cd", "", []string{user.RoleEntrepreneur}, true)
	f.ally = testutil.CreateUser(t, usrRepo, "Aline", "aline1", "aline@test.cd", "", []string{user.RoleAlly}, true)
	f.admin = testutil.CreateUser(t, usrRepo, "Root", "master", "root@test.cd", "", []string{user.RoleAdmin}, true)
	f.rel = testutil.CreateRelationship(t, relRepo, f.entrepreneur.ID, f.ally.ID, "", relationship.StatusActive)
	return f
}

func Test_service_Send(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("outsiders cannot post", func(t *testing.T) {
		other := user.User{ID: "stranger", Roles: []string{user.RoleAlly}}
		_, err := f.svc.Send(ctx, other, f.rel.ID, message.NewMessage{Body: "hi"})
		assert.Equal(t, message.ErrNotParticipant, err)
	})

	t.Run("admins read but never post", func(t *testing.T) {
		_, err := f.svc.Send(ctx, f.admin, f.rel.ID, message.NewMessage{Body: "hi"})
		assert.Equal(t, message.ErrNotParticipant, err)
	})

	t.Run("ok", func(t *testing.T) {
		m, err := f.svc.Send(ctx, f.ally, f.rel.ID, message.NewMessage{Body: "hi"})
		require.NoError(t, err)
		assert.Equal(t, f.ally.ID, m.SenderID)
		assert.False(t, m.SentAt.IsZero())
		assert.Nil(t, m.ReadAt)
	})
}

func Test_service_conversation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.ally, f.rel.ID, message.NewMessage{Body: "hi"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.ally, f.rel.ID, message.NewMessage{Body: "are you there?"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.entrepreneur, f.rel.ID, message.NewMessage{Body: "yes!"})
	require.NoError(t, err)

	t.Run("admins may list", func(t *testing.T) {
		msgs, err := f.svc.ListConversation(ctx, f.admin, f.rel.ID)
		require.NoError(t, err)
		assert.Len(t, msgs, 3)
	})

	t.Run("unread counts exclude own messages", func(t *testing.T) {
		n, err := f.svc.UnreadCount(ctx, f.entrepreneur, f.rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = f.svc.UnreadCount(ctx, f.ally, f.rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("mark read", func(t *testing.T) {
		n, err := f.svc.MarkRead(ctx, f.entrepreneur, f.rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = f.svc.UnreadCount(ctx, f.entrepreneur, f.rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		// the ally's own unread count is untouched
		n, err = f.svc.UnreadCount(ctx, f.ally, f.rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("admins cannot mark read", func(t *testing.T) {
		_, err := f.svc.MarkRead(ctx, f.admin, f.rel.ID)
		assert.Equal(t, message.ErrNotParticipant, err)
	})
}

func Test_service_Send_endedRelationship(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.rel.Status = relationship.StatusEnded
	_, err := f.relRepo.UpdateRelationship(ctx, f.rel)
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, f.ally, f.rel.ID, message.NewMessage{Body: "too late"})
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected *core.ValidationError, got %T", err)
	assert.Equal(t, message.ErrRelationshipEnded, verr.Err)
}
