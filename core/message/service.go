package message

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
	ErrNotFound          = errors.New("message not found")
	ErrNotParticipant    = errors.New("user is not a participant of this relationship")
	ErrRelationshipEnded = errors.New("relationship has ended")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		// QueryMessages returns a relationship's messages ordered by SentAt ascending.
		QueryMessages(ctx context.Context, relationshipID string) ([]Message, error)
		// MarkMessagesRead marks all unread messages of the relationship not sent
		// by readerID; returns the number of rows touched.
		MarkMessagesRead(ctx context.Context, relationshipID, readerID string, readAt time.Time) (int, error)
		CountUnreadMessages(ctx context.Context, relationshipID, readerID string) (int, error)
	}

	Service interface {
		Send(ctx context.Context, sender user.User, relationshipID string, nm NewMessage) (Message, error)
		ListConversation(ctx context.Context, reader user.User, relationshipID string) ([]Message, error)
		MarkRead(ctx context.Context, reader user.User, relationshipID string) (int, error)
		UnreadCount(ctx context.Context, reader user.User, relationshipID string) (int, error)
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

// checkParticipant loads the relationship and verifies the user belongs to it.
func (svc *service) checkParticipant(ctx context.Context, usr user.User, relationshipID string) (relationship.Relationship, error) {
	rel, err := svc.relSvc.GetByID(ctx, relationshipID)
	if err != nil {
		return relationship.Relationship{}, err
	}
	if !rel.IsParticipant(usr.ID) && !usr.IsAdmin() {
		return relationship.Relationship{}, ErrNotParticipant
	}
	return rel, nil
}

func (svc *service) Send(ctx context.Context, sender user.User, relationshipID string, nm NewMessage) (Message, error) {
	rel, err := svc.checkParticipant(ctx, sender, relationshipID)
	if err != nil {
		return Message{}, err
	}
	if !rel.IsParticipant(sender.ID) { // admins may read but not post
		return Message{}, ErrNotParticipant
	}
	if rel.IsEnded() {
		return Message{}, core.NewValidationError(ErrRelationshipEnded)
	}

	m := Message{
		RelationshipID: rel.ID,
		SenderID:       sender.ID,
		Body:           nm.Body,
		SentAt:         time.Now().UTC(),
	}
	return svc.repo.CreateMessage(ctx, m)
}

func (svc *service) ListConversation(ctx context.Context, reader user.User, relationshipID string) ([]Message, error) {
	if _, err := svc.checkParticipant(ctx, reader, relationshipID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMessages(ctx, relationshipID)
}

func (svc *service) MarkRead(ctx context.Context, reader user.User, relationshipID string) (int, error) {
	rel, err := svc.checkParticipant(ctx, reader, relationshipID)
	if err != nil {
		return 0, err
	}
	if !rel.IsParticipant(reader.ID) {
		return 0, ErrNotParticipant
	}
	return svc.repo.MarkMessagesRead(ctx, relationshipID, reader.ID, time.Now().UTC())
}

func (svc *service) UnreadCount(ctx context.Context, reader user.User, relationshipID string) (int, error) {
	rel, err := svc.checkParticipant(ctx, reader, relationshipID)
	if err != nil {
		return 0, err
	}
	if !rel.IsParticipant(reader.ID) {
		return 0, ErrNotParticipant
	}
	return svc.repo.CountUnreadMessages(ctx, relationshipID, reader.ID)
}
