package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lazoapp/lazo/core/message"
)

type messageRepository struct {
	db *DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	repo.db.messages[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, relationshipID string) ([]message.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]message.Message, 0, len(repo.db.messages))
	for _, m := range repo.db.messages {
		if m.RelationshipID == relationshipID {
			msgs = append(msgs, *m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs, nil
}

func (repo *messageRepository) MarkMessagesRead(ctx context.Context, relationshipID, readerID string, readAt time.Time) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, m := range repo.db.messages {
		if m.RelationshipID == relationshipID && m.SenderID != readerID && m.ReadAt == nil {
			at := readAt
			m.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (repo *messageRepository) CountUnreadMessages(ctx context.Context, relationshipID, readerID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, m := range repo.db.messages {
		if m.RelationshipID == relationshipID && m.SenderID != readerID && m.ReadAt == nil {
			count++
		}
	}
	return count, nil
}
