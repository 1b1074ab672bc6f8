package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lazoapp/lazo/core/message"
)

type messageRow struct {
	ID             string    `db:"id"`
	RelationshipID string    `db:"relationship_id"`
	SenderID       string    `db:"sender_id"`
	Body           string    `db:"body"`
	SentAt         time.Time `db:"sent_at"`
	ReadAt         null.Time `db:"read_at"`
}

func boilMessage(m message.Message) messageRow {
	row := messageRow{
		ID:             m.ID,
		RelationshipID: m.RelationshipID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		SentAt:         m.SentAt,
	}
	if m.ReadAt != nil {
		row.ReadAt = null.TimeFrom(*m.ReadAt)
	}
	return row
}

func unboilMessage(row messageRow) message.Message {
	m := message.Message{
		ID:             row.ID,
		RelationshipID: row.RelationshipID,
		SenderID:       row.SenderID,
		Body:           row.Body,
		SentAt:         row.SentAt,
	}
	if row.ReadAt.Valid {
		readAt := row.ReadAt.Time
		m.ReadAt = &readAt
	}
	return m
}

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	row := boilMessage(m)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO message (id, relationship_id, sender_id, body, sent_at, read_at)
		VALUES (:id, :relationship_id, :sender_id, :body, :sent_at, :read_at)`,
		row,
	)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, relationshipID string) ([]message.Message, error) {
	var rows []messageRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM message WHERE relationship_id = $1 ORDER BY sent_at ASC`, relationshipID)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, unboilMessage(row))
	}
	return msgs, nil
}

func (repo *messageRepository) MarkMessagesRead(ctx context.Context, relationshipID, readerID string, readAt time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE message SET read_at = $1
		WHERE relationship_id = $2 AND sender_id <> $3 AND read_at IS NULL`,
		readAt, relationshipID, readerID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "marking messages read")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *messageRepository) CountUnreadMessages(ctx context.Context, relationshipID, readerID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM message
		WHERE relationship_id = $1 AND sender_id <> $2 AND read_at IS NULL`,
		relationshipID, readerID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "counting unread messages")
	}
	return count, nil
}
