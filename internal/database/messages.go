package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createMessage = `
INSERT INTO chat_messages (chat_room_id, sender_email, content, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, chat_room_id, sender_email, content, created_at
`

type CreateMessageParams struct {
	ChatRoomID  int64
	SenderEmail string
	Content     string
	CreatedAt   pgtype.Timestamptz
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, createMessage,
		arg.ChatRoomID, arg.SenderEmail, arg.Content, arg.CreatedAt)
	var m ChatMessage
	err := row.Scan(&m.ID, &m.ChatRoomID, &m.SenderEmail, &m.Content, &m.CreatedAt)
	return m, err
}

const updateMessage = `
UPDATE chat_messages
SET content = $2
WHERE id = $1 AND sender_email = $3
RETURNING id, chat_room_id, sender_email, content, created_at
`

type UpdateMessageParams struct {
	ID          int64
	Content     string
	SenderEmail string
}

// UpdateMessage edits a message in place. The sender check keeps a
// client from editing someone else's message.
func (q *Queries) UpdateMessage(ctx context.Context, arg UpdateMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, updateMessage, arg.ID, arg.Content, arg.SenderEmail)
	var m ChatMessage
	err := row.Scan(&m.ID, &m.ChatRoomID, &m.SenderEmail, &m.Content, &m.CreatedAt)
	return m, err
}

const deleteMessage = `
DELETE FROM chat_messages
WHERE id = $1 AND sender_email = $2
RETURNING id, chat_room_id, sender_email, content, created_at
`

type DeleteMessageParams struct {
	ID          int64
	SenderEmail string
}

func (q *Queries) DeleteMessage(ctx context.Context, arg DeleteMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, deleteMessage, arg.ID, arg.SenderEmail)
	var m ChatMessage
	err := row.Scan(&m.ID, &m.ChatRoomID, &m.SenderEmail, &m.Content, &m.CreatedAt)
	return m, err
}

const listMessagesByRoom = `
SELECT id, chat_room_id, sender_email, content, created_at
FROM chat_messages
WHERE chat_room_id = $1
ORDER BY created_at ASC, id ASC
`

func (q *Queries) ListMessagesByRoom(ctx context.Context, chatRoomID int64) ([]ChatMessage, error) {
	rows, err := q.db.Query(ctx, listMessagesByRoom, chatRoomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatRoomID, &m.SenderEmail, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
