package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRoom = `
INSERT INTO chat_rooms (user_id, user_email, category, status)
VALUES ($1, $2, $3, 'WAITING')
RETURNING id, user_id, user_email, category, status, created_at
`

type CreateRoomParams struct {
	UserID    pgtype.UUID
	UserEmail string
	Category  string
}

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (ChatRoom, error) {
	row := q.db.QueryRow(ctx, createRoom, arg.UserID, arg.UserEmail, arg.Category)
	var r ChatRoom
	err := row.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.Category, &r.Status, &r.CreatedAt)
	return r, err
}

const getRoom = `
SELECT id, user_id, user_email, category, status, created_at
FROM chat_rooms
WHERE id = $1
`

func (q *Queries) GetRoom(ctx context.Context, id int64) (ChatRoom, error) {
	row := q.db.QueryRow(ctx, getRoom, id)
	var r ChatRoom
	err := row.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.Category, &r.Status, &r.CreatedAt)
	return r, err
}

const listRoomsByUser = `
SELECT id, user_id, user_email, category, status, created_at
FROM chat_rooms
WHERE user_email = $1
ORDER BY created_at DESC
`

func (q *Queries) ListRoomsByUser(ctx context.Context, userEmail string) ([]ChatRoom, error) {
	rows, err := q.db.Query(ctx, listRoomsByUser, userEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []ChatRoom
	for rows.Next() {
		var r ChatRoom
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.Category, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

const listWaitingRooms = `
SELECT id, user_id, user_email, category, status, created_at
FROM chat_rooms
WHERE status = 'WAITING'
ORDER BY created_at ASC
`

func (q *Queries) ListWaitingRooms(ctx context.Context) ([]ChatRoom, error) {
	rows, err := q.db.Query(ctx, listWaitingRooms)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []ChatRoom
	for rows.Next() {
		var r ChatRoom
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.Category, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

const updateRoomStatus = `
UPDATE chat_rooms
SET status = $2
WHERE id = $1
RETURNING id, user_id, user_email, category, status, created_at
`

type UpdateRoomStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateRoomStatus(ctx context.Context, arg UpdateRoomStatusParams) (ChatRoom, error) {
	row := q.db.QueryRow(ctx, updateRoomStatus, arg.ID, arg.Status)
	var r ChatRoom
	err := row.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.Category, &r.Status, &r.CreatedAt)
	return r, err
}

const activateRoom = `
UPDATE chat_rooms
SET status = 'ACTIVE'
WHERE id = $1 AND status = 'WAITING'
RETURNING id, user_id, user_email, category, status, created_at
`

// ActivateRoom claims a waiting room. Returns pgx.ErrNoRows when the
// room does not exist or has already been claimed.
func (q *Queries) ActivateRoom(ctx context.Context, id int64) (ChatRoom, error) {
	row := q.db.QueryRow(ctx, activateRoom, id)
	var r ChatRoom
	err := row.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.Category, &r.Status, &r.CreatedAt)
	return r, err
}
