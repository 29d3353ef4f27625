package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	UserID         pgtype.UUID
	Username       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      pgtype.Timestamptz
}

type ChatRoom struct {
	ID        int64
	UserID    pgtype.UUID
	UserEmail string
	Category  string
	Status    string
	CreatedAt pgtype.Timestamptz
}

type ChatMessage struct {
	ID          int64
	ChatRoomID  int64
	SenderEmail string
	Content     string
	CreatedAt   pgtype.Timestamptz
}
