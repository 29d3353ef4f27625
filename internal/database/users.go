package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (user_id, username, email, hashed_password, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING user_id, username, email, hashed_password, role, created_at
`

type CreateUserParams struct {
	UserID         pgtype.UUID
	Username       string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.UserID, arg.Username, arg.Email, arg.HashedPassword, arg.Role)
	var u User
	err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT user_id, username, email, hashed_password, role, created_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT user_id, username, email, hashed_password, role, created_at
FROM users
WHERE user_id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, userID pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, userID)
	var u User
	err := row.Scan(&u.UserID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt)
	return u, err
}
