package handler

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wook219/pyeonjip-support/internal/auth"
	"github.com/wook219/pyeonjip-support/internal/database"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// Signup handles user account creation.
func Signup(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		if req.Email == "" || req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username, email and password are required.")
			return
		}

		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Server error.")
			log.Printf("%v", err)
			return
		}

		user, err := db.CreateUser(ctx, database.CreateUserParams{
			UserID:         pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Username:       req.Username,
			Email:          req.Email,
			HashedPassword: hashed,
			Role:           auth.RoleUser,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to create user entry in database: %v", err)
			return
		}

		respondJSON(w, http.StatusCreated, map[string]string{
			"email":    user.Email,
			"username": user.Username,
		})

		slog.InfoContext(ctx, "user signed up",
			slog.String("username", user.Username))
	}
}

// Login verifies credentials and issues an access token carrying email
// and role, which the storefront decodes client-side.
func Login(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		user, err := db.GetUserByEmail(ctx, req.Email)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid email or password.")
			log.Printf("failed to retrieve user from db: %v", err)
			return
		}

		ok, err := auth.CheckPasswordHash(req.Password, user.HashedPassword)
		if err != nil || !ok {
			respondError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}

		token, err := auth.MakeJWT(user.UserID.Bytes, user.Email, user.Role,
			os.Getenv("JWT_SECRET"), 30*time.Minute)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Server error.")
			log.Printf("failed to make JWT: %v", err)
			return
		}

		respondJSON(w, http.StatusOK, loginResponse{
			AccessToken: token,
			Email:       user.Email,
			Role:        user.Role,
		})

		slog.InfoContext(ctx, "user logged in",
			slog.String("username", user.Username))
	}
}
