package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wook219/pyeonjip-support/internal/auth"
	"github.com/wook219/pyeonjip-support/internal/database"
	"github.com/wook219/pyeonjip-support/internal/model"
)

type createRoomRequest struct {
	Category string `json:"category"`
}

// CreateWaitingRoom opens a new support conversation in WAITING state
// for the selected category.
func CreateWaitingRoom(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := auth.ClaimsFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Authorization required.")
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		if !model.ValidCategory(req.Category) {
			respondError(w, http.StatusBadRequest, "Unknown category.")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Authorization required.")
			return
		}

		room, err := db.CreateRoom(ctx, database.CreateRoomParams{
			UserID:    pgtype.UUID{Bytes: userID, Valid: true},
			UserEmail: claims.Email,
			Category:  req.Category,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create waiting room.")
			log.Printf("failed to create room: %v", err)
			return
		}

		respondJSON(w, http.StatusCreated, toRoom(room))
	}
}

// GetRoom fetches a room by id. Only the room owner or an admin may
// look at it.
func GetRoom(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, roomID, ok := roomRequest(w, r)
		if !ok {
			return
		}

		room, err := db.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "Chat room not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to load room %d: %v", roomID, err)
			return
		}

		if room.UserEmail != claims.Email && !claims.IsAdmin() {
			respondError(w, http.StatusNotFound, "Chat room not found.")
			return
		}

		respondJSON(w, http.StatusOK, toRoom(room))
	}
}

// ListRoomsByUser returns every room the caller has opened, newest
// first. The storefront filters CLOSED ones into the history view.
func ListRoomsByUser(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := auth.ClaimsFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Authorization required.")
			return
		}

		rooms, err := db.ListRoomsByUser(ctx, claims.Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to list rooms for %s: %v", claims.Email, err)
			return
		}

		out := make([]model.Room, 0, len(rooms))
		for _, room := range rooms {
			out = append(out, toRoom(room))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// CloseRoom transitions a room to CLOSED. Closing twice is a no-op
// that still reports the closed room.
func CloseRoom(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, roomID, ok := roomRequest(w, r)
		if !ok {
			return
		}

		room, err := db.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "Chat room not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to load room %d: %v", roomID, err)
			return
		}

		if room.UserEmail != claims.Email && !claims.IsAdmin() {
			respondError(w, http.StatusNotFound, "Chat room not found.")
			return
		}

		if room.Status != string(model.RoomClosed) {
			room, err = db.UpdateRoomStatus(ctx, database.UpdateRoomStatusParams{
				ID:     roomID,
				Status: string(model.RoomClosed),
			})
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to close chat room.")
				log.Printf("failed to close room %d: %v", roomID, err)
				return
			}
		}

		respondJSON(w, http.StatusOK, toRoom(room))
	}
}

// MessageHistory returns the ordered message sequence for a room.
func MessageHistory(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, roomID, ok := roomRequest(w, r)
		if !ok {
			return
		}

		room, err := db.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "Chat room not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to load room %d: %v", roomID, err)
			return
		}

		if room.UserEmail != claims.Email && !claims.IsAdmin() {
			respondError(w, http.StatusNotFound, "Chat room not found.")
			return
		}

		messages, err := db.ListMessagesByRoom(ctx, roomID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to load messages for room %d: %v", roomID, err)
			return
		}

		out := make([]model.ChatMessage, 0, len(messages))
		for _, m := range messages {
			out = append(out, toMessage(m))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// roomRequest pulls the caller's claims and the roomID path parameter,
// writing the error response itself when either is missing.
func roomRequest(w http.ResponseWriter, r *http.Request) (*auth.Claims, int64, bool) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authorization required.")
		return nil, 0, false
	}

	roomID, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid room id.")
		return nil, 0, false
	}

	return claims, roomID, true
}
