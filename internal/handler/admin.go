package handler

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wook219/pyeonjip-support/internal/broker"
	"github.com/wook219/pyeonjip-support/internal/database"
	"github.com/wook219/pyeonjip-support/internal/model"
)

// ListWaitingRooms returns every unclaimed room, oldest first. The
// dashboard fetches this fresh on each open.
func ListWaitingRooms(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rooms, err := db.ListWaitingRooms(ctx)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error.")
			log.Printf("failed to list waiting rooms: %v", err)
			return
		}

		out := make([]model.Room, 0, len(rooms))
		for _, room := range rooms {
			out = append(out, toRoom(room))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// ActivateRoom claims a waiting room for the calling admin and pushes
// an activation frame to the waiting user's channel. Claiming a room
// that is no longer WAITING fails with a conflict so two admins cannot
// both take it.
func ActivateRoom(db *database.Queries, js jetstream.JetStream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		roomID, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid room id.")
			return
		}

		room, err := db.ActivateRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusConflict, "Chat room is not waiting.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to activate chat room.")
			log.Printf("failed to activate room %d: %v", roomID, err)
			return
		}

		activated := toRoom(room)

		// The waiting user observes activation through their user-scoped
		// channel; the dashboard only gets the HTTP response.
		err = broker.Publish(ctx, js, broker.UserSubject(activated.UserID), model.Frame{
			Type:   model.FrameRoomActivated,
			RoomID: activated.ID,
			UserID: activated.UserID,
			Room:   &activated,
		})
		if err != nil {
			log.Printf("%v", err)
		}

		respondJSON(w, http.StatusOK, activated)

		slog.InfoContext(ctx, "room activated",
			slog.Int64("room_id", activated.ID),
			slog.String("user_email", activated.UserEmail))
	}
}
