package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/jackc/pgx/v5"

	"github.com/wook219/pyeonjip-support/internal/auth"
	"github.com/wook219/pyeonjip-support/internal/database"
	hb "github.com/wook219/pyeonjip-support/internal/hub"
)

// ServeWs upgrades the connection and registers the client with the
// hub, scoped to the requested room. The same socket carries the
// room-scoped message frames and the user-scoped activation frames.
func ServeWs(h *hb.Hub, db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, err := auth.ClaimsFromContext(ctx)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Authorization required.")
			return
		}

		roomID, err := strconv.ParseInt(r.URL.Query().Get("roomId"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid room id.")
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

		userID, err := claims.UserID()
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Authorization required.")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("failed to upgrade connection to websocket: %v", err)
			return
		}

		c := hb.NewClient(conn, userID, claims.Email, roomID)
		c.SetMessageLimiter(30, time.Minute)

		reg := hb.Registration{
			Client: c,
			Done:   make(chan struct{}),
		}
		h.Register <- reg
		<-reg.Done

		// Block on ReadPump; the request context is cancelled as soon as
		// this handler returns.
		go c.WritePump(ctx)
		c.ReadPump(ctx)
	}
}
