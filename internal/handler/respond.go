// Package handler implements the chat service HTTP endpoints.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/wook219/pyeonjip-support/internal/database"
	"github.com/wook219/pyeonjip-support/internal/model"
)

// errorResponse is what the storefront reads on failures; it looks at
// the message field only.
type errorResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Message: message})
}

func toRoom(r database.ChatRoom) model.Room {
	return model.Room{
		ID:        r.ID,
		UserID:    r.UserID.Bytes,
		UserEmail: r.UserEmail,
		Category:  r.Category,
		Status:    model.RoomStatus(r.Status),
		CreatedAt: r.CreatedAt.Time,
	}
}

func toMessage(m database.ChatMessage) model.ChatMessage {
	return model.ChatMessage{
		ID:          m.ID,
		ChatRoomID:  m.ChatRoomID,
		SenderEmail: m.SenderEmail,
		Message:     m.Content,
		Timestamp:   m.CreatedAt.Time,
	}
}
