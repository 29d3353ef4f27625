package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage represents a single chat message, used for NATS payloads,
// WebSocket frames, and the message history endpoint.
type ChatMessage struct {
	ID          int64     `json:"id"`
	ChatRoomID  int64     `json:"chatRoomId"`
	SenderEmail string    `json:"senderEmail"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// FrameType discriminates frames pushed to connected clients.
type FrameType string

const (
	FrameMessageCreated FrameType = "MESSAGE_CREATED"
	FrameMessageEdited  FrameType = "MESSAGE_EDITED"
	FrameMessageDeleted FrameType = "MESSAGE_DELETED"
	FrameRoomActivated  FrameType = "ROOM_ACTIVATED"
)

// Frame is the envelope delivered on the room-scoped and user-scoped
// channels. Message frames carry RoomID; activation frames carry the
// target UserID and the activated room.
type Frame struct {
	Type      FrameType    `json:"type"`
	RoomID    int64        `json:"roomId,omitempty"`
	UserID    uuid.UUID    `json:"userId,omitempty"`
	MessageID int64        `json:"messageId,omitempty"`
	Message   *ChatMessage `json:"message,omitempty"`
	Room      *Room        `json:"room,omitempty"`
}

// CommandType discriminates commands a client sends over its socket.
type CommandType string

const (
	CommandSend   CommandType = "SEND"
	CommandEdit   CommandType = "EDIT"
	CommandDelete CommandType = "DELETE"
)

// Command is the client-to-server websocket payload.
type Command struct {
	Type       CommandType `json:"type"`
	ChatRoomID int64       `json:"chatRoomId"`
	MessageID  int64       `json:"messageId,omitempty"`
	Message    string      `json:"message,omitempty"`
}
