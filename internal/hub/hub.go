// Package hub tracks connected clients per room and routes frames
// between the websocket layer, the database and the broker.
package hub

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wook219/pyeonjip-support/internal/broker"
	"github.com/wook219/pyeonjip-support/internal/database"
	"github.com/wook219/pyeonjip-support/internal/model"
)

type sanitizer interface {
	Sanitize(s string) string
	SanitizeBytes(p []byte) []byte
}

type Registration struct {
	Client *Client
	Done   chan struct{}
}

// Inbound pairs a client command with the client that sent it.
type Inbound struct {
	Client *Client
	Cmd    model.Command
}

// Hub contains the state needed to route chat traffic. Clients are
// indexed by room for message fan-out and by user for activation
// delivery.
type Hub struct {
	db        *database.Queries
	jetstream jetstream.JetStream
	rooms     map[int64]map[uuid.UUID]*Client
	users     map[uuid.UUID]*Client

	Register    chan Registration
	Unregister  chan *Client
	ClientCmd   chan Inbound
	BrokerFrame chan model.Frame

	sanitizer sanitizer
}

// NewHub returns a new instance of Hub.
func NewHub(js jetstream.JetStream, db *database.Queries) *Hub {
	return &Hub{
		db:          db,
		jetstream:   js,
		rooms:       make(map[int64]map[uuid.UUID]*Client),
		users:       make(map[uuid.UUID]*Client),
		Register:    make(chan Registration),
		Unregister:  make(chan *Client),
		ClientCmd:   make(chan Inbound, 1024),
		BrokerFrame: make(chan model.Frame, 1024),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// Run manages incoming and outgoing hub traffic. A nil stream skips
// the broker subscription; frames can still be fed on BrokerFrame.
func (h *Hub) Run(ctx context.Context, stream jetstream.Stream) {
	if stream != nil {
		if err := broker.Subscribe(ctx, stream, h.BrokerFrame); err != nil {
			log.Printf("failed to subscribe to broker: %v", err)
		}
	}

	for {
		select {
		case reg := <-h.Register:
			c := reg.Client
			room, ok := h.rooms[c.RoomID]
			if !ok {
				room = make(map[uuid.UUID]*Client)
				h.rooms[c.RoomID] = room
			}
			room[c.UserID] = c
			h.users[c.UserID] = c
			c.Hub = h
			close(reg.Done)

		case c := <-h.Unregister:
			if room, ok := h.rooms[c.RoomID]; ok && room[c.UserID] == c {
				delete(room, c.UserID)
				if len(room) == 0 {
					delete(h.rooms, c.RoomID)
				}
			}
			if h.users[c.UserID] == c {
				delete(h.users, c.UserID)
			}
			close(c.MessageCh)

		case in := <-h.ClientCmd:
			h.handleCommand(ctx, in)

		case frame := <-h.BrokerFrame:
			h.dispatch(frame)

		case <-ctx.Done():
			log.Printf("context cancelled: %v", ctx.Err())
			return
		}
	}
}

// dispatch routes a broker frame to its audience. Activation frames go
// to the single user-scoped channel; everything else fans out to the
// room. Unknown frame types are dropped.
func (h *Hub) dispatch(frame model.Frame) {
	switch frame.Type {
	case model.FrameRoomActivated:
		c, ok := h.users[frame.UserID]
		if !ok {
			return
		}
		select {
		case c.MessageCh <- frame:
		default:
			log.Println("skipping activation frame - channel full or client slow")
		}

	case model.FrameMessageCreated, model.FrameMessageEdited, model.FrameMessageDeleted:
		for _, c := range h.rooms[frame.RoomID] {
			select {
			case c.MessageCh <- frame:
			default:
				log.Println("skipping message frame - channel full or client slow")
			}
		}

	default:
		log.Printf("dropping frame with unknown type %q", frame.Type)
	}
}

func (h *Hub) handleCommand(ctx context.Context, in Inbound) {
	c := in.Client
	cmd := in.Cmd

	// A client only ever speaks for the room it registered with.
	if cmd.ChatRoomID != c.RoomID {
		log.Printf("dropping command for room %d from client in room %d", cmd.ChatRoomID, c.RoomID)
		return
	}

	switch cmd.Type {
	case model.CommandSend:
		room, err := h.db.GetRoom(ctx, c.RoomID)
		if err != nil {
			log.Printf("failed to load room %d: %v", c.RoomID, err)
			return
		}
		if room.Status != string(model.RoomActive) {
			log.Printf("dropping send to room %d with status %s", c.RoomID, room.Status)
			return
		}

		// Sanitize incoming messages to prevent XSS.
		content := h.sanitizer.Sanitize(cmd.Message)

		// Persist first; the DB generates the ID the clients reconcile
		// against.
		created, err := h.db.CreateMessage(ctx, database.CreateMessageParams{
			ChatRoomID:  c.RoomID,
			SenderEmail: c.Email,
			Content:     content,
			CreatedAt:   pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
		})
		if err != nil {
			log.Printf("failed to store message to database: %v", err)
			return
		}

		h.publish(ctx, broker.RoomSubject(c.RoomID), model.Frame{
			Type:    model.FrameMessageCreated,
			RoomID:  c.RoomID,
			Message: toWireMessage(created),
		})

	case model.CommandEdit:
		content := h.sanitizer.Sanitize(cmd.Message)
		updated, err := h.db.UpdateMessage(ctx, database.UpdateMessageParams{
			ID:          cmd.MessageID,
			Content:     content,
			SenderEmail: c.Email,
		})
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				log.Printf("failed to update message %d: %v", cmd.MessageID, err)
			}
			return
		}

		h.publish(ctx, broker.RoomSubject(c.RoomID), model.Frame{
			Type:      model.FrameMessageEdited,
			RoomID:    c.RoomID,
			MessageID: updated.ID,
			Message:   toWireMessage(updated),
		})

	case model.CommandDelete:
		deleted, err := h.db.DeleteMessage(ctx, database.DeleteMessageParams{
			ID:          cmd.MessageID,
			SenderEmail: c.Email,
		})
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				log.Printf("failed to delete message %d: %v", cmd.MessageID, err)
			}
			return
		}

		h.publish(ctx, broker.RoomSubject(c.RoomID), model.Frame{
			Type:      model.FrameMessageDeleted,
			RoomID:    c.RoomID,
			MessageID: deleted.ID,
		})

	default:
		log.Printf("dropping command with unknown type %q", cmd.Type)
	}
}

func (h *Hub) publish(ctx context.Context, subject string, frame model.Frame) {
	if err := broker.Publish(ctx, h.jetstream, subject, frame); err != nil {
		log.Printf("%v", err)
	}
}

func toWireMessage(m database.ChatMessage) *model.ChatMessage {
	return &model.ChatMessage{
		ID:          m.ID,
		ChatRoomID:  m.ChatRoomID,
		SenderEmail: m.SenderEmail,
		Message:     m.Content,
		Timestamp:   m.CreatedAt.Time,
	}
}
