package hub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// Client contains client connection information. One client maps to
// one socket scoped to one room.
type Client struct {
	UserID    uuid.UUID
	Email     string
	RoomID    int64
	Hub       *Hub
	MessageCh chan model.Frame

	conn       *websocket.Conn
	messageLim *rate.Limiter
}

// NewClient returns a new instance of Client.
func NewClient(conn *websocket.Conn, userID uuid.UUID, email string, roomID int64) *Client {
	return &Client{
		conn:      conn,
		UserID:    userID,
		Email:     email,
		RoomID:    roomID,
		MessageCh: make(chan model.Frame, 64),
	}
}

func (c *Client) SetMessageLimiter(requests int, window time.Duration) {
	c.messageLim = rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}

// ReadPump reads incoming commands from the websocket stream and hands
// them to the hub.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister <- c
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("%v", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var cmd model.Command
		if err := json.Unmarshal(p, &cmd); err != nil {
			log.Printf("failed to process command from client: %v", err)
			continue
		}

		if c.messageLim != nil && !c.messageLim.Allow() {
			log.Printf("rate limit exceeded for %s in room %d", c.Email, c.RoomID)
			continue
		}

		select {
		case c.Hub.ClientCmd <- Inbound{Client: c, Cmd: cmd}:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump forwards hub frames to the outgoing websocket stream.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case frame, ok := <-c.MessageCh:
			// The hub closes MessageCh on unregister; stop writing then.
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			p, err := json.Marshal(frame)
			if err != nil {
				log.Printf("failed to encode frame: %v", err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = c.conn.Write(writeCtx, websocket.MessageText, p)
			cancel()
			if err != nil {
				log.Printf("failed to write frame to client: %v", err)
				continue
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}
