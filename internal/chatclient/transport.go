package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// Handlers receives pushed frames. Each incoming frame is dispatched
// to exactly one handler; frames with an unknown type are dropped.
type Handlers struct {
	OnMessage        func(msg model.ChatMessage)
	OnMessageEdited  func(msg model.ChatMessage)
	OnMessageDeleted func(messageID int64)
	OnRoomActivated  func(room model.Room)
}

// Reconnect policy: when the socket drops unexpectedly, redial up to
// reconnectAttempts times with jittered exponential backoff. The same
// room id is presented on redial, so the server re-establishes the
// identical room- and user-scoped subscriptions. Sends issued while
// disconnected fail fast and are never replayed.
const (
	reconnectAttempts = 5
	reconnectBase     = 500 * time.Millisecond
	reconnectJitter   = 100 * time.Millisecond
)

// Transport owns one persistent socket scoped to one room.
type Transport struct {
	baseURL  string
	token    string
	roomID   int64
	handlers Handlers

	mu     sync.Mutex
	conn   *websocket.Conn
	live   bool
	closed bool
	cancel context.CancelFunc
}

// Dial opens the socket for roomID and starts dispatching frames to h.
// The caller must Close the returned transport; Close is idempotent.
func Dial(ctx context.Context, baseURL, token string, roomID int64, h Handlers) (*Transport, error) {
	t := &Transport{
		baseURL:  baseURL,
		token:    token,
		roomID:   roomID,
		handlers: h,
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	t.conn = conn
	t.live = true
	t.cancel = cancel

	go t.readLoop(loopCtx)

	return t, nil
}

// Send transmits a message command. It is fire-and-forget: delivery is
// confirmed only by the echoed frame, which the caller reconciles
// against its optimistic local copy.
func (t *Transport) Send(text string) error {
	return t.write(context.Background(), model.Command{
		Type:       model.CommandSend,
		ChatRoomID: t.roomID,
		Message:    text,
	})
}

// EditMessage asks the server to replace a confirmed message's text.
func (t *Transport) EditMessage(ctx context.Context, messageID int64, text string) error {
	return t.write(ctx, model.Command{
		Type:       model.CommandEdit,
		ChatRoomID: t.roomID,
		MessageID:  messageID,
		Message:    text,
	})
}

// DeleteMessage asks the server to remove a confirmed message.
func (t *Transport) DeleteMessage(ctx context.Context, messageID int64) error {
	return t.write(ctx, model.Command{
		Type:       model.CommandDelete,
		ChatRoomID: t.roomID,
		MessageID:  messageID,
	})
}

// Close tears down the subscription and the connection. Safe to call
// twice.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.live = false

	if t.cancel != nil {
		t.cancel()
	}
	if t.conn != nil {
		t.conn.Close(websocket.StatusNormalClosure, "leaving room")
		t.conn = nil
	}
	return nil
}

func (t *Transport) write(ctx context.Context, cmd model.Command) error {
	t.mu.Lock()
	conn, live := t.conn, t.live
	t.mu.Unlock()

	if !live || conn == nil {
		return fmt.Errorf("%w: socket for room %d is not connected", ErrTransportUnavailable, t.roomID)
	}

	p, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("chatclient: could not encode command: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.Write(writeCtx, websocket.MessageText, p); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	return nil
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, fmt.Errorf("chatclient: invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = fmt.Sprintf("roomId=%d", t.roomID)

	header := http.Header{}
	if t.token != "" {
		header.Set("Authorization", "Bearer "+t.token)
	}

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader: header,
	})
	return conn, err
}

func (t *Transport) readLoop(ctx context.Context) {
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn == nil {
			return
		}

		_, p, err := conn.Read(ctx)
		if err != nil {
			t.mu.Lock()
			closed := t.closed
			t.live = false
			t.mu.Unlock()
			if closed || ctx.Err() != nil {
				return
			}

			if err := t.reconnect(ctx); err != nil {
				log.Printf("chatclient: giving up on room %d after reconnect attempts: %v", t.roomID, err)
				t.Close()
				return
			}
			continue
		}

		t.dispatch(p)
	}
}

// reconnect redials with backoff and swaps the new connection in.
// While it runs, live stays false so writes fail fast.
func (t *Transport) reconnect(ctx context.Context) error {
	b := retry.WithMaxRetries(reconnectAttempts,
		retry.WithJitter(reconnectJitter,
			retry.NewExponential(reconnectBase)))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		conn, err := t.dial(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "closed during reconnect")
			return nil
		}
		t.conn = conn
		t.live = true
		t.mu.Unlock()
		return nil
	})
}

// dispatch routes one frame to exactly one handler.
func (t *Transport) dispatch(p []byte) {
	var frame model.Frame
	if err := json.Unmarshal(p, &frame); err != nil {
		log.Printf("chatclient: could not decode frame: %v", err)
		return
	}

	switch frame.Type {
	case model.FrameMessageCreated:
		if frame.Message != nil && t.handlers.OnMessage != nil {
			t.handlers.OnMessage(*frame.Message)
		}
	case model.FrameMessageEdited:
		if frame.Message != nil && t.handlers.OnMessageEdited != nil {
			t.handlers.OnMessageEdited(*frame.Message)
		}
	case model.FrameMessageDeleted:
		if t.handlers.OnMessageDeleted != nil {
			t.handlers.OnMessageDeleted(frame.MessageID)
		}
	case model.FrameRoomActivated:
		if frame.Room != nil && t.handlers.OnRoomActivated != nil {
			t.handlers.OnRoomActivated(*frame.Room)
		}
	default:
		// Unknown frame types must not crash the session.
		log.Printf("chatclient: dropping frame with unknown type %q", frame.Type)
	}
}
