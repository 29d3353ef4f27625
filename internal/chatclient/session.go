package chatclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// State is the conversation lifecycle tag. Every view decision hangs
// off this one value instead of a pile of booleans.
type State int

const (
	StateSelectingCategory State = iota
	StateWaiting
	StateActive
	StateClosed
	StateHistory
)

func (s State) String() string {
	switch s {
	case StateSelectingCategory:
		return "selecting_category"
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateHistory:
		return "history"
	}
	return "unknown"
}

// Transporter is the room socket as the session sees it.
type Transporter interface {
	Send(text string) error
	EditMessage(ctx context.Context, messageID int64, text string) error
	DeleteMessage(ctx context.Context, messageID int64) error
	Close() error
}

// DialFunc opens a transport for a room. Swappable in tests.
type DialFunc func(ctx context.Context, roomID int64, h Handlers) (Transporter, error)

// Session drives a single support conversation: category selection,
// waiting for an admin, active messaging, closing, and the history
// view. Any network failure during a transition surfaces as an error
// and leaves the session in its prior state.
type Session struct {
	mu    sync.Mutex
	api   *API
	email string
	dial  DialFunc

	state     State
	category  string
	room      *model.Room
	store     *Store
	history   []model.Room
	noHistory bool
	transport Transporter
}

// NewSession returns a session in SelectingCategory for the viewer
// identified by email.
func NewSession(api *API, email string) *Session {
	s := &Session{
		api:   api,
		email: email,
		state: StateSelectingCategory,
	}
	s.dial = func(ctx context.Context, roomID int64, h Handlers) (Transporter, error) {
		return Dial(ctx, api.BaseURL, api.Token, roomID, h)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Room returns the current room, or nil outside a conversation.
func (s *Session) Room() *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return nil
	}
	room := *s.room
	return &room
}

// Messages returns the conversation in order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Snapshot()
}

// History returns the closed rooms loaded by the history view.
func (s *Session) History() []model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Room, len(s.history))
	copy(out, s.history)
	return out
}

// NoHistory reports whether the history view came back empty.
func (s *Session) NoHistory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noHistory
}

// CanSend reports whether the input should be enabled: only an ACTIVE
// room accepts messages. History rooms render read-only.
func (s *Session) CanSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSendLocked()
}

func (s *Session) canSendLocked() bool {
	return s.state == StateActive && s.room != nil && s.room.Status == model.RoomActive
}

// SelectCategory handles the user's category choice. The history
// pseudo-category loads closed rooms instead of creating one; any
// real category creates a WAITING room and opens its transport.
func (s *Session) SelectCategory(ctx context.Context, category string) error {
	if category == model.CategoryHistory {
		rooms, err := s.api.RoomsByUser(ctx)
		if err != nil {
			return err
		}

		closed := make([]model.Room, 0, len(rooms))
		for _, room := range rooms {
			if room.Status == model.RoomClosed {
				closed = append(closed, room)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closeTransportLocked()
		s.category = category
		s.room = nil
		s.store = nil
		s.history = closed
		s.noHistory = len(closed) == 0
		s.state = StateHistory
		return nil
	}

	if !model.ValidCategory(category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidationFailed, category)
	}

	room, err := s.api.CreateWaitingRoom(ctx, category)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.room = &room
	s.store = NewStore(s.email)
	s.state = StateWaiting
	return s.openTransportLocked(ctx, room.ID)
}

// Resume short-circuits into a room reached by deep link, landing in
// Waiting or Active depending on the fetched status. A CLOSED room
// renders read-only.
func (s *Session) Resume(ctx context.Context, roomID int64) error {
	room, err := s.api.Room(ctx, roomID)
	if err != nil {
		return err
	}

	switch room.Status {
	case model.RoomWaiting:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.category = room.Category
		s.room = &room
		s.store = NewStore(s.email)
		s.state = StateWaiting
		return s.openTransportLocked(ctx, room.ID)

	case model.RoomActive, model.RoomClosed:
		history, err := s.api.MessageHistory(ctx, roomID)
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.category = room.Category
		s.room = &room
		s.store = NewStore(s.email)
		s.store.Reset(history)
		s.state = StateActive
		if room.Status == model.RoomActive {
			return s.openTransportLocked(ctx, room.ID)
		}
		s.closeTransportLocked()
		return nil
	}

	return fmt.Errorf("%w: room %d has unknown status %q", ErrServerError, roomID, room.Status)
}

// OpenHistoryRoom loads a closed room from the history list.
func (s *Session) OpenHistoryRoom(ctx context.Context, roomID int64) error {
	return s.Resume(ctx, roomID)
}

// RefreshRoom re-fetches the current room. While waiting, this is the
// pull-based way to observe activation when no push frame arrived.
func (s *Session) RefreshRoom(ctx context.Context) error {
	s.mu.Lock()
	if s.room == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no current room", ErrValidationFailed)
	}
	roomID := s.room.ID
	s.mu.Unlock()

	room, err := s.api.Room(ctx, roomID)
	if err != nil {
		return err
	}

	if room.Status == model.RoomActive {
		s.activate(room)
	}
	return nil
}

// Send appends an optimistic local echo and fires the message over
// the transport. On transport failure the echo is rolled back so the
// view keeps its prior state.
func (s *Session) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrValidationFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canSendLocked() {
		return fmt.Errorf("%w: room is not active", ErrValidationFailed)
	}
	if s.transport == nil {
		return fmt.Errorf("%w: no open transport", ErrTransportUnavailable)
	}

	tempID := s.store.AppendLocal(text)
	if err := s.transport.Send(text); err != nil {
		s.store.DropTemp(tempID)
		return err
	}
	return nil
}

// Edit asks the server to replace one of our confirmed messages.
func (s *Session) Edit(ctx context.Context, messageID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrValidationFailed)
	}

	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		return fmt.Errorf("%w: no open transport", ErrTransportUnavailable)
	}
	return transport.EditMessage(ctx, messageID, text)
}

// Delete asks the server to remove one of our confirmed messages.
func (s *Session) Delete(ctx context.Context, messageID int64) error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()

	if transport == nil {
		return fmt.Errorf("%w: no open transport", ErrTransportUnavailable)
	}
	return transport.DeleteMessage(ctx, messageID)
}

// Close ends the current conversation. The room becomes read-only
// history; the transport is torn down.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.room == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no current room", ErrValidationFailed)
	}
	roomID := s.room.ID
	s.mu.Unlock()

	room, err := s.api.CloseRoom(ctx, roomID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeTransportLocked()
	s.room = &room
	s.store = nil
	s.state = StateClosed
	return nil
}

// BackToCategories returns to category selection, discarding the
// current room view.
func (s *Session) BackToCategories() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeTransportLocked()
	s.category = ""
	s.room = nil
	s.store = nil
	s.history = nil
	s.noHistory = false
	s.state = StateSelectingCategory
}

// Leave tears the session down. Safe to call at any point.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeTransportLocked()
}

// activate moves a waiting session to Active and loads the message
// history. Signals for other rooms are ignored.
func (s *Session) activate(room model.Room) {
	s.mu.Lock()
	if s.state != StateWaiting || s.room == nil || s.room.ID != room.ID {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history, err := s.api.MessageHistory(ctx, room.ID)
	if err != nil {
		// Keep waiting; a RefreshRoom retry can complete the transition.
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateWaiting || s.room == nil || s.room.ID != room.ID {
		return
	}
	s.room = &room
	s.room.Status = model.RoomActive
	s.store.Reset(history)
	s.state = StateActive
}

// openTransportLocked opens the socket for roomID, closing any
// previous subscription first. A client never holds two live room
// subscriptions.
func (s *Session) openTransportLocked(ctx context.Context, roomID int64) error {
	s.closeTransportLocked()

	transport, err := s.dial(ctx, roomID, Handlers{
		OnMessage:        s.onMessage,
		OnMessageEdited:  s.onMessageEdited,
		OnMessageDeleted: s.onMessageDeleted,
		OnRoomActivated:  s.onRoomActivated,
	})
	if err != nil {
		return err
	}
	s.transport = transport
	return nil
}

func (s *Session) closeTransportLocked() {
	if s.transport != nil {
		s.transport.Close()
		s.transport = nil
	}
}

func (s *Session) onMessage(msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil || s.room == nil || s.room.ID != msg.ChatRoomID {
		return
	}
	s.store.ApplyServer(msg)
}

func (s *Session) onMessageEdited(msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return
	}
	s.store.ApplyEdit(msg.ID, msg.Message)
}

func (s *Session) onMessageDeleted(messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return
	}
	s.store.ApplyDelete(messageID)
}

func (s *Session) onRoomActivated(room model.Room) {
	s.activate(room)
}
