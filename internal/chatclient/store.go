package chatclient

import (
	"time"

	"github.com/google/uuid"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// Message is one entry in the conversation view. Exactly one of
// {Temp, confirmed} holds: a temporary message has TempID set and no
// server ID; it is replaced in place, once, when its server echo
// arrives.
type Message struct {
	ID        int64
	TempID    string
	Text      string
	Sender    string
	Sent      bool
	Received  bool
	Temp      bool
	Timestamp time.Time
}

// Store keeps the ordered message sequence for one open room and
// merges optimistic local entries with server-confirmed ones. It is
// not safe for concurrent use; Session serializes access.
type Store struct {
	self     string
	messages []Message
}

// NewStore returns an empty store for a viewer identified by email.
func NewStore(selfEmail string) *Store {
	return &Store{self: selfEmail}
}

// AppendLocal adds an optimistic echo of a just-sent message at the
// tail and returns its temporary id.
func (s *Store) AppendLocal(text string) string {
	tempID := "temp-" + uuid.NewString()
	s.messages = append(s.messages, Message{
		TempID: tempID,
		Text:   text,
		Sender: s.self,
		Sent:   true,
		Temp:   true,
	})
	return tempID
}

// ApplyServer reconciles a server-confirmed message. An echo of our
// own send replaces the first matching temporary entry in place,
// keeping its position; anything else is appended as received.
//
// Matching is by content, not id — the temporary entry never had a
// server id. Two pending sends with identical text will reconcile
// against whichever confirmation arrives first; the server echoes no
// correlation token, so this is the best the client can do.
func (s *Store) ApplyServer(msg model.ChatMessage) {
	if msg.SenderEmail == s.self {
		for i := range s.messages {
			m := &s.messages[i]
			if m.Temp && m.Text == msg.Message {
				*m = Message{
					ID:        msg.ID,
					Text:      msg.Message,
					Sender:    msg.SenderEmail,
					Sent:      true,
					Timestamp: msg.Timestamp,
				}
				return
			}
		}
	}

	s.messages = append(s.messages, Message{
		ID:        msg.ID,
		Text:      msg.Message,
		Sender:    msg.SenderEmail,
		Received:  true,
		Timestamp: msg.Timestamp,
	})
}

// ApplyEdit replaces the text of a confirmed message. Unknown ids are
// ignored; the edit may belong to a room we already left.
func (s *Store) ApplyEdit(id int64, text string) {
	for i := range s.messages {
		if !s.messages[i].Temp && s.messages[i].ID == id {
			s.messages[i].Text = text
			return
		}
	}
}

// ApplyDelete removes a confirmed message by id. Calling it twice is
// the same as calling it once.
func (s *Store) ApplyDelete(id int64) {
	for i := range s.messages {
		if !s.messages[i].Temp && s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// DropTemp discards a temporary entry whose send failed.
func (s *Store) DropTemp(tempID string) {
	for i := range s.messages {
		if s.messages[i].Temp && s.messages[i].TempID == tempID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// Reset replaces the store contents with fetched history.
func (s *Store) Reset(history []model.ChatMessage) {
	s.messages = s.messages[:0]
	for _, msg := range history {
		s.messages = append(s.messages, Message{
			ID:        msg.ID,
			Text:      msg.Message,
			Sender:    msg.SenderEmail,
			Sent:      msg.SenderEmail == s.self,
			Received:  msg.SenderEmail != s.self,
			Timestamp: msg.Timestamp,
		})
	}
}

// Snapshot returns the messages in insertion order.
func (s *Store) Snapshot() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
