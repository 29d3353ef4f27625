package hub

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// startHub runs a hub without a broker stream; tests feed frames on
// BrokerFrame directly.
func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, nil)
	go h.Run(t.Context(), nil)
	return h
}

func register(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	done := make(chan struct{})
	h.Register <- Registration{Client: c, Done: done}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registration never completed")
	}
}

func recvFrame(t *testing.T, c *Client) model.Frame {
	t.Helper()
	select {
	case frame := <-c.MessageCh:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("frame never arrived")
		return model.Frame{}
	}
}

func TestMessageFrameFansOutToRoom(t *testing.T) {
	h := startHub(t)

	alice := NewClient(nil, uuid.New(), "alice@test.com", 7)
	admin := NewClient(nil, uuid.New(), "admin@test.com", 7)
	stranger := NewClient(nil, uuid.New(), "other@test.com", 8)
	register(t, h, alice)
	register(t, h, admin)
	register(t, h, stranger)

	h.BrokerFrame <- model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 1, ChatRoomID: 7, Message: "hello"},
	}

	assert.Equal(t, int64(1), recvFrame(t, alice).Message.ID)
	assert.Equal(t, int64(1), recvFrame(t, admin).Message.ID)
	assert.Empty(t, stranger.MessageCh, "other rooms must not see the frame")
}

func TestActivationGoesToOneUser(t *testing.T) {
	h := startHub(t)

	aliceID := uuid.New()
	alice := NewClient(nil, aliceID, "alice@test.com", 7)
	bob := NewClient(nil, uuid.New(), "bob@test.com", 9)
	register(t, h, alice)
	register(t, h, bob)

	h.BrokerFrame <- model.Frame{
		Type:   model.FrameRoomActivated,
		RoomID: 7,
		UserID: aliceID,
		Room:   &model.Room{ID: 7, Status: model.RoomActive},
	}

	frame := recvFrame(t, alice)
	assert.Equal(t, model.FrameRoomActivated, frame.Type)
	assert.Equal(t, model.RoomActive, frame.Room.Status)
	assert.Empty(t, bob.MessageCh)
}

func TestUnregisterClosesMessageChannel(t *testing.T) {
	h := startHub(t)

	alice := NewClient(nil, uuid.New(), "alice@test.com", 7)
	register(t, h, alice)

	h.Unregister <- alice

	select {
	case _, ok := <-alice.MessageCh:
		assert.False(t, ok, "MessageCh must be closed on unregister")
	case <-time.After(2 * time.Second):
		t.Fatal("MessageCh was never closed")
	}

	// The room is empty now; a later frame must not panic the hub.
	h.BrokerFrame <- model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 2, ChatRoomID: 7},
	}
}

func TestUnknownFrameTypeIsDropped(t *testing.T) {
	h := startHub(t)

	alice := NewClient(nil, uuid.New(), "alice@test.com", 7)
	register(t, h, alice)

	h.BrokerFrame <- model.Frame{Type: "SOMETHING_NEW", RoomID: 7}
	h.BrokerFrame <- model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 3, ChatRoomID: 7},
	}

	frame := recvFrame(t, alice)
	require.NotNil(t, frame.Message)
	assert.Equal(t, int64(3), frame.Message.ID, "hub must keep routing after an unknown frame")
}

func TestCommandForForeignRoomIsDropped(t *testing.T) {
	h := startHub(t)

	alice := NewClient(nil, uuid.New(), "alice@test.com", 7)
	register(t, h, alice)

	// The room guard runs before any storage access, so a hub without a
	// database must survive this.
	h.ClientCmd <- Inbound{
		Client: alice,
		Cmd:    model.Command{Type: model.CommandSend, ChatRoomID: 999, Message: "spoofed"},
	}

	h.BrokerFrame <- model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 4, ChatRoomID: 7},
	}
	assert.Equal(t, int64(4), recvFrame(t, alice).Message.ID)
}

func TestSlowClientDoesNotBlockHub(t *testing.T) {
	h := startHub(t)

	slow := NewClient(nil, uuid.New(), "slow@test.com", 7)
	slow.MessageCh = make(chan model.Frame) // unbuffered, nobody reading
	register(t, h, slow)

	fast := NewClient(nil, uuid.New(), "fast@test.com", 7)
	register(t, h, fast)

	for i := range 3 {
		h.BrokerFrame <- model.Frame{
			Type:    model.FrameMessageCreated,
			RoomID:  7,
			Message: &model.ChatMessage{ID: int64(i + 1), ChatRoomID: 7},
		}
	}

	// The fast client still gets every frame even though the slow one
	// never drains its channel.
	for i := range 3 {
		assert.Equal(t, int64(i+1), recvFrame(t, fast).Message.ID)
	}
}
