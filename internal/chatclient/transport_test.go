package chatclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// wsServer accepts socket connections and hands the server side of
// each to the test.
type wsServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
	reqs   chan *http.Request
}

func newWsServer(t *testing.T) *wsServer {
	t.Helper()

	ws := &wsServer{
		conns: make(chan *websocket.Conn, 4),
		reqs:  make(chan *http.Request, 4),
	}
	ws.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept failed: %v", err)
			return
		}
		ws.reqs <- r
		ws.conns <- conn
		<-r.Context().Done()
	}))
	t.Cleanup(ws.server.Close)
	return ws
}

func (ws *wsServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ws.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for socket connection")
		return nil
	}
}

func (ws *wsServer) push(t *testing.T, conn *websocket.Conn, frame model.Frame) {
	t.Helper()
	p, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, conn.Write(t.Context(), websocket.MessageText, p))
}

func TestDialPresentsRoomAndToken(t *testing.T) {
	ws := newWsServer(t)

	transport, err := Dial(t.Context(), ws.server.URL, "my-token", 7, Handlers{})
	require.NoError(t, err)
	defer transport.Close()

	req := <-ws.reqs
	assert.Equal(t, "/ws", req.URL.Path)
	assert.Equal(t, "7", req.URL.Query().Get("roomId"))
	assert.Equal(t, "Bearer my-token", req.Header.Get("Authorization"))
}

func TestDispatchRoutesEachFrameOnce(t *testing.T) {
	ws := newWsServer(t)

	created := make(chan model.ChatMessage, 1)
	edited := make(chan model.ChatMessage, 1)
	deleted := make(chan int64, 1)
	activated := make(chan model.Room, 1)

	transport, err := Dial(t.Context(), ws.server.URL, "token", 7, Handlers{
		OnMessage:        func(msg model.ChatMessage) { created <- msg },
		OnMessageEdited:  func(msg model.ChatMessage) { edited <- msg },
		OnMessageDeleted: func(id int64) { deleted <- id },
		OnRoomActivated:  func(room model.Room) { activated <- room },
	})
	require.NoError(t, err)
	defer transport.Close()

	conn := ws.accept(t)
	ws.push(t, conn, model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 1, ChatRoomID: 7, Message: "hello"},
	})
	ws.push(t, conn, model.Frame{
		Type:    model.FrameMessageEdited,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 1, ChatRoomID: 7, Message: "hello again"},
	})
	ws.push(t, conn, model.Frame{Type: model.FrameMessageDeleted, RoomID: 7, MessageID: 1})
	ws.push(t, conn, model.Frame{
		Type: model.FrameRoomActivated,
		Room: &model.Room{ID: 7, Status: model.RoomActive},
	})

	select {
	case msg := <-created:
		assert.Equal(t, "hello", msg.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("created frame never arrived")
	}
	select {
	case msg := <-edited:
		assert.Equal(t, "hello again", msg.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("edited frame never arrived")
	}
	select {
	case id := <-deleted:
		assert.Equal(t, int64(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("deleted frame never arrived")
	}
	select {
	case room := <-activated:
		assert.Equal(t, model.RoomActive, room.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("activated frame never arrived")
	}
}

func TestUnknownFrameTypeIsDropped(t *testing.T) {
	ws := newWsServer(t)

	created := make(chan model.ChatMessage, 2)
	transport, err := Dial(t.Context(), ws.server.URL, "token", 7, Handlers{
		OnMessage: func(msg model.ChatMessage) { created <- msg },
	})
	require.NoError(t, err)
	defer transport.Close()

	conn := ws.accept(t)
	ws.push(t, conn, model.Frame{Type: "SOMETHING_NEW", RoomID: 7})
	ws.push(t, conn, model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 2, ChatRoomID: 7, Message: "still alive"},
	})

	select {
	case msg := <-created:
		assert.Equal(t, int64(2), msg.ID, "the unknown frame must not stall dispatch")
	case <-time.After(2 * time.Second):
		t.Fatal("frame after unknown type never arrived")
	}
	assert.Empty(t, created)
}

func TestSendWritesSendCommand(t *testing.T) {
	ws := newWsServer(t)

	transport, err := Dial(t.Context(), ws.server.URL, "token", 7, Handlers{})
	require.NoError(t, err)
	defer transport.Close()

	conn := ws.accept(t)
	require.NoError(t, transport.Send("안녕하세요"))

	_, p, err := conn.Read(t.Context())
	require.NoError(t, err)

	var cmd model.Command
	require.NoError(t, json.Unmarshal(p, &cmd))
	assert.Equal(t, model.CommandSend, cmd.Type)
	assert.Equal(t, int64(7), cmd.ChatRoomID)
	assert.Equal(t, "안녕하세요", cmd.Message)
}

func TestEditAndDeleteCarryMessageID(t *testing.T) {
	ws := newWsServer(t)

	transport, err := Dial(t.Context(), ws.server.URL, "token", 7, Handlers{})
	require.NoError(t, err)
	defer transport.Close()

	conn := ws.accept(t)

	require.NoError(t, transport.EditMessage(t.Context(), 42, "fixed"))
	_, p, err := conn.Read(t.Context())
	require.NoError(t, err)
	var cmd model.Command
	require.NoError(t, json.Unmarshal(p, &cmd))
	assert.Equal(t, model.CommandEdit, cmd.Type)
	assert.Equal(t, int64(42), cmd.MessageID)
	assert.Equal(t, "fixed", cmd.Message)

	require.NoError(t, transport.DeleteMessage(t.Context(), 42))
	_, p, err = conn.Read(t.Context())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(p, &cmd))
	assert.Equal(t, model.CommandDelete, cmd.Type)
	assert.Equal(t, int64(42), cmd.MessageID)
}

func TestReconnectReestablishesSubscription(t *testing.T) {
	ws := newWsServer(t)

	created := make(chan model.ChatMessage, 1)
	transport, err := Dial(t.Context(), ws.server.URL, "token", 7, Handlers{
		OnMessage: func(msg model.ChatMessage) { created <- msg },
	})
	require.NoError(t, err)
	defer transport.Close()

	<-ws.reqs
	first := ws.accept(t)
	require.NoError(t, first.Close(websocket.StatusInternalError, "dropping the socket"))

	// The redial presents the same room id, so the server rebuilds the
	// identical room- and user-scoped subscriptions.
	select {
	case req := <-ws.reqs:
		assert.Equal(t, "7", req.URL.Query().Get("roomId"))
		assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
	case <-time.After(5 * time.Second):
		t.Fatal("transport never redialed after the drop")
	}

	second := ws.accept(t)
	ws.push(t, second, model.Frame{
		Type:    model.FrameMessageCreated,
		RoomID:  7,
		Message: &model.ChatMessage{ID: 9, ChatRoomID: 7, Message: "after the drop"},
	})

	select {
	case msg := <-created:
		assert.Equal(t, int64(9), msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("frame on the new connection never dispatched")
	}
}

func TestSendFailsFastWhileDisconnected(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	var accepts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the first dial gets a socket; every redial is refused so
		// the transport stays down through its backoff window.
		if accepts.Add(1) > 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		<-r.Context().Done()
	}))
	defer server.Close()

	transport, err := Dial(t.Context(), server.URL, "token", 7, Handlers{})
	require.NoError(t, err)
	defer transport.Close()

	conn := <-conns
	require.NoError(t, conn.Close(websocket.StatusInternalError, "dropping the socket"))

	require.Eventually(t, func() bool {
		return errors.Is(transport.Send("while down"), ErrTransportUnavailable)
	}, 2*time.Second, 10*time.Millisecond,
		"sends while disconnected must fail fast, not queue")
}

func TestSendAfterCloseFailsFast(t *testing.T) {
	ws := newWsServer(t)

	transport, err := Dial(t.Context(), ws.server.URL, "token", 7, Handlers{})
	require.NoError(t, err)

	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close(), "Close must be idempotent")

	err = transport.Send("too late")
	assert.ErrorIs(t, err, ErrTransportUnavailable)
}

func TestDialFailureMapsToTransportUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no sockets here", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := Dial(t.Context(), server.URL, "token", 7, Handlers{})
	assert.ErrorIs(t, err, ErrTransportUnavailable)
}
