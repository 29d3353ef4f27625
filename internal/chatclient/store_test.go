package chatclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wook219/pyeonjip-support/internal/model"
)

const self = "user@test.com"

func TestAppendLocalThenServerEcho(t *testing.T) {
	s := NewStore(self)

	s.AppendLocal("안녕하세요")

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Temp)
	assert.True(t, snap[0].Sent)
	assert.Equal(t, "안녕하세요", snap[0].Text)

	s.ApplyServer(model.ChatMessage{
		ID:          42,
		SenderEmail: self,
		Message:     "안녕하세요",
		Timestamp:   time.Now(),
	})

	snap = s.Snapshot()
	require.Len(t, snap, 1, "echo must replace the temp entry, not duplicate it")
	assert.Equal(t, int64(42), snap[0].ID)
	assert.False(t, snap[0].Temp)
	assert.True(t, snap[0].Sent)
}

func TestServerEchoPreservesPosition(t *testing.T) {
	s := NewStore(self)

	s.ApplyServer(model.ChatMessage{ID: 1, SenderEmail: "admin@test.com", Message: "first"})
	s.AppendLocal("mine")
	s.ApplyServer(model.ChatMessage{ID: 2, SenderEmail: "admin@test.com", Message: "third"})

	s.ApplyServer(model.ChatMessage{ID: 3, SenderEmail: self, Message: "mine"})

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(3), snap[1].ID, "confirmed message keeps the temp entry's position")
	assert.Equal(t, "mine", snap[1].Text)
}

func TestForeignMessageAppends(t *testing.T) {
	s := NewStore(self)

	s.AppendLocal("hello")
	s.ApplyServer(model.ChatMessage{ID: 7, SenderEmail: "admin@test.com", Message: "hello"})

	snap := s.Snapshot()
	require.Len(t, snap, 2, "a foreign message never consumes our temp entry")
	assert.True(t, snap[0].Temp)
	assert.True(t, snap[1].Received)
}

func TestIdenticalTextsReconcileFirstMatch(t *testing.T) {
	s := NewStore(self)

	s.AppendLocal("same")
	s.AppendLocal("same")

	s.ApplyServer(model.ChatMessage{ID: 10, SenderEmail: self, Message: "same"})

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, int64(10), snap[0].ID, "first temp wins the first confirmation")
	assert.False(t, snap[0].Temp)
	assert.True(t, snap[1].Temp)
}

func TestApplyEditUnknownIDIsNoOp(t *testing.T) {
	s := NewStore(self)
	s.ApplyServer(model.ChatMessage{ID: 1, SenderEmail: "admin@test.com", Message: "hi"})

	before := s.Snapshot()
	s.ApplyEdit(999, "changed")
	assert.Equal(t, before, s.Snapshot())
}

func TestApplyEditReplacesText(t *testing.T) {
	s := NewStore(self)
	s.ApplyServer(model.ChatMessage{ID: 1, SenderEmail: "admin@test.com", Message: "hi"})

	s.ApplyEdit(1, "edited")
	assert.Equal(t, "edited", s.Snapshot()[0].Text)
}

func TestApplyDeleteIsIdempotent(t *testing.T) {
	s := NewStore(self)
	s.ApplyServer(model.ChatMessage{ID: 1, SenderEmail: "admin@test.com", Message: "one"})
	s.ApplyServer(model.ChatMessage{ID: 2, SenderEmail: "admin@test.com", Message: "two"})

	s.ApplyDelete(1)
	once := s.Snapshot()

	s.ApplyDelete(1)
	assert.Equal(t, once, s.Snapshot())
	require.Len(t, once, 1)
	assert.Equal(t, int64(2), once[0].ID)
}

func TestDropTempRollsBackFailedSend(t *testing.T) {
	s := NewStore(self)

	tempID := s.AppendLocal("doomed")
	s.DropTemp(tempID)
	assert.Empty(t, s.Snapshot())
}

func TestResetLoadsHistoryWithDirections(t *testing.T) {
	s := NewStore(self)
	s.AppendLocal("stale")

	s.Reset([]model.ChatMessage{
		{ID: 1, SenderEmail: self, Message: "mine"},
		{ID: 2, SenderEmail: "admin@test.com", Message: "theirs"},
	})

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[0].Sent)
	assert.False(t, snap[0].Received)
	assert.True(t, snap[1].Received)
	assert.False(t, snap[1].Sent)
}
