package broker

import (
	"fmt"

	"github.com/google/uuid"
)

// One stream carries both the room-scoped and the user-scoped
// channels. Room subjects broadcast message frames to everyone in a
// room; user subjects deliver activation frames to a single waiting
// user, wherever they are connected.
var (
	StreamName     = "SUPPORT"
	SubjectAll     = StreamName + ".>"
	subjectRoomFmt = StreamName + ".room.%d"
	subjectUserFmt = StreamName + ".user.%s"
)

func RoomSubject(roomID int64) string {
	return fmt.Sprintf(subjectRoomFmt, roomID)
}

func UserSubject(userID uuid.UUID) string {
	return fmt.Sprintf(subjectUserFmt, userID)
}
