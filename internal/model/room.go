// Package model defines data structures shared between the hub, the
// broker and the HTTP layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the lifecycle state of a support room.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "WAITING"
	RoomActive  RoomStatus = "ACTIVE"
	RoomClosed  RoomStatus = "CLOSED"
)

// Support categories offered by the storefront. CategoryHistory is not
// a real category; selecting it lists the user's closed rooms instead
// of creating a new one.
const (
	CategoryOrderRefund = "주문/환불 문의"
	CategoryDelivery    = "배송 문의"
	CategoryDamage      = "파손 문의"
	CategoryEtc         = "기타 문의"
	CategoryHistory     = "이전 문의 내역"
)

// Categories lists the selectable categories in display order,
// CategoryHistory last.
var Categories = []string{
	CategoryOrderRefund,
	CategoryDelivery,
	CategoryDamage,
	CategoryEtc,
	CategoryHistory,
}

// ValidCategory reports whether c names a category a room can be
// created under. CategoryHistory is deliberately excluded.
func ValidCategory(c string) bool {
	switch c {
	case CategoryOrderRefund, CategoryDelivery, CategoryDamage, CategoryEtc:
		return true
	}
	return false
}

// Room is a support conversation between a user and an admin.
type Room struct {
	ID        int64      `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	UserEmail string     `json:"userEmail"`
	Category  string     `json:"category"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}
