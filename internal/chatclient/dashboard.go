package chatclient

import (
	"context"
	"fmt"

	"github.com/wook219/pyeonjip-support/internal/auth"
	"github.com/wook219/pyeonjip-support/internal/model"
)

// FallbackPath is where a non-admin caller is redirected instead of
// seeing the dashboard.
const FallbackPath = "/chat"

// Dashboard lists waiting rooms and lets an admin claim one. The
// waiting list is fetched fresh on each open; the only push involved
// is the activation event the server sends to the claimed room's
// owner.
type Dashboard struct {
	api  *API
	role string
}

func NewDashboard(api *API, role string) *Dashboard {
	return &Dashboard{api: api, role: role}
}

// Open gates the dashboard on the admin role. Callers redirect to
// FallbackPath when this fails.
func (d *Dashboard) Open() error {
	if d.role != auth.RoleAdmin {
		return fmt.Errorf("%w: dashboard requires the admin role", ErrAuthRequired)
	}
	return nil
}

// ListWaiting returns all rooms with status WAITING, oldest first.
func (d *Dashboard) ListWaiting(ctx context.Context) ([]model.Room, error) {
	if err := d.Open(); err != nil {
		return nil, err
	}
	return d.api.WaitingRooms(ctx)
}

// Activate claims a waiting room. On success the server pushes the
// activation frame to the waiting user's channel; the dashboard only
// gets the activated room back.
func (d *Dashboard) Activate(ctx context.Context, roomID int64) (model.Room, error) {
	if err := d.Open(); err != nil {
		return model.Room{}, err
	}
	return d.api.ActivateRoom(ctx, roomID)
}
