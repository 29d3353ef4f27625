// Package chatclient implements the storefront side of the support
// chat: the REST client, the socket transport, the per-room message
// store and the conversation state machine.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wook219/pyeonjip-support/internal/model"
)

// API is the REST client for the chat endpoints. Token is the access
// token the storefront keeps after login.
type API struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateWaitingRoom opens a new conversation under category.
func (a *API) CreateWaitingRoom(ctx context.Context, category string) (model.Room, error) {
	var room model.Room
	err := a.do(ctx, http.MethodPost, "/api/chat/waiting-room",
		map[string]string{"category": category}, &room)
	return room, err
}

// Room fetches a room by id.
func (a *API) Room(ctx context.Context, roomID int64) (model.Room, error) {
	var room model.Room
	err := a.do(ctx, http.MethodGet, fmt.Sprintf("/api/chat/chat-room/%d", roomID), nil, &room)
	return room, err
}

// RoomsByUser lists every room the caller has opened.
func (a *API) RoomsByUser(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := a.do(ctx, http.MethodGet, "/api/chat/chat-room-list", nil, &rooms)
	return rooms, err
}

// CloseRoom transitions a room to CLOSED.
func (a *API) CloseRoom(ctx context.Context, roomID int64) (model.Room, error) {
	var room model.Room
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/chat/close-room/%d", roomID), nil, &room)
	return room, err
}

// MessageHistory returns the ordered message sequence for a room.
func (a *API) MessageHistory(ctx context.Context, roomID int64) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := a.do(ctx, http.MethodGet, fmt.Sprintf("/api/chat/chat-message-history/%d", roomID), nil, &messages)
	return messages, err
}

// WaitingRooms lists all unclaimed rooms (admin only).
func (a *API) WaitingRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := a.do(ctx, http.MethodGet, "/api/chat/waiting-rooms", nil, &rooms)
	return rooms, err
}

// ActivateRoom claims a waiting room (admin only).
func (a *API) ActivateRoom(ctx context.Context, roomID int64) (model.Room, error) {
	var room model.Room
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/api/chat/activate-room/%d", roomID), nil, &room)
	return room, err
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("chatclient: could not encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("chatclient: could not build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	res, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerError, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return apiError(res)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response payload: %v", ErrServerError, err)
	}
	return nil
}

// apiError maps a non-2xx response onto the error taxonomy, keeping
// the server's message when it sent one.
func apiError(res *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(res.Body).Decode(&body)

	var kind error
	switch res.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrAuthRequired
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusBadRequest:
		kind = ErrValidationFailed
	default:
		kind = ErrServerError
	}

	if body.Message != "" {
		return fmt.Errorf("%w: %s", kind, body.Message)
	}
	return fmt.Errorf("%w: status %d", kind, res.StatusCode)
}
