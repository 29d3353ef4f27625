package chatclient

import "errors"

// Error taxonomy for the support chat client. Callers branch on these
// with errors.Is; the UI decides between redirecting to login, showing
// an inline notice, or leaving the current view alone.
var (
	// ErrAuthRequired means there is no valid session.
	ErrAuthRequired = errors.New("chatclient: authentication required")

	// ErrNotFound means the room or message is gone server-side.
	ErrNotFound = errors.New("chatclient: not found")

	// ErrTransportUnavailable means the socket is not connected; the
	// specific send/edit/delete failed and nothing was queued.
	ErrTransportUnavailable = errors.New("chatclient: transport unavailable")

	// ErrValidationFailed means a required field was missing or invalid
	// client-side; no network call was made.
	ErrValidationFailed = errors.New("chatclient: validation failed")

	// ErrServerError covers non-2xx responses and malformed payloads.
	ErrServerError = errors.New("chatclient: server error")
)
