// Package notification defines push messages and the provider port the
// dispatcher sends them through.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/shopnotify/backend/internal/domain/device"
)

// DefaultSound is attached to every message.
const DefaultSound = "default"

var (
	// ErrPushUnavailable means the provider could not be reached or answered 5xx/429.
	ErrPushUnavailable = errors.New("notification: push provider unavailable")
	// ErrPushRejected means the provider refused the batch.
	ErrPushRejected = errors.New("notification: push provider rejected request")
	// ErrInvalidEvent means the event has no title.
	ErrInvalidEvent = errors.New("notification: event title is required")
)

// IsProviderError reports whether err is a remote failure of the push provider.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrPushUnavailable) || errors.Is(err, ErrPushRejected)
}

// Event is what should be announced to every device.
type Event struct {
	Title string
	Body  string
	Data  map[string]any
}

// Validate checks the event can be turned into messages.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrInvalidEvent
	}
	return nil
}

// Message is a single push addressed to one device.
type Message struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Sound string         `json:"sound"`
	Data  map[string]any `json:"data,omitempty"`
}

// TicketStatus is the per-message outcome reported by the provider.
type TicketStatus string

const (
	TicketOK    TicketStatus = "ok"
	TicketError TicketStatus = "error"
)

// Ticket is the provider's receipt for one message of a batch.
type Ticket struct {
	Status  TicketStatus   `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Failed reports whether the provider refused this message.
func (t Ticket) Failed() bool {
	return t.Status == TicketError
}

// PushProvider is a push delivery service.
type PushProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Resolve returns the address this provider delivers to for a device,
	// or false when the device cannot be reached through it.
	Resolve(token device.Token) (string, bool)
	// Chunk splits messages into batches the provider accepts in one call.
	Chunk(messages []Message) [][]Message
	// Send submits one batch.
	Send(ctx context.Context, batch []Message) ([]Ticket, error)
}
