// Package device defines push-capable device registrations and the port used
// to persist them.
package device

import (
	"context"
	"strings"

	"github.com/shopnotify/backend/internal/domain/shared"
)

// ErrInvalidToken is returned when a registration carries no usable token.
var ErrInvalidToken = shared.NewDomainError("INVALID_INPUT", "No token received")

// Token is a device registration. At least one of the fields is non-empty.
type Token struct {
	ExpoPushToken string `json:"expoPushToken,omitempty" bson:"expoPushToken,omitempty"`
	FCMToken      string `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
}

// Normalize trims both fields.
func (t Token) Normalize() Token {
	return Token{
		ExpoPushToken: strings.TrimSpace(t.ExpoPushToken),
		FCMToken:      strings.TrimSpace(t.FCMToken),
	}
}

// Validate returns ErrInvalidToken when both fields are blank.
func (t Token) Validate() error {
	n := t.Normalize()
	if n.ExpoPushToken == "" && n.FCMToken == "" {
		return ErrInvalidToken
	}
	return nil
}

// Matches reports whether t and other refer to the same device: they share a
// non-empty Expo token or a non-empty FCM token.
func (t Token) Matches(other Token) bool {
	if t.ExpoPushToken != "" && t.ExpoPushToken == other.ExpoPushToken {
		return true
	}
	return t.FCMToken != "" && t.FCMToken == other.FCMToken
}

// Store persists the full registration set.
//
// Save replaces everything previously stored. Load returns an empty slice
// when nothing has been stored yet.
type Store interface {
	Load(ctx context.Context) ([]Token, error)
	Save(ctx context.Context, tokens []Token) error
	Close() error
}
