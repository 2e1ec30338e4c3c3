// Package tokenstore persists the device registry. Every backend stores the
// full set and replaces it on each save.
package tokenstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopnotify/backend/internal/domain/device"
)

// ErrMalformedData is returned by Load when stored data is not a JSON array of tokens
var ErrMalformedData = errors.New("tokenstore: malformed token data")

// encodeTokens renders tokens as an indented JSON array, [] when empty
func encodeTokens(tokens []device.Token) ([]byte, error) {
	if tokens == nil {
		tokens = []device.Token{}
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tokens: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeTokens parses a JSON array; blank input is an empty set
func decodeTokens(data []byte) ([]device.Token, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []device.Token{}, nil
	}
	var tokens []device.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if tokens == nil {
		tokens = []device.Token{}
	}
	return tokens, nil
}
