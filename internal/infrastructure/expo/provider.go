// Package expo implements notification.PushProvider over the Expo push API.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/domain/notification"
)

const (
	// DefaultBaseURL is Expo's production push host
	DefaultBaseURL = "https://exp.host"
	// DefaultMaxBatchSize is the largest batch Expo accepts per request
	DefaultMaxBatchSize = 100

	sendPath        = "/--/api/v2/push/send"
	maxResponseSize = 1 * 1024 * 1024
)

// ErrInvalidBatchSize is returned for a non-positive batch size
var ErrInvalidBatchSize = errors.New("expo: max batch size must be positive")

// Config holds Expo push settings
type Config struct {
	BaseURL string
	// AccessToken enables Expo's enhanced push security when set
	AccessToken  string
	MaxBatchSize int
	Timeout      time.Duration
}

// Validate fills defaults
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxBatchSize < 0 {
		return ErrInvalidBatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return nil
}

// Provider sends push messages through Expo
type Provider struct {
	config     *Config
	httpClient *http.Client
}

// NewProvider creates an Expo provider
func NewProvider(config *Config, httpClient *http.Client) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Provider{config: config, httpClient: httpClient}, nil
}

var _ notification.PushProvider = (*Provider)(nil)

// Name returns "expo"
func (p *Provider) Name() string {
	return "expo"
}

// Resolve returns the device's Expo push token. Devices registered with
// only an FCM token cannot be reached through Expo.
func (p *Provider) Resolve(token device.Token) (string, bool) {
	addr := strings.TrimSpace(token.ExpoPushToken)
	return addr, addr != ""
}

// Chunk splits messages into batches of at most MaxBatchSize
func (p *Provider) Chunk(messages []notification.Message) [][]notification.Message {
	size := p.config.MaxBatchSize
	chunks := make([][]notification.Message, 0, (len(messages)+size-1)/size)
	for start := 0; start < len(messages); start += size {
		end := min(start+size, len(messages))
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}

type sendResponse struct {
	Data   []notification.Ticket `json:"data"`
	Errors []apiError            `json:"errors"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send posts one batch and returns the per-message tickets
func (p *Provider) Send(ctx context.Context, batch []notification.Message) ([]notification.Ticket, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("expo: failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("expo: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", notification.ErrPushUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", notification.ErrPushUnavailable, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: HTTP %d", notification.ErrPushUnavailable, resp.StatusCode)
	}

	var parsed sendResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d%s", notification.ErrPushRejected, resp.StatusCode, describe(parsed.Errors))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", notification.ErrPushRejected, decodeErr)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("%w:%s", notification.ErrPushRejected, describe(parsed.Errors))
	}
	return parsed.Data, nil
}

func describe(errs []apiError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Code+": "+e.Message)
	}
	return " " + strings.Join(parts, "; ")
}
