// Package device keeps the set of registered push-capable devices.
package device

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
)

// RegisterResult reports whether a registration added a new device
type RegisterResult struct {
	Inserted bool
}

// Registry is the in-memory device set backed by a durable store.
// Every insert rewrites the full set to the store before returning.
type Registry struct {
	mu     sync.Mutex
	tokens []device.Token
	store  device.Store
	logger *zap.Logger
}

// LoadRegistry reads the stored set once. A missing, unreadable or malformed
// store yields an empty registry and a warning.
func LoadRegistry(ctx context.Context, store device.Store, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{store: store, logger: log, tokens: make([]device.Token, 0)}

	tokens, err := store.Load(ctx)
	if err != nil {
		log.Warn("failed to load device tokens, starting empty", zap.Error(err))
		return r
	}

	for _, t := range tokens {
		t = t.Normalize()
		if t.Validate() != nil || r.indexOf(t) >= 0 {
			continue
		}
		r.tokens = append(r.tokens, t)
	}
	log.Info("device tokens loaded", zap.Int("count", len(r.tokens)))
	return r
}

// Register adds a device unless one sharing either token is already present.
// Duplicates are ignored without updating the stored entry.
func (r *Registry) Register(ctx context.Context, token device.Token) (RegisterResult, error) {
	token = token.Normalize()
	if err := token.Validate(); err != nil {
		return RegisterResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(token) >= 0 {
		return RegisterResult{Inserted: false}, nil
	}
	r.tokens = append(r.tokens, token)

	snapshot := make([]device.Token, len(r.tokens))
	copy(snapshot, r.tokens)
	// Persist even if the client hangs up after the insert
	if err := r.store.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		logger.L(ctx, r.logger).Error("failed to persist device tokens",
			zap.Error(err),
			zap.Int("count", len(snapshot)),
		)
	}
	return RegisterResult{Inserted: true}, nil
}

// ListAll returns a snapshot of the registered devices
func (r *Registry) ListAll(ctx context.Context) []device.Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]device.Token, len(r.tokens))
	copy(out, r.tokens)
	return out
}

// Count returns the number of registered devices
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// indexOf must be called with mu held, or before the registry is shared
func (r *Registry) indexOf(token device.Token) int {
	for i, t := range r.tokens {
		if t.Matches(token) {
			return i
		}
	}
	return -1
}
