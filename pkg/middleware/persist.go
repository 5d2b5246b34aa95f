package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/ports"
)

// DefaultSaveTimeout bounds each snapshot save.
const DefaultSaveTimeout = 5 * time.Second

type persistConfig struct {
	logger  *slog.Logger
	timeout time.Duration
	onError func(error)
	enabled func() bool
}

// PersistOption configures Persist.
type PersistOption func(*persistConfig)

// WithPersistLogger sets the logger used for save failures.
func WithPersistLogger(logger *slog.Logger) PersistOption {
	return func(c *persistConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSaveTimeout overrides DefaultSaveTimeout.
func WithSaveTimeout(d time.Duration) PersistOption {
	return func(c *persistConfig) {
		c.timeout = d
	}
}

// WithSaveErrorHandler is called with every failed save.
func WithSaveErrorHandler(fn func(error)) PersistOption {
	return func(c *persistConfig) {
		c.onError = fn
	}
}

// WithSaveIf skips saving whenever enabled returns false, e.g. once the
// session has been deleted.
func WithSaveIf(enabled func() bool) PersistOption {
	return func(c *persistConfig) {
		c.enabled = enabled
	}
}

// Persist saves a snapshot of the tree under sessionID after every plain action
// that changed it. A failed save is logged and reported to the error handler;
// the dispatch itself still succeeds since the state has already moved on.
func Persist(store ports.SnapshotStore, sessionID string, opts ...PersistOption) domain.Middleware {
	cfg := persistConfig{
		logger:  logging.NewNop(),
		timeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				action, isAction := asAction(d)
				prev := api.GetState()

				out, err := next(d)
				if err != nil || !isAction {
					return out, err
				}

				curr := api.GetState()
				if curr == prev || (cfg.enabled != nil && !cfg.enabled()) {
					return out, nil
				}
				if saveErr := save(store, sessionID, curr, cfg.timeout); saveErr != nil {
					cfg.logger.Warn("Failed to persist snapshot",
						"session_id", sessionID,
						"type", action.Type,
						"err", saveErr,
					)
					if cfg.onError != nil {
						cfg.onError(saveErr)
					}
				}
				return out, nil
			}
		}
	}
}

func save(store ports.SnapshotStore, sessionID string, state *domain.State, timeout time.Duration) error {
	snap, err := domain.NewSnapshot(sessionID, state)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return store.Save(ctx, sessionID, snap)
}
