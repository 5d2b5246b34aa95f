package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/slices/blog"
	"github.com/aretw0/flux/pkg/slices/results"
)

// DefaultEffectDelay is the delay of STORE_RESULT_ASYNC when none is configured.
const DefaultEffectDelay = 2 * time.Second

// Config wires the stock effects.
type Config struct {
	// EffectDelay is the default delay of STORE_RESULT_ASYNC.
	EffectDelay time.Duration
	// Posts backs FETCH_POSTS and LOAD_POST. Both are skipped when nil.
	Posts  blog.PostSource
	Logger *slog.Logger
}

type storeResultPayload struct {
	Result  any  `mapstructure:"result"`
	DelayMs *int `mapstructure:"delay_ms"`
}

type loadPostPayload struct {
	ID int `mapstructure:"id"`
}

// NewDefault creates a registry holding the stock effects.
func NewDefault(cfg Config) *Registry {
	if cfg.EffectDelay <= 0 {
		cfg.EffectDelay = DefaultEffectDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	r := NewRegistry()

	r.Register(results.EffectStoreResult, func(ctx context.Context, payload domain.Payload) (domain.Effect, error) {
		var p storeResultPayload
		if err := (domain.Action{Type: results.EffectStoreResult, Payload: payload}).Decode(&p); err != nil {
			return domain.Effect{}, err
		}
		delay := cfg.EffectDelay
		if p.DelayMs != nil {
			delay = time.Duration(*p.DelayMs) * time.Millisecond
		}
		return results.StoreResultAfter(p.Result, delay, results.WithLogger(cfg.Logger)), nil
	})

	if cfg.Posts != nil {
		r.Register(blog.EffectFetchPosts, func(ctx context.Context, payload domain.Payload) (domain.Effect, error) {
			return blog.FetchPosts(ctx, cfg.Posts), nil
		})
		r.Register(blog.EffectLoadPost, func(ctx context.Context, payload domain.Payload) (domain.Effect, error) {
			var p loadPostPayload
			if err := (domain.Action{Type: blog.EffectLoadPost, Payload: payload}).Decode(&p); err != nil {
				return domain.Effect{}, err
			}
			return blog.LoadPost(ctx, cfg.Posts, p.ID), nil
		})
	}

	return r
}
