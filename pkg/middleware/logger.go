package middleware

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
)

// Logger logs every dispatch on the way in, then the slices it changed on the
// way out. The full next state is logged at debug level.
// It never alters the action or the result.
func Logger(logger *slog.Logger) domain.Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				kind, name := describe(d)
				prev := api.GetState()
				logger.Info("Dispatching", "kind", kind, "type", name)

				out, err := next(d)
				if err != nil {
					logger.Warn("Dispatch failed", "kind", kind, "type", name, "err", err)
					return out, err
				}

				curr := api.GetState()
				diff := domain.Diff(prev, curr)
				logger.Info("Next state", "type", name, "changed", diff.Keys())
				if logger.Enabled(context.Background(), slog.LevelDebug) {
					if data, mErr := json.Marshal(curr); mErr == nil {
						logger.Debug("State tree", "state", string(data))
					}
				}
				return out, err
			}
		}
	}
}
