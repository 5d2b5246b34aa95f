package middleware

import (
	"fmt"

	"github.com/aretw0/flux/pkg/domain"
)

// Thunk runs effects with the store's composed dispatch and getState instead of
// forwarding them. Plain actions pass through untouched.
// Dispatch returns the effect itself; a synchronous Run error is wrapped with the effect name.
func Thunk() domain.Middleware {
	return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				switch e := d.(type) {
				case domain.Effect:
					return runEffect(api, e)
				case *domain.Effect:
					if e == nil {
						return nil, domain.ErrNilAction
					}
					return runEffect(api, *e)
				default:
					return next(d)
				}
			}
		}
	}
}

func runEffect(api domain.MiddlewareAPI, e domain.Effect) (domain.Dispatchable, error) {
	if e.Run == nil {
		return e, fmt.Errorf("effect %s has no body", e.Name)
	}
	if err := e.Run(api.Dispatch, api.GetState); err != nil {
		return e, fmt.Errorf("effect %s: %w", e.Name, err)
	}
	return e, nil
}
