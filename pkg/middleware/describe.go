package middleware

import "github.com/aretw0/flux/pkg/domain"

// Dispatchable kinds, used as log and metric labels.
const (
	kindAction = "action"
	kindEffect = "effect"
)

// describe returns the kind and name of d.
func describe(d domain.Dispatchable) (kind, name string) {
	switch v := d.(type) {
	case domain.Action:
		return kindAction, string(v.Type)
	case *domain.Action:
		if v != nil {
			return kindAction, string(v.Type)
		}
	case domain.Effect:
		return kindEffect, v.Name
	case *domain.Effect:
		if v != nil {
			return kindEffect, v.Name
		}
	}
	return "unknown", ""
}

// asAction unwraps plain actions.
func asAction(d domain.Dispatchable) (domain.Action, bool) {
	switch v := d.(type) {
	case domain.Action:
		return v, true
	case *domain.Action:
		if v != nil {
			return *v, true
		}
	}
	return domain.Action{}, false
}
