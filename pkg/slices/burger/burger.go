// Package burger is the burger builder: ingredient counts, running price and the
// purchase flow.
package burger

import (
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/reducer"
)

// Key is the slice's name in the state tree.
const Key = "burger"

// Action types handled by the burger slice.
const (
	ActionAddIngredient    domain.ActionType = "ADD_INGREDIENT"
	ActionRemoveIngredient domain.ActionType = "REMOVE_INGREDIENT"
	ActionPurchaseStart    domain.ActionType = "PURCHASE_START"
	ActionPurchaseCancel   domain.ActionType = "PURCHASE_CANCEL"
	ActionPurchaseContinue domain.ActionType = "PURCHASE_CONTINUE"
)

// Ingredient names.
const (
	Salad  = "salad"
	Bacon  = "bacon"
	Cheese = "cheese"
	Meat   = "meat"
)

// Layer names wrapping the ingredients.
const (
	BreadTop    = "bread-top"
	BreadBottom = "bread-bottom"
)

// BasePriceCents is the price of an empty burger.
const BasePriceCents = 400

// Ingredients lists every ingredient in display order.
var Ingredients = []string{Salad, Bacon, Cheese, Meat}

// PriceCents is the price of one portion of each ingredient.
var PriceCents = map[string]int{
	Salad:  50,
	Cheese: 40,
	Meat:   130,
	Bacon:  70,
}

// State of the burger slice. Prices are kept in cents.
type State struct {
	Ingredients map[string]int `json:"ingredients" yaml:"ingredients"`
	TotalCents  int            `json:"total_cents" yaml:"total_cents"`
	Purchasable bool           `json:"purchasable" yaml:"purchasable"`
	Purchasing  bool           `json:"purchasing" yaml:"purchasing"`
	Ordered     bool           `json:"ordered" yaml:"ordered"`
}

// Initial returns an empty burger at base price.
func Initial() *State {
	ings := make(map[string]int, len(Ingredients))
	for _, name := range Ingredients {
		ings[name] = 0
	}
	return &State{Ingredients: ings, TotalCents: BasePriceCents}
}

type ingredientPayload struct {
	Ingredient string `mapstructure:"ingredient"`
}

// AddIngredient adds one portion.
func AddIngredient(name string) domain.Action {
	return domain.NewAction(ActionAddIngredient, "ingredient", name)
}

// RemoveIngredient removes one portion.
func RemoveIngredient(name string) domain.Action {
	return domain.NewAction(ActionRemoveIngredient, "ingredient", name)
}

// PurchaseStart opens the order summary.
func PurchaseStart() domain.Action { return domain.NewAction(ActionPurchaseStart) }

// PurchaseCancel closes the order summary.
func PurchaseCancel() domain.Action { return domain.NewAction(ActionPurchaseCancel) }

// PurchaseContinue confirms the order.
func PurchaseContinue() domain.Action { return domain.NewAction(ActionPurchaseContinue) }

// Reduce is the burger reducer.
func Reduce(state *State, action domain.Action) *State {
	if state == nil {
		state = Initial()
	}

	switch action.Type {
	case ActionAddIngredient, ActionRemoveIngredient:
		var p ingredientPayload
		if err := action.Decode(&p); err != nil {
			return state
		}
		price, known := PriceCents[p.Ingredient]
		if !known {
			return state
		}
		delta := 1
		if action.Type == ActionRemoveIngredient {
			if state.Ingredients[p.Ingredient] <= 0 {
				return state
			}
			delta = -1
		}
		next := state.clone()
		next.Ingredients[p.Ingredient] += delta
		next.TotalCents += delta * price
		next.Purchasable = next.Count() > 0
		return next

	case ActionPurchaseStart:
		if state.Purchasing {
			return state
		}
		next := state.clone()
		next.Purchasing = true
		return next

	case ActionPurchaseCancel:
		if !state.Purchasing {
			return state
		}
		next := state.clone()
		next.Purchasing = false
		return next

	case ActionPurchaseContinue:
		if !state.Purchasing || state.Ordered {
			return state
		}
		next := state.clone()
		next.Purchasing = false
		next.Ordered = true
		return next

	default:
		return state
	}
}

func (s *State) clone() *State {
	next := *s
	next.Ingredients = make(map[string]int, len(s.Ingredients))
	for k, v := range s.Ingredients {
		next.Ingredients[k] = v
	}
	return &next
}

// Count is the total number of portions.
func (s *State) Count() int {
	sum := 0
	for _, n := range s.Ingredients {
		sum += n
	}
	return sum
}

// Price returns the total price in currency units.
func (s *State) Price() float64 {
	return float64(s.TotalCents) / 100
}

// Disabled reports, per ingredient, whether removing it is impossible.
func (s *State) Disabled() map[string]bool {
	out := make(map[string]bool, len(Ingredients))
	for _, name := range Ingredients {
		out[name] = s.Ingredients[name] <= 0
	}
	return out
}

// Layers expands the ingredients into the layers of the burger, top to bottom.
// An empty burger is only bread.
func (s *State) Layers() []string {
	layers := []string{BreadTop}
	for _, name := range Ingredients {
		for range s.Ingredients[name] {
			layers = append(layers, name)
		}
	}
	return append(layers, BreadBottom)
}

// Slice binds Reduce to Key.
func Slice() reducer.Slice {
	return reducer.New(Key, Reduce)
}
