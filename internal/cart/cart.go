// Package cart holds the session-local cart: a pure state transition
// function over a tagged union of actions, wrapped by a Store that
// persists the full state to a named slot after every mutation. Cart state
// is owned exclusively by one session and never shared.
package cart

import (
	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/types"
)

// Line pairs a product snapshot with a positive quantity. The state never
// holds two lines for the same product id.
type Line struct {
	Product  types.Product `json:"product"`
	Quantity int           `json:"quantity"`
}

type State struct {
	Lines []Line `json:"lines"`
}

type Action interface {
	isCartAction()
}

type AddItem struct {
	Product types.Product
}

type RemoveItem struct {
	ProductID uuid.UUID
}

// SetQuantity sets the line's quantity; a quantity of zero or less removes
// the line.
type SetQuantity struct {
	ProductID uuid.UUID
	Quantity  int
}

func (AddItem) isCartAction()     {}
func (RemoveItem) isCartAction()  {}
func (SetQuantity) isCartAction() {}

// Apply folds one action over prior state and returns the next state. The
// input state is never modified.
func Apply(s State, a Action) State {
	switch act := a.(type) {
	case AddItem:
		next := cloneLines(s.Lines)
		for i := range next {
			if next[i].Product.ID == act.Product.ID {
				next[i].Quantity++
				return State{Lines: next}
			}
		}
		next = append(next, Line{Product: act.Product, Quantity: 1})
		return State{Lines: next}
	case RemoveItem:
		return State{Lines: dropLine(s.Lines, act.ProductID)}
	case SetQuantity:
		if act.Quantity <= 0 {
			return State{Lines: dropLine(s.Lines, act.ProductID)}
		}
		next := cloneLines(s.Lines)
		for i := range next {
			if next[i].Product.ID == act.ProductID {
				next[i].Quantity = act.Quantity
			}
		}
		return State{Lines: next}
	default:
		return State{Lines: cloneLines(s.Lines)}
	}
}

func (s State) TotalItems() int {
	total := 0
	for _, line := range s.Lines {
		total += line.Quantity
	}
	return total
}

// TotalPriceCents is computed on demand from the discounted unit price of
// every line, never stored.
func (s State) TotalPriceCents() int64 {
	var total int64
	for _, line := range s.Lines {
		total += line.Product.DiscountedPriceCents() * int64(line.Quantity)
	}
	return total
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}
	next := make([]Line, len(lines))
	copy(next, lines)
	return next
}

func dropLine(lines []Line, id uuid.UUID) []Line {
	var next []Line
	for _, line := range lines {
		if line.Product.ID != id {
			next = append(next, line)
		}
	}
	return next
}
