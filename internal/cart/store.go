package cart

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ovestreet/storefront-backend/internal/observability"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/types"
)

// Store wraps the reducer with slot persistence. Every mutation persists
// the full state; a persistence failure is logged and never surfaced to
// the caller.
type Store struct {
	log   *logger.Logger
	slot  Slot
	state State
}

// Open restores the last persisted state from slot. An absent or corrupt
// slot yields an empty cart; corruption never propagates past this
// boundary.
func Open(ctx context.Context, log *logger.Logger, slot Slot) *Store {
	st := &Store{
		log:  log.With("component", "CartStore"),
		slot: slot,
	}
	raw, ok, err := slot.Load(ctx)
	if err != nil {
		st.log.Warn("Could not load cart slot, starting empty", "error", err)
		return st
	}
	if !ok {
		return st
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		st.log.Warn("Corrupt cart slot, starting empty", "error", err)
		return st
	}
	st.state = state
	return st
}

func (st *Store) AddItem(ctx context.Context, p types.Product) State {
	return st.dispatch(ctx, AddItem{Product: p})
}

func (st *Store) RemoveItem(ctx context.Context, id uuid.UUID) State {
	return st.dispatch(ctx, RemoveItem{ProductID: id})
}

func (st *Store) UpdateQuantity(ctx context.Context, id uuid.UUID, qty int) State {
	return st.dispatch(ctx, SetQuantity{ProductID: id, Quantity: qty})
}

// Clear empties the cart, e.g. once its contents have been handed to the
// order coordinator.
func (st *Store) Clear(ctx context.Context) State {
	st.state = State{}
	st.persist(ctx)
	return st.Snapshot()
}

func (st *Store) Snapshot() State {
	return State{Lines: cloneLines(st.state.Lines)}
}

func (st *Store) TotalItems() int {
	return st.state.TotalItems()
}

func (st *Store) TotalPriceCents() int64 {
	return st.state.TotalPriceCents()
}

func (st *Store) dispatch(ctx context.Context, a Action) State {
	st.state = Apply(st.state, a)
	st.persist(ctx)
	observability.Current().RecordCartAction(actionName(a))
	return st.Snapshot()
}

func actionName(a Action) string {
	switch a.(type) {
	case AddItem:
		return "add_item"
	case RemoveItem:
		return "remove_item"
	case SetQuantity:
		return "set_quantity"
	default:
		return "unknown"
	}
}

func (st *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(st.state)
	if err != nil {
		st.log.Error("Could not serialize cart state", "error", err)
		return
	}
	if err := st.slot.Save(ctx, raw); err != nil {
		st.log.Warn("Could not persist cart state", "error", err)
	}
}
