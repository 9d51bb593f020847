package cart

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ovestreet/storefront-backend/internal/types"
)

func testProduct(priceCents int64, discount int) types.Product {
	return types.Product{
		ID:              uuid.New(),
		Name:            datatypes.JSONMap{"en": "Widget"},
		PriceCents:      priceCents,
		DiscountPercent: discount,
		Stock:           10,
		CategoryID:      "widgets",
	}
}

func checkInvariants(t *testing.T, s State) {
	t.Helper()
	seen := make(map[uuid.UUID]bool)
	for _, line := range s.Lines {
		if seen[line.Product.ID] {
			t.Fatalf("duplicate line for product %s", line.Product.ID)
		}
		seen[line.Product.ID] = true
		if line.Quantity < 1 {
			t.Fatalf("line for %s has quantity %d", line.Product.ID, line.Quantity)
		}
	}
}

func TestApplyAddItem(t *testing.T) {
	p := testProduct(1000, 0)

	s := Apply(State{}, AddItem{Product: p})
	if len(s.Lines) != 1 || s.Lines[0].Quantity != 1 {
		t.Fatalf("after first add: %+v", s.Lines)
	}

	s = Apply(s, AddItem{Product: p})
	if len(s.Lines) != 1 || s.Lines[0].Quantity != 2 {
		t.Fatalf("adding same product must increment, got %+v", s.Lines)
	}
	checkInvariants(t, s)
}

func TestApplyRemoveItem(t *testing.T) {
	p := testProduct(1000, 0)
	other := testProduct(500, 0)

	s := Apply(State{}, AddItem{Product: p})
	s = Apply(s, AddItem{Product: other})
	s = Apply(s, RemoveItem{ProductID: p.ID})

	if len(s.Lines) != 1 || s.Lines[0].Product.ID != other.ID {
		t.Fatalf("after remove: %+v", s.Lines)
	}

	// removing an absent product is a no-op
	s = Apply(s, RemoveItem{ProductID: uuid.New()})
	if len(s.Lines) != 1 {
		t.Fatalf("remove of absent id must be a no-op, got %+v", s.Lines)
	}
}

func TestApplySetQuantity(t *testing.T) {
	p := testProduct(1000, 0)

	cases := []struct {
		name      string
		qty       int
		wantLines int
		wantQty   int
	}{
		{name: "positive_sets", qty: 5, wantLines: 1, wantQty: 5},
		{name: "zero_removes", qty: 0, wantLines: 0},
		{name: "negative_removes", qty: -3, wantLines: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Apply(State{}, AddItem{Product: p})
			s = Apply(s, SetQuantity{ProductID: p.ID, Quantity: tc.qty})
			if len(s.Lines) != tc.wantLines {
				t.Fatalf("lines: want %d got %d", tc.wantLines, len(s.Lines))
			}
			if tc.wantLines == 1 && s.Lines[0].Quantity != tc.wantQty {
				t.Fatalf("quantity: want %d got %d", tc.wantQty, s.Lines[0].Quantity)
			}
			checkInvariants(t, s)
		})
	}
}

func TestApplyLeavesInputUnmodified(t *testing.T) {
	p := testProduct(1000, 0)
	before := Apply(State{}, AddItem{Product: p})

	_ = Apply(before, AddItem{Product: p})
	_ = Apply(before, SetQuantity{ProductID: p.ID, Quantity: 9})
	_ = Apply(before, RemoveItem{ProductID: p.ID})

	if len(before.Lines) != 1 || before.Lines[0].Quantity != 1 {
		t.Fatalf("input state was modified: %+v", before.Lines)
	}
}

func TestInvariantsUnderActionSequences(t *testing.T) {
	a := testProduct(1000, 10)
	b := testProduct(250, 0)

	s := State{}
	actions := []Action{
		AddItem{Product: a},
		AddItem{Product: a},
		AddItem{Product: b},
		SetQuantity{ProductID: a.ID, Quantity: 7},
		RemoveItem{ProductID: b.ID},
		AddItem{Product: b},
		SetQuantity{ProductID: b.ID, Quantity: 0},
		AddItem{Product: b},
	}
	for _, act := range actions {
		s = Apply(s, act)
		checkInvariants(t, s)
	}

	if s.TotalItems() != 8 {
		t.Fatalf("total items: want 8 got %d", s.TotalItems())
	}
}

func TestTotalPriceAppliesDiscount(t *testing.T) {
	// 1000 cents at 25% off -> 750 per unit
	p := testProduct(1000, 25)
	s := Apply(State{}, AddItem{Product: p})
	s = Apply(s, SetQuantity{ProductID: p.ID, Quantity: 3})

	if got := s.TotalPriceCents(); got != 2250 {
		t.Fatalf("total price: want 2250 got %d", got)
	}

	full := testProduct(199, 0)
	s = Apply(s, AddItem{Product: full})
	if got := s.TotalPriceCents(); got != 2250+199 {
		t.Fatalf("total price with second line: want %d got %d", 2250+199, got)
	}
}
