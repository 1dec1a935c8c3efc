package ordering

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

var (
	latteID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	mochaID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func latte(size Size, qty int) OrderItem {
	return OrderItem{
		DrinkID:   latteID,
		DrinkName: "Latte",
		Size:      size,
		Quantity:  qty,
		UnitPrice: Money{Amount: 450, Currency: "USD"},
	}
}

func TestConfirmEmptyOrderFailsAndStaysPending(t *testing.T) {
	o := NewOrder(DefaultLimits())
	if err := o.Confirm(); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("expected pending, got %s", o.Status)
	}
}

func TestCancelTransitions(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(o *Order)
		wantOK bool
	}{
		{"pending", func(o *Order) {}, true},
		{"confirmed", func(o *Order) { _ = o.Confirm() }, true},
		{"completed", func(o *Order) { _ = o.Confirm(); _ = o.Complete() }, false},
		{"cancelled", func(o *Order) { _ = o.Cancel() }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := NewOrder(DefaultLimits())
			if err := o.AddItem(latte(SizeGrande, 1)); err != nil {
				t.Fatalf("AddItem: %v", err)
			}
			c.setup(o)
			before := o.Status
			err := o.Cancel()
			if c.wantOK {
				if err != nil || o.Status != StatusCancelled {
					t.Fatalf("expected cancel to succeed from %s, err=%v status=%s", before, err, o.Status)
				}
				return
			}
			if !errors.Is(err, ErrInvalidTransition) || o.Status != before {
				t.Fatalf("expected cancel to fail from %s, err=%v status=%s", before, err, o.Status)
			}
		})
	}
}

func TestAddItemMergesIdenticalLines(t *testing.T) {
	o := NewOrder(DefaultLimits())
	_ = o.AddItem(latte(SizeGrande, 1))
	_ = o.AddItem(latte(SizeGrande, 2))
	if o.ItemCount() != 1 || o.Items[0].Quantity != 3 {
		t.Fatalf("expected one merged line of 3, got %+v", o.Items)
	}
	if err := o.AddItem(latte(SizeVenti, 1)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if o.ItemCount() != 2 {
		t.Fatalf("different size should create a new line, got %d items", o.ItemCount())
	}
	oat := latte(SizeGrande, 1).WithCustomizations(Customizations{Milk: "oat"})
	_ = o.AddItem(oat)
	if o.ItemCount() != 3 {
		t.Fatalf("different customizations should create a new line, got %d items", o.ItemCount())
	}
}

func TestQuantityLimits(t *testing.T) {
	o := NewOrder(DefaultLimits())
	if err := o.AddItem(latte(SizeGrande, 0)); !errors.Is(err, ErrItemQuantityRange) {
		t.Fatalf("expected range error for 0, got %v", err)
	}
	if err := o.AddItem(latte(SizeGrande, 11)); !errors.Is(err, ErrItemQuantityRange) {
		t.Fatalf("expected range error for 11, got %v", err)
	}
	_ = o.AddItem(latte(SizeGrande, 8))
	if err := o.AddItem(latte(SizeGrande, 3)); !errors.Is(err, ErrItemQuantityRange) {
		t.Fatalf("merged line above 10 should fail, got %v", err)
	}
	if o.Items[0].Quantity != 8 {
		t.Fatalf("failed merge must not change quantity, got %d", o.Items[0].Quantity)
	}
	_ = o.AddItem(latte(SizeTall, 10))
	if err := o.AddItem(latte(SizeVenti, 3)); !errors.Is(err, ErrOrderQuantityExceeded) {
		t.Fatalf("expected order limit error, got %v", err)
	}
	if o.TotalQuantity() != 18 {
		t.Fatalf("expected total 18, got %d", o.TotalQuantity())
	}
}

func TestCustomLimits(t *testing.T) {
	o := NewOrder(Limits{MaxOrderQuantity: 2, MaxItemQuantity: 2})
	_ = o.AddItem(latte(SizeGrande, 2))
	if err := o.AddItem(latte(SizeTall, 1)); !errors.Is(err, ErrOrderQuantityExceeded) {
		t.Fatalf("expected order limit error, got %v", err)
	}
}

func TestRemoveAndReplace(t *testing.T) {
	o := NewOrder(DefaultLimits())
	_ = o.AddItem(latte(SizeGrande, 1))
	_ = o.AddItem(OrderItem{DrinkID: mochaID, DrinkName: "Mocha", Quantity: 1, UnitPrice: Money{Amount: 500, Currency: "USD"}})

	if err := o.ReplaceItemAt(0, o.Items[0].WithQuantity(2)); err != nil {
		t.Fatalf("ReplaceItemAt: %v", err)
	}
	if o.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", o.Items[0].Quantity)
	}
	if err := o.RemoveItemAt(2); !errors.Is(err, ErrItemIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := o.RemoveItemAt(0); err != nil {
		t.Fatalf("RemoveItemAt: %v", err)
	}
	if o.ItemCount() != 1 || o.Items[0].DrinkName != "Mocha" {
		t.Fatalf("unexpected items after remove: %+v", o.Items)
	}
}

func TestConfirmedOrderRejectsItemChanges(t *testing.T) {
	o := NewOrder(DefaultLimits())
	_ = o.AddItem(latte(SizeGrande, 1))
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := o.AddItem(latte(SizeGrande, 1)); !errors.Is(err, ErrNotModifiable) {
		t.Fatalf("expected ErrNotModifiable, got %v", err)
	}
	if err := o.RemoveItemAt(0); !errors.Is(err, ErrNotModifiable) {
		t.Fatalf("expected ErrNotModifiable, got %v", err)
	}
	if err := o.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double confirm should fail, got %v", err)
	}
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	o := NewOrder(DefaultLimits())
	_ = o.AddItem(latte(SizeGrande, 1))
	if err := o.Complete(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	_ = o.Confirm()
	if err := o.Complete(); err != nil || o.Status != StatusCompleted {
		t.Fatalf("expected completed, err=%v status=%s", err, o.Status)
	}
}

func TestTotalAndClone(t *testing.T) {
	o := NewOrder(DefaultLimits())
	_ = o.AddItem(latte(SizeGrande, 2))
	if got := o.Total(); got.Amount != 900 || got.Currency != "USD" {
		t.Fatalf("unexpected total %+v", got)
	}
	if got := o.Total().String(); got != "9.00 USD" {
		t.Fatalf("unexpected total string %q", got)
	}
	cp := o.Clone()
	_ = cp.AddItem(latte(SizeTall, 1))
	if o.ItemCount() != 1 {
		t.Fatalf("mutating clone changed original")
	}
}

func TestParseSize(t *testing.T) {
	cases := map[string]Size{"Grande": SizeGrande, "large": SizeVenti, " tall ": SizeTall, "": SizeNone}
	for in, want := range cases {
		got, ok := ParseSize(in)
		if !ok || got != want {
			t.Fatalf("ParseSize(%q)=%q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseSize("gigantic"); ok {
		t.Fatalf("expected unknown size to fail")
	}
}

func TestCustomizationsMergeAndDescribe(t *testing.T) {
	c := Customizations{Milk: "whole"}.Merge(Customizations{Milk: "oat", Syrup: "vanilla"})
	if c.Milk != "oat" || c.Syrup != "vanilla" {
		t.Fatalf("unexpected merge %+v", c)
	}
	it := latte(SizeGrande, 2).WithCustomizations(c.Without(CustomSyrup))
	if got := it.Describe(); got != "2x grande Latte (milk: oat)" {
		t.Fatalf("unexpected describe %q", got)
	}
}
