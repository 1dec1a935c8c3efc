package steps

import (
	"strings"
	"testing"

	types "github.com/yungbote/barista-backend/internal/domain"
)

func TestOrderSummaryText(t *testing.T) {
	if OrderSummaryText(nil) != "" {
		t.Fatalf("nil order should render empty")
	}
	o := types.NewOrder(types.DefaultLimits())
	latte := drink("Latte", 450, allCaps)
	_ = o.AddItem(BuildOrderItem(latte, ExtractedOrderItem{Size: "grande", Quantity: 2, Customizations: types.Customizations{Milk: "oat"}}))

	got := OrderSummaryText(o)
	want := "Current order (pending):\n1. 2x grande Latte (milk: oat) - 9.00 USD\nTotal: 9.00 USD"
	if got != want {
		t.Fatalf("summary mismatch\n got: %q\nwant: %q", got, want)
	}

	s := SummarizeOrder(o)
	if s.TotalQuantity != 2 || s.Total.Amount != 900 || s.Items[0].LineTotal.Amount != 900 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if SummarizeOrder(nil) != nil {
		t.Fatalf("nil order should summarize to nil")
	}
}

func TestQuickReplies(t *testing.T) {
	o := types.NewOrder(types.DefaultLimits())
	cases := []struct {
		status types.OrderStatus
		want   string
	}{
		{types.OrderStatusPending, "Confirm my order"},
		{types.OrderStatusConfirmed, "Pay now"},
		{types.OrderStatusCompleted, "Start a new order"},
		{types.OrderStatusCancelled, "Show me the menu"},
	}
	for _, tc := range cases {
		o.Status = tc.status
		got := QuickReplies(o)
		if !contains(got, tc.want) {
			t.Fatalf("%s: expected %q in %v", tc.status, tc.want, got)
		}
	}
	replies := QuickReplies(nil)
	replies[0] = "mutated"
	if QuickReplies(nil)[0] == "mutated" {
		t.Fatalf("quick replies must be copied")
	}
}

func TestHistoryText(t *testing.T) {
	msgs := []types.Message{
		{Role: types.RoleUser, Content: " hi "},
		{Role: types.RoleAssistant, Content: "Hello!"},
	}
	if got := HistoryText(msgs); got != "user: hi\nassistant: Hello!" {
		t.Fatalf("unexpected history %q", got)
	}
}

func TestFormatFullMenu(t *testing.T) {
	drinks := []*types.Drink{
		drink("Latte", 450, allCaps),
		drink("Iced Coffee", 350, allCaps),
		drink("Green Tea", 325, allCaps),
		drink("Croissant", 375, types.Capabilities{}),
		drink("Americano", 375, allCaps),
		drink("Lemonade", 300, allCaps),
	}
	got := FormatFullMenu(drinks)
	order := []string{"Cold Drinks", "Tea", "Espresso & Coffee", "Bakery", "Other"}
	last := -1
	for _, cat := range order {
		i := strings.Index(got, "\n"+cat+"\n")
		if i <= last {
			t.Fatalf("category %q out of order in:\n%s", cat, got)
		}
		last = i
	}
	if strings.Index(got, "- Americano: 3.75 USD") > strings.Index(got, "- Latte: 4.50 USD") {
		t.Fatalf("drinks should be sorted by name:\n%s", got)
	}
	if FormatFullMenu(nil) != "Our menu is currently empty." {
		t.Fatalf("unexpected empty menu text")
	}
}

func TestFormatDrinkDetails(t *testing.T) {
	got := FormatDrinkDetails(drink("Croissant", 375, types.Capabilities{}))
	want := "Croissant (3.75 USD)\nCroissant description\nCustomizations: none"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if !strings.Contains(FormatDrinkDetails(drink("Latte", 450, allCaps)), "Customizations: size, milk") {
		t.Fatalf("capabilities should be listed size first")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
