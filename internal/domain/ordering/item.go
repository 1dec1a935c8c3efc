package ordering

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Size string

const (
	SizeNone   Size = ""
	SizeTall   Size = "tall"
	SizeGrande Size = "grande"
	SizeVenti  Size = "venti"
)

// ParseSize accepts the canonical size names plus the common small/medium/large synonyms.
func ParseSize(s string) (Size, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SizeNone, true
	case "tall", "small", "short":
		return SizeTall, true
	case "grande", "medium", "regular":
		return SizeGrande, true
	case "venti", "large":
		return SizeVenti, true
	default:
		return SizeNone, false
	}
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) Times(n int) Money {
	return Money{Amount: m.Amount * int64(n), Currency: m.Currency}
}

func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount + o.Amount, Currency: cur}
}

// String renders minor units as a decimal amount, e.g. "4.75 USD".
func (m Money) String() string {
	sign := ""
	amt := m.Amount
	if amt < 0 {
		sign = "-"
		amt = -amt
	}
	out := fmt.Sprintf("%s%d.%02d", sign, amt/100, amt%100)
	if m.Currency != "" {
		out += " " + m.Currency
	}
	return out
}

type CustomizationKey string

const (
	CustomMilk      CustomizationKey = "milk"
	CustomSyrup     CustomizationKey = "syrup"
	CustomSweetener CustomizationKey = "sweetener"
	CustomTopping   CustomizationKey = "topping"
)

func AllCustomizationKeys() []CustomizationKey {
	return []CustomizationKey{CustomMilk, CustomSyrup, CustomSweetener, CustomTopping}
}

func ParseCustomizationKey(s string) (CustomizationKey, bool) {
	k := CustomizationKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCustomizationKeys() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Customizations is comparable so that identical lines can be merged with ==.
type Customizations struct {
	Milk      string `json:"milk,omitempty"`
	Syrup     string `json:"syrup,omitempty"`
	Sweetener string `json:"sweetener,omitempty"`
	Topping   string `json:"topping,omitempty"`
}

func (c Customizations) Get(k CustomizationKey) string {
	switch k {
	case CustomMilk:
		return c.Milk
	case CustomSyrup:
		return c.Syrup
	case CustomSweetener:
		return c.Sweetener
	case CustomTopping:
		return c.Topping
	}
	return ""
}

func (c Customizations) With(k CustomizationKey, v string) Customizations {
	v = strings.TrimSpace(v)
	switch k {
	case CustomMilk:
		c.Milk = v
	case CustomSyrup:
		c.Syrup = v
	case CustomSweetener:
		c.Sweetener = v
	case CustomTopping:
		c.Topping = v
	}
	return c
}

func (c Customizations) Without(k CustomizationKey) Customizations {
	return c.With(k, "")
}

// Merge overlays the non-empty values of o onto c.
func (c Customizations) Merge(o Customizations) Customizations {
	for _, k := range AllCustomizationKeys() {
		if v := o.Get(k); v != "" {
			c = c.With(k, v)
		}
	}
	return c
}

func (c Customizations) IsEmpty() bool {
	return c == Customizations{}
}

func (c Customizations) String() string {
	parts := make([]string, 0, 4)
	for _, k := range AllCustomizationKeys() {
		if v := c.Get(k); v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(parts, ", ")
}

// OrderItem is a value. The With* methods return modified copies.
type OrderItem struct {
	DrinkID        uuid.UUID      `json:"drink_id"`
	DrinkName      string         `json:"drink_name"`
	Size           Size           `json:"size,omitempty"`
	Quantity       int            `json:"quantity"`
	UnitPrice      Money          `json:"unit_price"`
	Customizations Customizations `json:"customizations"`
}

func (it OrderItem) WithQuantity(q int) OrderItem {
	it.Quantity = q
	return it
}

func (it OrderItem) WithSize(s Size) OrderItem {
	it.Size = s
	return it
}

func (it OrderItem) WithCustomizations(c Customizations) OrderItem {
	it.Customizations = c
	return it
}

// SameLine reports whether two items differ only by quantity.
func (it OrderItem) SameLine(o OrderItem) bool {
	return it.DrinkID == o.DrinkID && it.Size == o.Size && it.Customizations == o.Customizations
}

func (it OrderItem) LineTotal() Money {
	return it.UnitPrice.Times(it.Quantity)
}

func (it OrderItem) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx ", it.Quantity)
	if it.Size != SizeNone {
		b.WriteString(string(it.Size))
		b.WriteString(" ")
	}
	b.WriteString(it.DrinkName)
	if !it.Customizations.IsEmpty() {
		fmt.Fprintf(&b, " (%s)", it.Customizations.String())
	}
	return b.String()
}
