package steps

import (
	"fmt"
	"sort"
	"strings"

	types "github.com/yungbote/barista-backend/internal/domain"
)

type menuCategory struct {
	Name     string
	Keywords []string
}

// Categories are checked in order; the first keyword hit wins.
var menuCategories = []menuCategory{
	{Name: "Cold Drinks", Keywords: []string{"iced", "cold", "frappuccino", "frappe"}},
	{Name: "Tea", Keywords: []string{"tea", "chai", "matcha"}},
	{Name: "Espresso & Coffee", Keywords: []string{"espresso", "latte", "cappuccino", "macchiato", "mocha", "americano", "flat white", "coffee"}},
	{Name: "Bakery", Keywords: []string{"croissant", "muffin", "scone", "cookie"}},
}

const otherCategory = "Other"

func CategoryFor(d *types.Drink) string {
	name := strings.ToLower(d.Name)
	for _, c := range menuCategories {
		for _, kw := range c.Keywords {
			if strings.Contains(name, kw) {
				return c.Name
			}
		}
	}
	return otherCategory
}

// FormatFullMenu renders drinks grouped by category in a fixed order.
func FormatFullMenu(drinks []*types.Drink) string {
	if len(drinks) == 0 {
		return "Our menu is currently empty."
	}
	grouped := map[string][]*types.Drink{}
	for _, d := range drinks {
		if d == nil {
			continue
		}
		cat := CategoryFor(d)
		grouped[cat] = append(grouped[cat], d)
	}
	order := make([]string, 0, len(menuCategories)+1)
	for _, c := range menuCategories {
		order = append(order, c.Name)
	}
	order = append(order, otherCategory)

	var b strings.Builder
	b.WriteString("Here's our full menu:")
	for _, cat := range order {
		list := grouped[cat]
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		fmt.Fprintf(&b, "\n\n%s", cat)
		for _, d := range list {
			fmt.Fprintf(&b, "\n- %s: %s", d.Name, d.Price().String())
		}
	}
	return b.String()
}

func FormatDrinkDetails(d *types.Drink) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", d.Name, d.Price().String())
	if desc := strings.TrimSpace(d.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s", desc)
	}
	caps := d.Capabilities.Names()
	if len(caps) == 0 {
		b.WriteString("\nCustomizations: none")
	} else {
		fmt.Fprintf(&b, "\nCustomizations: %s", strings.Join(caps, ", "))
	}
	return b.String()
}
