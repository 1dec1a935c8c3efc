package steps

import (
	"strings"

	types "github.com/yungbote/barista-backend/internal/domain"
)

// ResolveItemIndex maps a modification's target to a zero-based item position.
// An explicit 1-based index outside [1, count] is never clamped; it falls through
// to the drink-name search and otherwise resolves to not found.
func ResolveItemIndex(mod ExtractedModification, order *types.Order) (int, bool) {
	if order == nil || len(order.Items) == 0 {
		return 0, false
	}
	if mod.ItemIndex != nil {
		if idx := *mod.ItemIndex; idx >= 1 && idx <= len(order.Items) {
			return idx - 1, true
		}
	}
	name := strings.ToLower(strings.TrimSpace(mod.DrinkName))
	if name == "" {
		return 0, false
	}
	for i, it := range order.Items {
		itemName := strings.ToLower(it.DrinkName)
		if itemName == name {
			return i, true
		}
	}
	for i, it := range order.Items {
		itemName := strings.ToLower(strings.TrimSpace(it.DrinkName))
		if itemName == "" {
			continue
		}
		if strings.Contains(itemName, name) || strings.Contains(name, itemName) {
			return i, true
		}
	}
	return 0, false
}
