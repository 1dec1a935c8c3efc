package steps

// ExtractedItems gathers order items across all reported actions in reporting order,
// falling back to the legacy single field when no action carries items, and drops
// anything below floor. Duplicates are kept; the order aggregate merges them.
func ExtractedItems(out NLUOutput, floor float64) []ExtractedOrderItem {
	var batched []ExtractedOrderItem
	for _, a := range out.Actions {
		batched = append(batched, a.Items...)
	}
	if len(batched) == 0 && out.LegacyItem != nil {
		batched = []ExtractedOrderItem{*out.LegacyItem}
	}
	kept := make([]ExtractedOrderItem, 0, len(batched))
	for _, it := range batched {
		if it.Confidence < floor {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// ExtractedModifications gathers modifications across all reported actions in
// reporting order and drops anything below floor.
func ExtractedModifications(out NLUOutput, floor float64) []ExtractedModification {
	var kept []ExtractedModification
	for _, a := range out.Actions {
		for _, m := range a.Modifications {
			if m.Confidence < floor {
				continue
			}
			if m.Action == "" {
				if a.Type == ActionRemoveItem {
					m.Action = ModificationRemove
				} else {
					m.Action = ModificationModify
				}
			}
			kept = append(kept, m)
		}
	}
	return kept
}

// PrimaryDrinkName is the first extracted drink, used for the turn context record.
func PrimaryDrinkName(items []ExtractedOrderItem) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].DrinkName
}
