package nlu

import (
	"fmt"
	"strings"

	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/platform/promptstyle"
)

const systemPrompt = `You are a friendly barista taking coffee orders in a chat.
Reply briefly and warmly in the "reply" field. Put the reply first in the JSON object.
Classify the user's message into exactly one intent:
order_drink, modify_order, confirm_order, process_payment, cancel_order, ask_question, greeting, unknown.
Report structured work in "suggested_actions":
- add_item with "items" for every drink the user wants to add.
- update_item or remove_item with "modifications" for changes to the current order.
  Target items by their 1-based position in the current order when you can, otherwise by drink name.
  A quantity of 0 removes the item.
- get_full_menu when the user wants to see the menu.
- get_drink_details with "drink_name" when the user asks about a specific drink.
Prefer drink names from the candidate list. Sizes are tall, grande or venti.
Customizations are milk, syrup, sweetener and topping.
Give each extraction a confidence between 0 and 1. Never invent prices.
Set "extracted_order" to null.`

// UserPrompt renders the per-turn context the model sees.
func UserPrompt(in steps.NLUInput) string {
	var b strings.Builder
	if h := strings.TrimSpace(in.History); h != "" {
		fmt.Fprintf(&b, "Conversation so far:\n%s\n\n", h)
	}
	if len(in.Candidates) > 0 {
		b.WriteString("Menu candidates:\n")
		for _, d := range in.Candidates {
			if d == nil {
				continue
			}
			fmt.Fprintf(&b, "- %s (%s)", d.Name, d.Price().String())
			if caps := d.Capabilities.Names(); len(caps) > 0 {
				fmt.Fprintf(&b, " customizable: %s", strings.Join(caps, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if s := strings.TrimSpace(in.OrderSummary); s != "" {
		fmt.Fprintf(&b, "%s\n\n", s)
	} else {
		b.WriteString("There is no active order.\n\n")
	}
	fmt.Fprintf(&b, "User: %s", strings.TrimSpace(in.UserMessage))
	return b.String()
}

func SystemPrompt() string { return promptstyle.ApplySystem(systemPrompt, promptstyle.ModeJSON) }

// SystemPromptWithSchema inlines the schema for providers that only support plain JSON mode.
func SystemPromptWithSchema() string {
	return SystemPrompt() + "\n\nRespond with a single JSON object matching this JSON schema:\n" + SchemaText()
}
