package steps

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/barista-backend/internal/domain"
)

type OrderItemView struct {
	DrinkID        uuid.UUID            `json:"drink_id"`
	DrinkName      string               `json:"drink_name"`
	Size           types.Size           `json:"size,omitempty"`
	Quantity       int                  `json:"quantity"`
	UnitPrice      types.Money          `json:"unit_price"`
	LineTotal      types.Money          `json:"line_total"`
	Customizations types.Customizations `json:"customizations"`
}

type OrderSummary struct {
	ID            uuid.UUID         `json:"id"`
	Status        types.OrderStatus `json:"status"`
	Items         []OrderItemView   `json:"items"`
	TotalQuantity int               `json:"total_quantity"`
	Total         types.Money       `json:"total"`
}

func SummarizeOrder(o *types.Order) *OrderSummary {
	if o == nil {
		return nil
	}
	items := make([]OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemView{
			DrinkID:        it.DrinkID,
			DrinkName:      it.DrinkName,
			Size:           it.Size,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			LineTotal:      it.LineTotal(),
			Customizations: it.Customizations,
		})
	}
	return &OrderSummary{
		ID:            o.ID,
		Status:        o.Status,
		Items:         items,
		TotalQuantity: o.TotalQuantity(),
		Total:         o.Total(),
	}
}

// OrderSummaryText is the active-order context handed to the NLU port.
func OrderSummaryText(o *types.Order) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Current order (%s):", o.Status)
	if len(o.Items) == 0 {
		b.WriteString("\n(no items)")
	}
	for i, it := range o.Items {
		fmt.Fprintf(&b, "\n%d. %s - %s", i+1, it.Describe(), it.LineTotal().String())
	}
	fmt.Fprintf(&b, "\nTotal: %s", o.Total().String())
	return b.String()
}

// HistoryText renders messages oldest first as "role: content" lines.
func HistoryText(msgs []types.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, strings.TrimSpace(m.Content)))
	}
	return strings.Join(lines, "\n")
}

var (
	genericQuickReplies   = []string{"Show me the menu", "What do you recommend?", "I'd like a latte"}
	pendingQuickReplies   = []string{"Add another drink", "Change an item", "Confirm my order", "Cancel my order"}
	confirmedQuickReplies = []string{"Pay now", "Start a new order"}
	completedQuickReplies = []string{"Start a new order"}
)

// QuickReplies depends only on the order status.
func QuickReplies(o *types.Order) []string {
	var src []string
	switch {
	case o == nil:
		src = genericQuickReplies
	case o.Status == types.OrderStatusPending:
		src = pendingQuickReplies
	case o.Status == types.OrderStatusConfirmed:
		src = confirmedQuickReplies
	case o.Status == types.OrderStatusCompleted:
		src = completedQuickReplies
	default:
		src = genericQuickReplies
	}
	return append([]string(nil), src...)
}
