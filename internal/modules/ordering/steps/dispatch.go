package steps

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type DispatchDeps struct {
	Log      *logger.Logger
	Orders   OrderStore
	Resolver *DrinkResolver
	Cache    TurnCache
	Limits   types.Limits
	Metrics  *observability.Metrics
}

type DispatchInput struct {
	Intent         Intent
	ConversationID uuid.UUID
	Order          *types.Order
	NLU            NLUOutput
	Candidates     []*types.Drink
}

type DispatchOutput struct {
	// Order is the active order after the turn; nil when there is none.
	Order *types.Order
	// Persisted is true when the order store was written.
	Persisted bool
	// Added lists items appended or merged by order_drink.
	Added []types.OrderItem
}

// Dispatch applies one intent to the active order. Domain invariant violations
// leave the order unchanged; only store failures are returned as errors.
func Dispatch(ctx context.Context, deps DispatchDeps, in DispatchInput) (DispatchOutput, error) {
	if deps.Log == nil || deps.Orders == nil {
		return DispatchOutput{Order: in.Order}, fmt.Errorf("dispatch: missing deps")
	}
	d := dispatcher{deps: deps, limits: deps.Limits.Normalized()}
	if in.Order != nil {
		in.Order.UseLimits(d.limits)
	}

	var (
		out DispatchOutput
		err error
	)
	//exhaustive:enforce
	switch in.Intent {
	case IntentOrderDrink:
		out, err = d.orderDrink(ctx, in)
	case IntentModifyOrder:
		out, err = d.modifyOrder(ctx, in)
	case IntentConfirmOrder:
		out, err = d.confirmOrder(ctx, in)
	case IntentProcessPayment:
		out, err = d.processPayment(ctx, in)
	case IntentCancelOrder:
		out, err = d.cancelOrder(ctx, in)
	case IntentAskQuestion, IntentGreeting, IntentUnknown:
		out = DispatchOutput{Order: in.Order}
	default:
		deps.Log.Warn("unhandled intent, passing order through", "intent", in.Intent)
		out = DispatchOutput{Order: in.Order}
	}
	if err != nil {
		deps.Metrics.IncTransition(string(in.Intent), "error")
		return DispatchOutput{Order: in.Order}, err
	}
	result := "unchanged"
	if out.Persisted {
		result = "persisted"
	}
	deps.Metrics.IncTransition(string(in.Intent), result)
	return out, nil
}

type dispatcher struct {
	deps   DispatchDeps
	limits types.Limits
}

func (d dispatcher) unchanged(in DispatchInput) DispatchOutput {
	return DispatchOutput{Order: in.Order}
}

func (d dispatcher) rejected(in DispatchInput, op string, err error) DispatchOutput {
	d.deps.Log.Debug("order invariant rejected change", "intent", in.Intent, "op", op, "error", err)
	return d.unchanged(in)
}

func (d dispatcher) persist(ctx context.Context, in DispatchInput, order *types.Order) error {
	if err := d.deps.Orders.SaveWithConversation(dbctx.Context{Ctx: ctx}, order, in.ConversationID); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	if d.deps.Cache != nil {
		if err := d.deps.Cache.Invalidate(ctx, in.ConversationID); err != nil {
			d.deps.Log.Warn("turn cache invalidate failed", "conversation_id", in.ConversationID, "error", err)
		}
	}
	return nil
}

// clear deactivates order, persists it and reports no active order.
func (d dispatcher) clear(ctx context.Context, in DispatchInput, order *types.Order) (DispatchOutput, error) {
	order.Deactivate()
	if err := d.persist(ctx, in, order); err != nil {
		return DispatchOutput{}, err
	}
	return DispatchOutput{Order: nil, Persisted: true}, nil
}

func (d dispatcher) orderDrink(ctx context.Context, in DispatchInput) (DispatchOutput, error) {
	extracted := ExtractedItems(in.NLU, d.limits.ConfidenceFloor)
	if len(extracted) == 0 {
		return d.unchanged(in), nil
	}

	var work, replaced *types.Order
	switch {
	case in.Order != nil && in.Order.IsModifiable():
		work = in.Order.Clone()
	case in.Order != nil:
		// A confirmed order stays with the conversation only until a new one starts.
		replaced = in.Order.Clone()
		replaced.Deactivate()
		work = types.NewOrder(d.limits)
	default:
		work = types.NewOrder(d.limits)
	}

	added := make([]types.OrderItem, 0, len(extracted))
	for _, ex := range extracted {
		var drink *types.Drink
		if d.deps.Resolver != nil {
			drink, _ = d.deps.Resolver.Resolve(ctx, ex.DrinkName, in.Candidates)
		}
		if drink == nil {
			continue
		}
		item := BuildOrderItem(drink, ex)
		if err := work.AddItem(item); err != nil {
			d.deps.Log.Debug("order item rejected", "drink", drink.Name, "quantity", item.Quantity, "error", err)
			continue
		}
		added = append(added, item)
	}
	if len(added) == 0 {
		return d.unchanged(in), nil
	}
	if replaced != nil {
		if err := d.persist(ctx, in, replaced); err != nil {
			return DispatchOutput{}, err
		}
	}
	if err := d.persist(ctx, in, work); err != nil {
		return DispatchOutput{}, err
	}
	return DispatchOutput{Order: work, Persisted: true, Added: added}, nil
}

// BuildOrderItem turns an extraction into an item for drink, dropping
// customizations and size the drink does not support.
func BuildOrderItem(drink *types.Drink, ex ExtractedOrderItem) types.OrderItem {
	qty := ex.Quantity
	if qty == 0 {
		qty = 1
	}
	size := types.SizeNone
	if drink.Capabilities.Size {
		if s, ok := types.ParseSize(ex.Size); ok {
			size = s
		}
	}
	return types.OrderItem{
		DrinkID:        drink.ID,
		DrinkName:      drink.Name,
		Size:           size,
		Quantity:       qty,
		UnitPrice:      drink.Price(),
		Customizations: drink.Capabilities.Filter(ex.Customizations),
	}
}

func applyChanges(item types.OrderItem, ch ModificationChanges) types.OrderItem {
	if ch.Quantity != nil {
		item = item.WithQuantity(*ch.Quantity)
	}
	if ch.Size != "" {
		if s, ok := types.ParseSize(ch.Size); ok && s != types.SizeNone {
			item = item.WithSize(s)
		}
	}
	c := item.Customizations
	for _, k := range ch.RemoveCustomizations {
		c = c.Without(k)
	}
	c = c.Merge(ch.AddCustomizations)
	return item.WithCustomizations(c)
}

func (d dispatcher) modifyOrder(ctx context.Context, in DispatchInput) (DispatchOutput, error) {
	if in.Order == nil {
		return d.unchanged(in), nil
	}
	if !in.Order.IsModifiable() {
		return d.rejected(in, "modify", types.ErrNotModifiable), nil
	}
	mods := ExtractedModifications(in.NLU, d.limits.ConfidenceFloor)
	if len(mods) == 0 {
		return d.unchanged(in), nil
	}

	// Targets resolve against the order as the user saw it, so replacements go
	// first and removals run from the highest index down.
	work := in.Order.Clone()
	removals := map[int]bool{}
	changed := false
	for _, m := range mods {
		idx, ok := ResolveItemIndex(m, in.Order)
		if !ok {
			d.deps.Log.Debug("modification target not found", "item_index", m.ItemIndex, "drink", m.DrinkName)
			continue
		}
		if m.Action == ModificationRemove || (m.Changes.Quantity != nil && *m.Changes.Quantity == 0) {
			removals[idx] = true
			continue
		}
		if removals[idx] {
			continue
		}
		next := applyChanges(work.Items[idx], m.Changes)
		if err := work.ReplaceItemAt(idx, next); err != nil {
			d.deps.Log.Debug("modification rejected", "index", idx, "error", err)
			continue
		}
		changed = true
	}

	idxs := make([]int, 0, len(removals))
	for idx := range removals {
		idxs = append(idxs, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
	for _, idx := range idxs {
		if err := work.RemoveItemAt(idx); err != nil {
			d.deps.Log.Debug("removal rejected", "index", idx, "error", err)
			continue
		}
		changed = true
	}

	if !changed {
		return d.unchanged(in), nil
	}
	if work.ItemCount() == 0 {
		return d.clear(ctx, in, work)
	}
	if err := d.persist(ctx, in, work); err != nil {
		return DispatchOutput{}, err
	}
	return DispatchOutput{Order: work, Persisted: true}, nil
}

func (d dispatcher) confirmOrder(ctx context.Context, in DispatchInput) (DispatchOutput, error) {
	if in.Order == nil {
		return d.unchanged(in), nil
	}
	work := in.Order.Clone()
	if err := work.Confirm(); err != nil {
		return d.rejected(in, "confirm", err), nil
	}
	if err := d.persist(ctx, in, work); err != nil {
		return DispatchOutput{}, err
	}
	return DispatchOutput{Order: work, Persisted: true}, nil
}

func (d dispatcher) processPayment(ctx context.Context, in DispatchInput) (DispatchOutput, error) {
	if in.Order == nil {
		return d.unchanged(in), nil
	}
	work := in.Order.Clone()
	switch {
	case work.Status == types.OrderStatusConfirmed:
	case work.CanConfirm():
		if err := work.Confirm(); err != nil {
			return d.rejected(in, "confirm", err), nil
		}
	default:
		return d.rejected(in, "pay", types.ErrInvalidTransition), nil
	}
	if err := work.Complete(); err != nil {
		return d.rejected(in, "complete", err), nil
	}
	return d.clear(ctx, in, work)
}

func (d dispatcher) cancelOrder(ctx context.Context, in DispatchInput) (DispatchOutput, error) {
	if in.Order == nil {
		return d.unchanged(in), nil
	}
	work := in.Order.Clone()
	if err := work.Cancel(); err != nil {
		return d.rejected(in, "cancel", err), nil
	}
	return d.clear(ctx, in, work)
}
