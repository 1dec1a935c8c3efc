package ordering

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var (
	ErrNotModifiable         = errors.New("order is not modifiable")
	ErrEmptyOrder            = errors.New("order has no items")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrItemQuantityRange     = errors.New("item quantity out of range")
	ErrOrderQuantityExceeded = errors.New("order quantity limit exceeded")
	ErrItemIndexOutOfRange   = errors.New("item index out of range")
)

type Order struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID *uuid.UUID                     `gorm:"type:uuid;column:conversation_id;index" json:"conversation_id,omitempty"`
	Status         Status                         `gorm:"column:status;not null;index" json:"status"`
	Items          datatypes.JSONSlice[OrderItem] `gorm:"column:items" json:"items"`
	// Active is false once the order has been cleared from its conversation.
	Active bool `gorm:"column:active;not null;index" json:"active"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`

	limits Limits
}

func (Order) TableName() string { return "customer_order" }

func NewOrder(limits Limits) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.New(),
		Status:    StatusPending,
		Items:     datatypes.JSONSlice[OrderItem]{},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
		limits:    limits.Normalized(),
	}
}

// UseLimits sets the thresholds for an order loaded from storage.
func (o *Order) UseLimits(l Limits) {
	o.limits = l.Normalized()
}

func (o *Order) lim() Limits {
	return o.limits.Normalized()
}

// Clone returns a deep copy; mutating the clone leaves o untouched.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append(datatypes.JSONSlice[OrderItem]{}, o.Items...)
	if o.ConversationID != nil {
		id := *o.ConversationID
		cp.ConversationID = &id
	}
	return &cp
}

func (o *Order) IsModifiable() bool { return o.Status == StatusPending }

func (o *Order) ItemCount() int { return len(o.Items) }

func (o *Order) TotalQuantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o *Order) Total() Money {
	var total Money
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (o *Order) checkItemQuantity(q int) error {
	if q < 1 || q > o.lim().MaxItemQuantity {
		return ErrItemQuantityRange
	}
	return nil
}

// AddItem appends item, or increments the quantity of an existing line with the
// same drink, size and customizations.
func (o *Order) AddItem(item OrderItem) error {
	if !o.IsModifiable() {
		return ErrNotModifiable
	}
	if err := o.checkItemQuantity(item.Quantity); err != nil {
		return err
	}
	if o.TotalQuantity()+item.Quantity > o.lim().MaxOrderQuantity {
		return ErrOrderQuantityExceeded
	}
	for i, existing := range o.Items {
		if !existing.SameLine(item) {
			continue
		}
		merged := existing.Quantity + item.Quantity
		if err := o.checkItemQuantity(merged); err != nil {
			return err
		}
		o.Items[i] = existing.WithQuantity(merged)
		o.touch()
		return nil
	}
	o.Items = append(o.Items, item)
	o.touch()
	return nil
}

func (o *Order) RemoveItemAt(i int) error {
	if !o.IsModifiable() {
		return ErrNotModifiable
	}
	if i < 0 || i >= len(o.Items) {
		return ErrItemIndexOutOfRange
	}
	o.Items = append(o.Items[:i:i], o.Items[i+1:]...)
	o.touch()
	return nil
}

func (o *Order) ReplaceItemAt(i int, item OrderItem) error {
	if !o.IsModifiable() {
		return ErrNotModifiable
	}
	if i < 0 || i >= len(o.Items) {
		return ErrItemIndexOutOfRange
	}
	if err := o.checkItemQuantity(item.Quantity); err != nil {
		return err
	}
	if o.TotalQuantity()-o.Items[i].Quantity+item.Quantity > o.lim().MaxOrderQuantity {
		return ErrOrderQuantityExceeded
	}
	o.Items[i] = item
	o.touch()
	return nil
}

func (o *Order) CanConfirm() bool {
	return o.Status == StatusPending && len(o.Items) > 0
}

func (o *Order) Confirm() error {
	if o.Status != StatusPending {
		return ErrInvalidTransition
	}
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	o.Status = StatusConfirmed
	o.touch()
	return nil
}

func (o *Order) Complete() error {
	if o.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	o.Status = StatusCompleted
	o.touch()
	return nil
}

func (o *Order) Cancel() error {
	if o.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	o.Status = StatusCancelled
	o.touch()
	return nil
}

// Deactivate marks the order as no longer referenced by its conversation.
// The row is retained.
func (o *Order) Deactivate() {
	o.Active = false
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
