package domain

import (
	"github.com/yungbote/barista-backend/internal/domain/chat"
	"github.com/yungbote/barista-backend/internal/domain/menu"
	"github.com/yungbote/barista-backend/internal/domain/ordering"
)

const (
	OrderStatusPending   = ordering.StatusPending
	OrderStatusConfirmed = ordering.StatusConfirmed
	OrderStatusCompleted = ordering.StatusCompleted
	OrderStatusCancelled = ordering.StatusCancelled

	SizeNone   = ordering.SizeNone
	SizeTall   = ordering.SizeTall
	SizeGrande = ordering.SizeGrande
	SizeVenti  = ordering.SizeVenti

	CustomMilk      = ordering.CustomMilk
	CustomSyrup     = ordering.CustomSyrup
	CustomSweetener = ordering.CustomSweetener
	CustomTopping   = ordering.CustomTopping

	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant
)

type (
	Order            = ordering.Order
	OrderItem        = ordering.OrderItem
	OrderStatus      = ordering.Status
	Size             = ordering.Size
	Money            = ordering.Money
	Customizations   = ordering.Customizations
	CustomizationKey = ordering.CustomizationKey
	Limits           = ordering.Limits

	Conversation = chat.Conversation
	Message      = chat.Message
	Role         = chat.Role

	Drink        = menu.Drink
	Capabilities = menu.Capabilities
)

var (
	ErrNotModifiable         = ordering.ErrNotModifiable
	ErrEmptyOrder            = ordering.ErrEmptyOrder
	ErrInvalidTransition     = ordering.ErrInvalidTransition
	ErrItemQuantityRange     = ordering.ErrItemQuantityRange
	ErrOrderQuantityExceeded = ordering.ErrOrderQuantityExceeded
	ErrItemIndexOutOfRange   = ordering.ErrItemIndexOutOfRange
)

var (
	NewOrder              = ordering.NewOrder
	NewConversation       = chat.NewConversation
	DefaultLimits         = ordering.DefaultLimits
	ParseSize             = ordering.ParseSize
	ParseCustomizationKey = ordering.ParseCustomizationKey
	AllCustomizationKeys  = ordering.AllCustomizationKeys
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&menu.Drink{},
		&chat.Conversation{},
		&ordering.Order{},
	}
}
