package steps

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
)

// Intent is the closed set of turn classifications.
type Intent string

const (
	IntentOrderDrink     Intent = "order_drink"
	IntentModifyOrder    Intent = "modify_order"
	IntentConfirmOrder   Intent = "confirm_order"
	IntentProcessPayment Intent = "process_payment"
	IntentCancelOrder    Intent = "cancel_order"
	IntentAskQuestion    Intent = "ask_question"
	IntentGreeting       Intent = "greeting"
	IntentUnknown        Intent = "unknown"
)

func AllIntents() []Intent {
	return []Intent{
		IntentOrderDrink,
		IntentModifyOrder,
		IntentConfirmOrder,
		IntentProcessPayment,
		IntentCancelOrder,
		IntentAskQuestion,
		IntentGreeting,
		IntentUnknown,
	}
}

// ParseIntent maps a model-provided label onto an Intent; anything unrecognized is IntentUnknown.
func ParseIntent(s string) Intent {
	in := Intent(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllIntents() {
		if in == known {
			return in
		}
	}
	return IntentUnknown
}

type ActionType string

const (
	ActionAddItem         ActionType = "add_item"
	ActionUpdateItem      ActionType = "update_item"
	ActionRemoveItem      ActionType = "remove_item"
	ActionConfirmOrder    ActionType = "confirm_order"
	ActionCancelOrder     ActionType = "cancel_order"
	ActionSearchDrinks    ActionType = "search_drinks"
	ActionGetSummary      ActionType = "get_summary"
	ActionGetFullMenu     ActionType = "get_full_menu"
	ActionGetDrinkDetails ActionType = "get_drink_details"
)

func AllActionTypes() []ActionType {
	return []ActionType{
		ActionAddItem,
		ActionUpdateItem,
		ActionRemoveItem,
		ActionConfirmOrder,
		ActionCancelOrder,
		ActionSearchDrinks,
		ActionGetSummary,
		ActionGetFullMenu,
		ActionGetDrinkDetails,
	}
}

func ParseActionType(s string) (ActionType, bool) {
	a := ActionType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllActionTypes() {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// ExtractedOrderItem is one drink the model believes the user asked for.
type ExtractedOrderItem struct {
	DrinkName      string               `json:"drink_name"`
	Size           string               `json:"size,omitempty"`
	Quantity       int                  `json:"quantity"`
	Customizations types.Customizations `json:"customizations"`
	Confidence     float64              `json:"confidence"`
}

type ModificationAction string

const (
	ModificationModify ModificationAction = "modify"
	ModificationRemove ModificationAction = "remove"
)

type ModificationChanges struct {
	// Quantity is nil when unchanged; 0 removes the item.
	Quantity             *int                     `json:"quantity,omitempty"`
	Size                 string                   `json:"size,omitempty"`
	AddCustomizations    types.Customizations     `json:"add_customizations"`
	RemoveCustomizations []types.CustomizationKey `json:"remove_customizations,omitempty"`
}

// ExtractedModification targets an existing order item by 1-based index or by drink name.
type ExtractedModification struct {
	Action     ModificationAction  `json:"action"`
	ItemIndex  *int                `json:"item_index,omitempty"`
	DrinkName  string              `json:"drink_name,omitempty"`
	Changes    ModificationChanges `json:"changes"`
	Confidence float64             `json:"confidence"`
}

// SuggestedAction is one structured action reported alongside the reply.
// Items and Modifications carry the extractions for add_item / update_item / remove_item.
type SuggestedAction struct {
	Type          ActionType              `json:"type"`
	DrinkName     string                  `json:"drink_name,omitempty"`
	Query         string                  `json:"query,omitempty"`
	Items         []ExtractedOrderItem    `json:"items,omitempty"`
	Modifications []ExtractedModification `json:"modifications,omitempty"`
}

type NLUInput struct {
	UserMessage  string
	History      string
	Candidates   []*types.Drink
	OrderSummary string
}

type NLUOutput struct {
	Reply   string
	Intent  Intent
	Actions []SuggestedAction
	// LegacyItem is the single-extraction field; used only when no action carries items.
	LegacyItem *ExtractedOrderItem
}

// NLU produces the intent, extractions and reply for one turn.
type NLU interface {
	GenerateResponse(ctx context.Context, in NLUInput) (NLUOutput, error)
	// Stream forwards reply text chunks to onChunk as they arrive, then returns the full result.
	Stream(ctx context.Context, in NLUInput, onChunk func(string)) (NLUOutput, error)
}

type ConversationStore interface {
	Save(dbc dbctx.Context, conv *types.Conversation) error
	FindByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
}

type OrderStore interface {
	FindActiveByConversation(dbc dbctx.Context, conversationID uuid.UUID) (*types.Order, error)
	SaveWithConversation(dbc dbctx.Context, order *types.Order, conversationID uuid.UUID) error
}

type MenuStore interface {
	FindAll(dbc dbctx.Context) ([]*types.Drink, error)
	FindByName(dbc dbctx.Context, name string) (*types.Drink, error)
}

type DrinkMatch struct {
	Drink *types.Drink
	Score float64
}

type SemanticSearch interface {
	FindSimilar(ctx context.Context, text string, limit int) ([]DrinkMatch, error)
}

// TurnContext is the advisory per-conversation record written after each turn.
type TurnContext struct {
	Intent         Intent    `json:"intent"`
	HasActiveOrder bool      `json:"has_active_order"`
	LastDrink      string    `json:"last_drink,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type TurnCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, conversationID uuid.UUID) (*TurnContext, error)
	Set(ctx context.Context, conversationID uuid.UUID, tc TurnContext) error
	Invalidate(ctx context.Context, conversationID uuid.UUID) error
}
