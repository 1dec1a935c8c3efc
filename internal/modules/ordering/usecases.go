package ordering

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Conversations steps.ConversationStore
	Orders        steps.OrderStore
	Menu          steps.MenuStore

	NLU         steps.NLU
	NLUProvider string
	Search      steps.SemanticSearch
	Cache       steps.TurnCache

	Metrics       *observability.Metrics
	Limits        types.Limits
	RAGLimit      int
	HistoryWindow int
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type (
	TurnInput        = steps.TurnInput
	TurnOutput       = steps.TurnOutput
	ConversationView = steps.ConversationView
	OrderSummary     = steps.OrderSummary
	TurnError        = steps.TurnError
	ErrorKind        = steps.ErrorKind
)

func (u Usecases) turnDeps() steps.TurnDeps {
	return steps.TurnDeps{
		Log:           u.deps.Log,
		Conversations: u.deps.Conversations,
		Orders:        u.deps.Orders,
		Menu:          u.deps.Menu,
		Search:        u.deps.Search,
		NLU:           u.deps.NLU,
		Cache:         u.deps.Cache,
		NLUProvider:   u.deps.NLUProvider,
		Metrics:       u.deps.Metrics,
		Limits:        u.deps.Limits,
		RAGLimit:      u.deps.RAGLimit,
		HistoryWindow: u.deps.HistoryWindow,
	}
}

func (u Usecases) ProcessTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	return steps.ProcessTurn(ctx, u.turnDeps(), in)
}

func (u Usecases) StreamTurn(ctx context.Context, in TurnInput, onChunk func(string)) (TurnOutput, error) {
	return steps.StreamTurn(ctx, u.turnDeps(), in, onChunk)
}

func (u Usecases) GetConversation(ctx context.Context, id uuid.UUID) (ConversationView, error) {
	return steps.GetConversation(ctx, steps.GetConversationDeps{
		Log:           u.deps.Log,
		Conversations: u.deps.Conversations,
	}, id)
}

const (
	KindEmptyMessage         = steps.KindEmptyMessage
	KindConversationNotFound = steps.KindConversationNotFound
	KindValidation           = steps.KindValidation
	KindUnexpected           = steps.KindUnexpected
)

// KindOf reports the ErrorKind of an error returned by Usecases.
func KindOf(err error) ErrorKind { return steps.KindOf(err) }
