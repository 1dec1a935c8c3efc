package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/barista-backend/internal/data/repos/testutil"
	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
)

func TestConversationRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewConversationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	conv := types.NewConversation(50)
	if err := repo.Save(dbc, conv); err != nil {
		t.Fatalf("Save: %v", err)
	}

	conv.AddMessage(types.RoleUser, "hello")
	conv.AddMessage(types.RoleAssistant, "hi, what can I get you?")
	orderID := uuid.New()
	conv.SetCurrentOrder(orderID)
	if err := repo.Save(dbc, conv); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := repo.FindByID(dbc, conv.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil {
		t.Fatalf("expected conversation")
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != types.RoleAssistant {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.CurrentOrderID == nil || *got.CurrentOrderID != orderID {
		t.Fatalf("unexpected current order: %v", got.CurrentOrderID)
	}

	got.ClearCurrentOrder()
	if err := repo.Save(dbc, got); err != nil {
		t.Fatalf("Save clear: %v", err)
	}
	again, err := repo.FindByID(dbc, conv.ID)
	if err != nil || again == nil {
		t.Fatalf("FindByID after clear: %v", err)
	}
	if again.CurrentOrderID != nil {
		t.Fatalf("expected cleared order reference, got %v", again.CurrentOrderID)
	}

	missing, err := repo.FindByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown id, got %v, %v", missing, err)
	}
}

func TestConversationRepoTx(t *testing.T) {
	db := testutil.DB(t)
	repo := NewConversationRepo(db, testutil.Logger(t))
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	conv := types.NewConversation(50)
	if err := repo.Save(dbc, conv); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.FindByID(dbc, conv.ID)
	if err != nil || got == nil {
		t.Fatalf("expected conversation inside tx, got %v, %v", got, err)
	}
}
