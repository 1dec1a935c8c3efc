package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/barista-backend/internal/data/repos/testutil"
	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
)

func TestDrinkRepoUpsertAndLookup(t *testing.T) {
	db := testutil.DB(t)
	repo := NewDrinkRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	rows, err := repo.Upsert(dbc, []*types.Drink{
		{Name: "Caffè Latte", Description: "Espresso and steamed milk", PriceAmount: 450, Currency: "USD",
			Capabilities: types.Capabilities{Milk: true, Syrup: true, Size: true}},
		{Name: "Caffè Mocha", Description: "Espresso, chocolate and milk", PriceAmount: 500, Currency: "USD",
			Capabilities: types.Capabilities{Milk: true, Topping: true, Size: true}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	firstID := rows[0].ID

	got, err := repo.FindByName(dbc, "caffè latte")
	if err != nil || got == nil {
		t.Fatalf("FindByName: %v, %v", got, err)
	}
	if !got.Capabilities.Milk || got.Capabilities.Topping {
		t.Fatalf("capabilities did not round-trip: %+v", got.Capabilities)
	}

	again, err := repo.Upsert(dbc, []*types.Drink{
		{Name: "Caffè Latte", Description: "Updated", PriceAmount: 475, Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if len(again) != 1 || again[0].ID != firstID || again[0].PriceAmount != 475 {
		t.Fatalf("expected update in place, got %+v", again)
	}

	all, err := repo.FindAll(dbc)
	if err != nil || len(all) != 2 {
		t.Fatalf("FindAll: %d rows, %v", len(all), err)
	}

	byIDs, err := repo.FindByIDs(dbc, []uuid.UUID{firstID})
	if err != nil || len(byIDs) != 1 {
		t.Fatalf("FindByIDs: %d rows, %v", len(byIDs), err)
	}

	miss, err := repo.FindByName(dbc, "Flat White")
	if err != nil || miss != nil {
		t.Fatalf("expected (nil, nil) on miss, got %v, %v", miss, err)
	}
}
