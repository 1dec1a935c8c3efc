package menu

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

type DrinkRepo interface {
	FindAll(dbc dbctx.Context) ([]*types.Drink, error)
	// FindByName matches case-insensitively and returns (nil, nil) on a miss.
	FindByName(dbc dbctx.Context, name string) (*types.Drink, error)
	FindByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Drink, error)
	// Upsert inserts drinks, updating existing rows matched by name.
	Upsert(dbc dbctx.Context, rows []*types.Drink) ([]*types.Drink, error)
}

type drinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDrinkRepo(db *gorm.DB, log *logger.Logger) DrinkRepo {
	return &drinkRepo{db: db, log: log.With("repo", "DrinkRepo")}
}

func (r *drinkRepo) FindAll(dbc dbctx.Context) ([]*types.Drink, error) {
	var out []*types.Drink
	if err := dbc.DB(r.db).
		Model(&types.Drink{}).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *drinkRepo) FindByName(dbc dbctx.Context, name string) (*types.Drink, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var out types.Drink
	err := dbc.DB(r.db).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *drinkRepo) FindByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Drink, error) {
	if len(ids) == 0 {
		return []*types.Drink{}, nil
	}
	var out []*types.Drink
	if err := dbc.DB(r.db).
		Model(&types.Drink{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *drinkRepo) Upsert(dbc dbctx.Context, rows []*types.Drink) ([]*types.Drink, error) {
	if len(rows) == 0 {
		return []*types.Drink{}, nil
	}
	now := time.Now().UTC()
	for _, d := range rows {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description",
				"price_amount",
				"currency",
				"supports_milk",
				"supports_syrup",
				"supports_sweetener",
				"supports_topping",
				"supports_size",
				"updated_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}
	// Conflicting rows keep their stored id; reload so callers see it.
	names := make([]string, 0, len(rows))
	for _, d := range rows {
		names = append(names, d.Name)
	}
	var out []*types.Drink
	if err := dbc.DB(r.db).Where("name IN ?", names).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
