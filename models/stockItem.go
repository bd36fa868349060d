package models

import (
	"context"
	"time"

	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/mkitchen-fabworks/production_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem is a raw material. CurrentQuantity is a cached projection of the
// movement ledger; it is only ever written together with a Movement row.
type StockItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description     string          `gorm:"type:text" json:"description"`
	Category        string          `gorm:"size:255" json:"category"`
	Unit            string          `gorm:"size:50;not null" json:"unit"`
	Location        string          `gorm:"size:100" json:"location"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_quantity"`
	MinQuantity     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_quantity"`
	CostPerUnitGbp  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit_gbp"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockItem struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit" binding:"required"`
	Location       string          `json:"location"`
	MinQuantity    decimal.Decimal `json:"min_quantity"`
	CostPerUnitGbp decimal.Decimal `json:"cost_per_unit_gbp"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewStockItem) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[StockItem](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateStockItem(ctx context.Context, input *NewStockItem) (*StockItem, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	item := StockItem{
		Name:           input.Name,
		Description:    input.Description,
		Category:       input.Category,
		Unit:           input.Unit,
		Location:       input.Location,
		MinQuantity:    input.MinQuantity,
		CostPerUnitGbp: input.CostPerUnitGbp,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStockItem updates the static fields of a raw material. A change to
// CostPerUnitGbp fans out to every component, built item, and product whose
// recipe consumes this item, inside the same transaction.
func UpdateStockItem(ctx context.Context, id int, input *NewStockItem) (*StockItem, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[StockItem](ctx, id)
	if err != nil {
		return nil, err
	}
	costChanged := !item.CostPerUnitGbp.Equal(input.CostPerUnitGbp)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(item).Updates(map[string]interface{}{
			"Name":           input.Name,
			"Description":    input.Description,
			"Category":       input.Category,
			"Unit":           input.Unit,
			"Location":       input.Location,
			"MinQuantity":    input.MinQuantity,
			"CostPerUnitGbp": input.CostPerUnitGbp,
		}).Error; err != nil {
			return err
		}
		if costChanged {
			return propagateStockItemChangeTx(tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

func DeleteStockItem(ctx context.Context, id int) (*StockItem, error) {

	item, err := utils.FetchModel[StockItem](ctx, id)
	if err != nil {
		return nil, err
	}

	// A raw material referenced by any recipe, or with ledger history, may
	// not be deleted.
	if err := validateStockItemUnused(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func validateStockItemUnused(ctx context.Context, id int) error {
	count, err := utils.ResourceCountWhere[ComponentBOMEdge](ctx, "stock_item_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	count, err = utils.ResourceCountWhere[BuiltItemBOMEdge](ctx, "item_type = ? AND item_id = ?", RecipeItemRawMaterial, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	count, err = utils.ResourceCountWhere[ProductComponentEdge](ctx, "component_type = ? AND component_id = ?", RecipeItemRawMaterial, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	// The ledger is append-only; an entity with movement history keeps its
	// rows and therefore cannot be removed.
	count, err = utils.ResourceCountWhere[Movement](ctx, "target_kind = ? AND target_id = ?", TargetKindStockItem, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	return nil
}

func GetStockItem(ctx context.Context, id int) (*StockItem, error) {
	return utils.FetchModel[StockItem](ctx, id)
}

func ListStockItems(ctx context.Context) ([]*StockItem, error) {
	return utils.FetchAllModels[StockItem](ctx)
}
