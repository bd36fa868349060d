package models

import (
	"context"
	"errors"
	"time"

	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/mkitchen-fabworks/production_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BuiltItem is an assembly ("panel") built from raw materials and components.
type BuiltItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description    string          `gorm:"type:text" json:"description"`
	LabourHours    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labour_hours"`
	BuiltQuantity  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"built_quantity"`
	MinStock       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_stock"`
	CostGbp        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_gbp"`
	CostStale      bool            `gorm:"not null;default:false;index" json:"cost_stale"`
	CostComputedAt *time.Time      `json:"cost_computed_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	BOMEdges []BuiltItemBOMEdge `gorm:"foreignKey:BuiltItemId" json:"bom_edges,omitempty"`
}

// BuiltItemBOMEdge is one recipe line of a built item; the ingredient is
// either a raw material or a component, never another built item.
type BuiltItemBOMEdge struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BuiltItemId int             `gorm:"index;not null" json:"built_item_id"`
	ItemType    RecipeItemType  `gorm:"type:enum('raw_material','component');not null" json:"item_type"`
	ItemId      int             `gorm:"index;not null" json:"item_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit        string          `gorm:"size:50" json:"unit"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewBuiltItem struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	LabourHours decimal.Decimal `json:"labour_hours"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

type NewBuiltItemBOMEdge struct {
	ItemType RecipeItemType  `json:"item_type" binding:"required"`
	ItemId   int             `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Unit     string          `json:"unit"`
}

func (input *NewBuiltItem) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[BuiltItem](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.LabourHours.IsNegative() {
		return errors.New("labour hours cannot be negative")
	}
	return nil
}

func CreateBuiltItem(ctx context.Context, input *NewBuiltItem) (*BuiltItem, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	item := BuiltItem{
		Name:        input.Name,
		Description: input.Description,
		LabourHours: input.LabourHours,
		MinStock:    input.MinStock,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return computeBuiltItemCostTx(tx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateBuiltItem(ctx context.Context, id int, input *NewBuiltItem) (*BuiltItem, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[BuiltItem](ctx, id)
	if err != nil {
		return nil, err
	}
	labourChanged := !item.LabourHours.Equal(input.LabourHours)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(item).Updates(map[string]interface{}{
			"Name":        input.Name,
			"Description": input.Description,
			"LabourHours": input.LabourHours,
			"MinStock":    input.MinStock,
		}).Error; err != nil {
			return err
		}
		if labourChanged {
			return recomputeBuiltItemCostTx(tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[BuiltItem](ctx, id)
}

func DeleteBuiltItem(ctx context.Context, id int) (*BuiltItem, error) {

	item, err := utils.FetchModel[BuiltItem](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[ProductComponentEdge](ctx, "component_type = ? AND component_id = ?", RecipeItemBuiltItem, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ErrorEntityInUse
	}
	// Movement history is append-only and pins the entity.
	count, err = utils.ResourceCountWhere[Movement](ctx, "target_kind = ? AND target_id = ?", TargetKindBuiltItem, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ErrorEntityInUse
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("built_item_id = ?", id).Delete(&BuiltItemBOMEdge{}).Error; err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func GetBuiltItem(ctx context.Context, id int) (*BuiltItem, error) {
	return utils.FetchModel[BuiltItem](ctx, id, "BOMEdges")
}

func ListBuiltItems(ctx context.Context) ([]*BuiltItem, error) {
	return utils.FetchAllModels[BuiltItem](ctx, "BOMEdges")
}

// AddBuiltItemBOMEdge attaches one recipe line. The ingredient tier is checked
// here: built items may consume raw materials and components only.
func AddBuiltItemBOMEdge(ctx context.Context, builtItemId int, input *NewBuiltItemBOMEdge) (*BuiltItemBOMEdge, error) {

	if err := utils.ValidateResourceId[BuiltItem](ctx, builtItemId); err != nil {
		return nil, err
	}

	switch input.ItemType {
	case RecipeItemRawMaterial:
		if err := utils.ValidateResourceId[StockItem](ctx, input.ItemId); err != nil {
			return nil, err
		}
	case RecipeItemComponent:
		if err := utils.ValidateResourceId[Component](ctx, input.ItemId); err != nil {
			return nil, err
		}
	default:
		return nil, utils.ErrorInvalidRecipeKind
	}
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}

	edge := BuiltItemBOMEdge{
		BuiltItemId: builtItemId,
		ItemType:    input.ItemType,
		ItemId:      input.ItemId,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		return recomputeBuiltItemCostTx(tx, builtItemId)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func RemoveBuiltItemBOMEdge(ctx context.Context, edgeId int) (*BuiltItemBOMEdge, error) {

	edge, err := utils.FetchModel[BuiltItemBOMEdge](ctx, edgeId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(edge).Error; err != nil {
			return err
		}
		return recomputeBuiltItemCostTx(tx, edge.BuiltItemId)
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}
