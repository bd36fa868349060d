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

// Component is built from raw materials only. CostGbp and BuiltQuantity are
// cached projections: CostGbp = BOM value + labour, BuiltQuantity = sum of
// build/use/adjustment movements.
type Component struct {
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

	BOMEdges []ComponentBOMEdge `gorm:"foreignKey:ComponentId" json:"bom_edges,omitempty"`
}

// ComponentBOMEdge is one recipe line of a component. Components consume raw
// materials only, so the target is always a stock item.
type ComponentBOMEdge struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ComponentId int             `gorm:"index;not null" json:"component_id"`
	StockItemId int             `gorm:"index;not null" json:"stock_item_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit        string          `gorm:"size:50" json:"unit"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewComponent struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	LabourHours decimal.Decimal `json:"labour_hours"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

type NewComponentBOMEdge struct {
	StockItemId int             `json:"stock_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Unit        string          `json:"unit"`
}

func (input *NewComponent) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Component](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.LabourHours.IsNegative() {
		return errors.New("labour hours cannot be negative")
	}
	return nil
}

func CreateComponent(ctx context.Context, input *NewComponent) (*Component, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	component := Component{
		Name:        input.Name,
		Description: input.Description,
		LabourHours: input.LabourHours,
		MinStock:    input.MinStock,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&component).Error; err != nil {
			return err
		}
		// Seed the cached cost; with no BOM edges yet this is labour only.
		return computeComponentCostTx(tx, component.ID)
	})
	if err != nil {
		return nil, err
	}
	return &component, nil
}

// UpdateComponent recomputes the cached cost and fans out to dependents when
// labour hours change.
func UpdateComponent(ctx context.Context, id int, input *NewComponent) (*Component, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	component, err := utils.FetchModel[Component](ctx, id)
	if err != nil {
		return nil, err
	}
	labourChanged := !component.LabourHours.Equal(input.LabourHours)

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(component).Updates(map[string]interface{}{
			"Name":        input.Name,
			"Description": input.Description,
			"LabourHours": input.LabourHours,
			"MinStock":    input.MinStock,
		}).Error; err != nil {
			return err
		}
		if labourChanged {
			return recomputeComponentCostTx(tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Component](ctx, id)
}

func DeleteComponent(ctx context.Context, id int) (*Component, error) {

	component, err := utils.FetchModel[Component](ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateComponentUnused(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("component_id = ?", id).Delete(&ComponentBOMEdge{}).Error; err != nil {
			return err
		}
		return tx.Delete(component).Error
	})
	if err != nil {
		return nil, err
	}
	return component, nil
}

func validateComponentUnused(ctx context.Context, id int) error {
	count, err := utils.ResourceCountWhere[BuiltItemBOMEdge](ctx, "item_type = ? AND item_id = ?", RecipeItemComponent, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	count, err = utils.ResourceCountWhere[ProductComponentEdge](ctx, "component_type = ? AND component_id = ?", RecipeItemComponent, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	// Movement history is append-only and pins the entity.
	count, err = utils.ResourceCountWhere[Movement](ctx, "target_kind = ? AND target_id = ?", TargetKindComponent, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ErrorEntityInUse
	}
	return nil
}

func GetComponent(ctx context.Context, id int) (*Component, error) {
	return utils.FetchModel[Component](ctx, id, "BOMEdges")
}

func ListComponents(ctx context.Context) ([]*Component, error) {
	return utils.FetchAllModels[Component](ctx, "BOMEdges")
}

// AddComponentBOMEdge attaches one recipe line and recomputes the component's
// cached cost (cascading to its dependents) in the same transaction.
func AddComponentBOMEdge(ctx context.Context, componentId int, input *NewComponentBOMEdge) (*ComponentBOMEdge, error) {

	if err := utils.ValidateResourceId[Component](ctx, componentId); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[StockItem](ctx, input.StockItemId); err != nil {
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}

	edge := ComponentBOMEdge{
		ComponentId: componentId,
		StockItemId: input.StockItemId,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		return recomputeComponentCostTx(tx, componentId)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func RemoveComponentBOMEdge(ctx context.Context, edgeId int) (*ComponentBOMEdge, error) {

	edge, err := utils.FetchModel[ComponentBOMEdge](ctx, edgeId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(edge).Error; err != nil {
			return err
		}
		return recomputeComponentCostTx(tx, edge.ComponentId)
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}
