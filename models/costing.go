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

// costedLine is one resolved recipe line: required quantity times the unit
// cost of the ingredient.
type costedLine struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

func bomValue(lines []costedLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Quantity.Mul(line.UnitCost))
	}
	return total
}

// trueCost is BOM value plus labour.
func trueCost(bomVal, labourHours, labourRate decimal.Decimal) decimal.Decimal {
	return bomVal.Add(labourHours.Mul(labourRate))
}

// resolveCostTx returns the unit cost of a recipe ingredient: a raw
// material's cost per unit, or the cached cost of a component/built item.
// Rollups read already-computed child costs; the cascade keeps them fresh by
// always recomputing children before their parents.
func resolveCostTx(tx *gorm.DB, itemType RecipeItemType, id int) (decimal.Decimal, error) {
	switch itemType {
	case RecipeItemRawMaterial:
		var item StockItem
		if err := tx.Select("id", "cost_per_unit_gbp").First(&item, id).Error; err != nil {
			return decimal.Zero, utils.ErrorRecordNotFound
		}
		return item.CostPerUnitGbp, nil
	case RecipeItemComponent:
		var component Component
		if err := tx.Select("id", "cost_gbp").First(&component, id).Error; err != nil {
			return decimal.Zero, utils.ErrorRecordNotFound
		}
		return component.CostGbp, nil
	case RecipeItemBuiltItem:
		var item BuiltItem
		if err := tx.Select("id", "cost_gbp").First(&item, id).Error; err != nil {
			return decimal.Zero, utils.ErrorRecordNotFound
		}
		return item.CostGbp, nil
	}
	return decimal.Zero, utils.ErrorInvalidRecipeKind
}

// computeComponentCostTx recomputes and persists one component's cached cost
// without cascading.
func computeComponentCostTx(tx *gorm.DB, id int) error {
	var component Component
	if err := tx.First(&component, id).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	var edges []ComponentBOMEdge
	if err := tx.Where("component_id = ?", id).Find(&edges).Error; err != nil {
		return err
	}

	lines := make([]costedLine, 0, len(edges))
	for _, edge := range edges {
		unitCost, err := resolveCostTx(tx, RecipeItemRawMaterial, edge.StockItemId)
		if err != nil {
			return wrapCascadeError("component", id, err)
		}
		lines = append(lines, costedLine{Quantity: edge.Quantity, UnitCost: unitCost})
	}

	rate, err := labourRateTx(tx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	cost := trueCost(bomValue(lines), component.LabourHours, rate)
	return tx.Model(&Component{}).Where("id = ?", id).Updates(map[string]interface{}{
		"CostGbp":        cost,
		"CostStale":      false,
		"CostComputedAt": &now,
	}).Error
}

func computeBuiltItemCostTx(tx *gorm.DB, id int) error {
	var item BuiltItem
	if err := tx.First(&item, id).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	var edges []BuiltItemBOMEdge
	if err := tx.Where("built_item_id = ?", id).Find(&edges).Error; err != nil {
		return err
	}

	lines := make([]costedLine, 0, len(edges))
	for _, edge := range edges {
		unitCost, err := resolveCostTx(tx, edge.ItemType, edge.ItemId)
		if err != nil {
			return wrapCascadeError("built_item", id, err)
		}
		lines = append(lines, costedLine{Quantity: edge.Quantity, UnitCost: unitCost})
	}

	rate, err := labourRateTx(tx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	cost := trueCost(bomValue(lines), item.LabourHours, rate)
	return tx.Model(&BuiltItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"CostGbp":        cost,
		"CostStale":      false,
		"CostComputedAt": &now,
	}).Error
}

func computeProductCostTx(tx *gorm.DB, id int) error {
	var product Product
	if err := tx.First(&product, id).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	var edges []ProductComponentEdge
	if err := tx.Where("product_id = ?", id).Find(&edges).Error; err != nil {
		return err
	}

	lines := make([]costedLine, 0, len(edges))
	for _, edge := range edges {
		unitCost, err := resolveCostTx(tx, edge.ComponentType, edge.ComponentId)
		if err != nil {
			return wrapCascadeError("product", id, err)
		}
		lines = append(lines, costedLine{Quantity: edge.Quantity, UnitCost: unitCost})
	}

	now := time.Now().UTC()
	return tx.Model(&Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"CostGbp":        bomValue(lines),
		"CostStale":      false,
		"CostComputedAt": &now,
	}).Error
}

// recompute = compute + cascade to dependents, all inside the caller's
// transaction so a failed fan-out rolls the whole operation back.

func recomputeComponentCostTx(tx *gorm.DB, id int) error {
	if err := computeComponentCostTx(tx, id); err != nil {
		return err
	}
	return propagateComponentChangeTx(tx, id)
}

func recomputeBuiltItemCostTx(tx *gorm.DB, id int) error {
	if err := computeBuiltItemCostTx(tx, id); err != nil {
		return err
	}
	return propagateBuiltItemChangeTx(tx, id)
}

// Products are the top tier; there is nothing to cascade to.
func recomputeProductCostTx(tx *gorm.DB, id int) error {
	return computeProductCostTx(tx, id)
}

// RecomputeComponentCost recomputes one component's cached cost and cascades
// to its dependents. Safe to call repeatedly; an unchanged entity recomputes
// to the same stored value.
func RecomputeComponentCost(ctx context.Context, id int) (*Component, error) {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recomputeComponentCostTx(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Component](ctx, id)
}

func RecomputeBuiltItemCost(ctx context.Context, id int) (*BuiltItem, error) {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recomputeBuiltItemCostTx(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[BuiltItem](ctx, id)
}

func RecomputeProductCost(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recomputeProductCostTx(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Product](ctx, id)
}

// RecomputeEntityCost is the dispatch entry point for manual reconciliation
// from the API layer.
func RecomputeEntityCost(ctx context.Context, kind string, id int) (interface{}, error) {
	switch kind {
	case "component":
		return RecomputeComponentCost(ctx, id)
	case "built_item":
		return RecomputeBuiltItemCost(ctx, id)
	case "product":
		return RecomputeProductCost(ctx, id)
	}
	return nil, errors.New("invalid entity kind for cost recompute")
}

// CascadeError marks a recompute failure inside a fan-out so callers can tell
// a broken cascade apart from a plain validation error.
type CascadeError struct {
	Tier string
	Id   int
	Err  error
}

func (e *CascadeError) Error() string {
	return "cost recompute failed for " + e.Tier + ": " + e.Err.Error()
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

func wrapCascadeError(tier string, id int, err error) error {
	return &CascadeError{Tier: tier, Id: id, Err: err}
}
