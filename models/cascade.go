package models

import (
	"gorm.io/gorm"
)

// The cascade is a fan-out over the three-tier recipe DAG: the entity kinds
// form a fixed hierarchy, so propagation is at most two hops deep and always
// terminates. Each recompute re-reads current child costs, so recomputing a
// parent both via a direct edge and via an intermediate tier settles on the
// same value.

// propagateStockItemChangeTx recomputes everything whose recipe consumes the
// given raw material, bottom-up: components first (their recompute cascades
// upward), then built items and products that reference it directly.
func propagateStockItemChangeTx(tx *gorm.DB, stockItemId int) error {
	var componentIds []int
	if err := tx.Model(&ComponentBOMEdge{}).
		Where("stock_item_id = ?", stockItemId).
		Distinct().Pluck("component_id", &componentIds).Error; err != nil {
		return err
	}
	for _, id := range componentIds {
		if err := recomputeComponentCostTx(tx, id); err != nil {
			return wrapCascadeError("component", id, err)
		}
	}

	var builtItemIds []int
	if err := tx.Model(&BuiltItemBOMEdge{}).
		Where("item_type = ? AND item_id = ?", RecipeItemRawMaterial, stockItemId).
		Distinct().Pluck("built_item_id", &builtItemIds).Error; err != nil {
		return err
	}
	for _, id := range builtItemIds {
		if err := recomputeBuiltItemCostTx(tx, id); err != nil {
			return wrapCascadeError("built_item", id, err)
		}
	}

	var productIds []int
	if err := tx.Model(&ProductComponentEdge{}).
		Where("component_type = ? AND component_id = ?", RecipeItemRawMaterial, stockItemId).
		Distinct().Pluck("product_id", &productIds).Error; err != nil {
		return err
	}
	for _, id := range productIds {
		if err := recomputeProductCostTx(tx, id); err != nil {
			return wrapCascadeError("product", id, err)
		}
	}
	return nil
}

func propagateComponentChangeTx(tx *gorm.DB, componentId int) error {
	var builtItemIds []int
	if err := tx.Model(&BuiltItemBOMEdge{}).
		Where("item_type = ? AND item_id = ?", RecipeItemComponent, componentId).
		Distinct().Pluck("built_item_id", &builtItemIds).Error; err != nil {
		return err
	}
	for _, id := range builtItemIds {
		if err := recomputeBuiltItemCostTx(tx, id); err != nil {
			return wrapCascadeError("built_item", id, err)
		}
	}

	var productIds []int
	if err := tx.Model(&ProductComponentEdge{}).
		Where("component_type = ? AND component_id = ?", RecipeItemComponent, componentId).
		Distinct().Pluck("product_id", &productIds).Error; err != nil {
		return err
	}
	for _, id := range productIds {
		if err := recomputeProductCostTx(tx, id); err != nil {
			return wrapCascadeError("product", id, err)
		}
	}
	return nil
}

func propagateBuiltItemChangeTx(tx *gorm.DB, builtItemId int) error {
	var productIds []int
	if err := tx.Model(&ProductComponentEdge{}).
		Where("component_type = ? AND component_id = ?", RecipeItemBuiltItem, builtItemId).
		Distinct().Pluck("product_id", &productIds).Error; err != nil {
		return err
	}
	for _, id := range productIds {
		if err := recomputeProductCostTx(tx, id); err != nil {
			return wrapCascadeError("product", id, err)
		}
	}
	return nil
}
