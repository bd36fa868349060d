package models

import (
	"context"

	"github.com/mkitchen-fabworks/production_backend/config"
	"gorm.io/gorm"
)

// ReconcileCosts recomputes every cached cost bottom-up: components, then
// built items, then products. Each entity is computed exactly once and reads
// the costs written earlier in the same sweep, so no cascading is needed.
// Idempotent; running it twice in a row stores the same values both times.
func ReconcileCosts(ctx context.Context) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reconcileCostsTx(tx)
	})
}

func reconcileCostsTx(tx *gorm.DB) error {
	var componentIds []int
	if err := tx.Model(&Component{}).Order("id ASC").Pluck("id", &componentIds).Error; err != nil {
		return err
	}
	for _, id := range componentIds {
		if err := computeComponentCostTx(tx, id); err != nil {
			return wrapCascadeError("component", id, err)
		}
	}

	var builtItemIds []int
	if err := tx.Model(&BuiltItem{}).Order("id ASC").Pluck("id", &builtItemIds).Error; err != nil {
		return err
	}
	for _, id := range builtItemIds {
		if err := computeBuiltItemCostTx(tx, id); err != nil {
			return wrapCascadeError("built_item", id, err)
		}
	}

	var productIds []int
	if err := tx.Model(&Product{}).Order("id ASC").Pluck("id", &productIds).Error; err != nil {
		return err
	}
	for _, id := range productIds {
		if err := computeProductCostTx(tx, id); err != nil {
			return wrapCascadeError("product", id, err)
		}
	}
	return nil
}

// StaleCostCount reports how many entities still carry a stale cost marker.
// Non-zero after a crash means the reconcile sweep should be run.
func StaleCostCount(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var total int64
	for _, model := range []interface{}{&Component{}, &BuiltItem{}, &Product{}} {
		var count int64
		if err := db.WithContext(ctx).Model(model).Where("cost_stale = ?", true).Count(&count).Error; err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}
