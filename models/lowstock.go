package models

import (
	"context"
	"errors"

	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/shopspring/decimal"
)

// LowStockEntry is one entity at or below its threshold, with a suggested
// replenishment quantity.
type LowStockEntry struct {
	TargetKind TargetKind      `json:"target_kind"`
	TargetId   int             `json:"target_id"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit,omitempty"`
	Current    decimal.Decimal `json:"current"`
	Min        decimal.Decimal `json:"min"`
	Suggested  int64           `json:"suggested_replenishment"`
}

var replenishmentHeadroom = decimal.NewFromFloat(1.2)

// suggestedReplenishment is ceil((min - current) * 1.2), clamped to at least
// 1. An untracked threshold (min == 0) with nothing on hand still suggests 1.
func suggestedReplenishment(min, current decimal.Decimal) int64 {
	if min.IsZero() && current.IsZero() {
		return 1
	}
	suggested := min.Sub(current).Mul(replenishmentHeadroom).Ceil().IntPart()
	if suggested < 1 {
		return 1
	}
	return suggested
}

// GetLowStock lists entities of one kind whose quantity is at or below the
// configured threshold.
func GetLowStock(ctx context.Context, kind TargetKind) ([]LowStockEntry, error) {
	db := config.GetDB()
	entries := []LowStockEntry{}

	switch kind {
	case TargetKindStockItem:
		var items []*StockItem
		if err := db.WithContext(ctx).
			Where("current_quantity <= min_quantity").Order("name ASC").Find(&items).Error; err != nil {
			return nil, err
		}
		for _, item := range items {
			entries = append(entries, LowStockEntry{
				TargetKind: TargetKindStockItem,
				TargetId:   item.ID,
				Name:       item.Name,
				Unit:       item.Unit,
				Current:    item.CurrentQuantity,
				Min:        item.MinQuantity,
				Suggested:  suggestedReplenishment(item.MinQuantity, item.CurrentQuantity),
			})
		}
	case TargetKindComponent:
		var components []*Component
		if err := db.WithContext(ctx).
			Where("built_quantity <= min_stock").Order("name ASC").Find(&components).Error; err != nil {
			return nil, err
		}
		for _, component := range components {
			entries = append(entries, LowStockEntry{
				TargetKind: TargetKindComponent,
				TargetId:   component.ID,
				Name:       component.Name,
				Current:    component.BuiltQuantity,
				Min:        component.MinStock,
				Suggested:  suggestedReplenishment(component.MinStock, component.BuiltQuantity),
			})
		}
	case TargetKindBuiltItem:
		var items []*BuiltItem
		if err := db.WithContext(ctx).
			Where("built_quantity <= min_stock").Order("name ASC").Find(&items).Error; err != nil {
			return nil, err
		}
		for _, item := range items {
			entries = append(entries, LowStockEntry{
				TargetKind: TargetKindBuiltItem,
				TargetId:   item.ID,
				Name:       item.Name,
				Current:    item.BuiltQuantity,
				Min:        item.MinStock,
				Suggested:  suggestedReplenishment(item.MinStock, item.BuiltQuantity),
			})
		}
	default:
		return nil, errors.New("invalid target kind for low stock")
	}

	return entries, nil
}

// GetAllLowStock aggregates low-stock entries across all three tracked kinds.
func GetAllLowStock(ctx context.Context) ([]LowStockEntry, error) {
	all := []LowStockEntry{}
	for _, kind := range []TargetKind{TargetKindStockItem, TargetKindComponent, TargetKindBuiltItem} {
		entries, err := GetLowStock(ctx, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}
