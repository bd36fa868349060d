package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// applyBuildDeductionsTx consumes the recipe of a just-built entity: one
// ledger row per BOM edge, quantity = edge quantity x quantity built. Raw
// materials are deducted with "out", components with "use".
//
// The executor never recurses into building an ingredient. If an ingredient
// runs short the deduction still lands (subject to the negative-stock
// policy) and the shortfall comes back as a warning; build events are
// recorded after the fact on the shop floor, so the ledger debits now and
// replenishment is planned later.
func applyBuildDeductionsTx(tx *gorm.DB, kind TargetKind, id int, quantityBuilt decimal.Decimal, buildRef string, correlationId string) ([]StockWarning, error) {

	type deduction struct {
		targetKind TargetKind
		targetId   int
		qty        decimal.Decimal
	}
	var deductions []deduction

	switch kind {
	case TargetKindComponent:
		var edges []ComponentBOMEdge
		if err := tx.Where("component_id = ?", id).Find(&edges).Error; err != nil {
			return nil, err
		}
		for _, edge := range edges {
			deductions = append(deductions, deduction{
				targetKind: TargetKindStockItem,
				targetId:   edge.StockItemId,
				qty:        edge.Quantity.Mul(quantityBuilt),
			})
		}
	case TargetKindBuiltItem:
		var edges []BuiltItemBOMEdge
		if err := tx.Where("built_item_id = ?", id).Find(&edges).Error; err != nil {
			return nil, err
		}
		for _, edge := range edges {
			deductions = append(deductions, deduction{
				targetKind: targetKindForRecipeItem(edge.ItemType),
				targetId:   edge.ItemId,
				qty:        edge.Quantity.Mul(quantityBuilt),
			})
		}
	default:
		return nil, nil
	}

	var warnings []StockWarning
	for _, d := range deductions {
		movementType := MovementTypeOut
		if d.targetKind != TargetKindStockItem {
			movementType = MovementTypeUse
		}
		_, warning, err := applyMovementTx(tx, &NewMovement{
			TargetKind:   d.targetKind,
			TargetId:     d.targetId,
			MovementType: movementType,
			Quantity:     d.qty,
			Reference:    buildRef,
		}, correlationId)
		if err != nil {
			return nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}

	return warnings, nil
}
