package models

import (
	"context"
	"errors"

	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BOMLine is one resolved recipe line for display: the ingredient's name and
// current unit cost alongside the required quantity.
type BOMLine struct {
	EdgeId   int             `json:"edge_id"`
	ItemType RecipeItemType  `json:"item_type"`
	ItemId   int             `json:"item_id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	LineCost decimal.Decimal `json:"line_cost"`
}

// GetBOM returns the resolved recipe of a component, built item, or product.
func GetBOM(ctx context.Context, kind string, id int) ([]BOMLine, error) {
	db := config.GetDB()
	var lines []BOMLine
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		lines, txErr = bomLinesTx(tx, kind, id)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func bomLinesTx(tx *gorm.DB, kind string, id int) ([]BOMLine, error) {
	lines := []BOMLine{}

	appendLine := func(edgeId int, itemType RecipeItemType, itemId int, qty decimal.Decimal, unit string) error {
		name, err := recipeItemNameTx(tx, itemType, itemId)
		if err != nil {
			return err
		}
		unitCost, err := resolveCostTx(tx, itemType, itemId)
		if err != nil {
			return err
		}
		lines = append(lines, BOMLine{
			EdgeId:   edgeId,
			ItemType: itemType,
			ItemId:   itemId,
			Name:     name,
			Quantity: qty,
			Unit:     unit,
			UnitCost: unitCost,
			LineCost: qty.Mul(unitCost),
		})
		return nil
	}

	switch kind {
	case "component":
		var edges []ComponentBOMEdge
		if err := tx.Where("component_id = ?", id).Order("id ASC").Find(&edges).Error; err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if err := appendLine(edge.ID, RecipeItemRawMaterial, edge.StockItemId, edge.Quantity, edge.Unit); err != nil {
				return nil, err
			}
		}
	case "built_item":
		var edges []BuiltItemBOMEdge
		if err := tx.Where("built_item_id = ?", id).Order("id ASC").Find(&edges).Error; err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if err := appendLine(edge.ID, edge.ItemType, edge.ItemId, edge.Quantity, edge.Unit); err != nil {
				return nil, err
			}
		}
	case "product":
		var edges []ProductComponentEdge
		if err := tx.Where("product_id = ?", id).Order("id ASC").Find(&edges).Error; err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if err := appendLine(edge.ID, edge.ComponentType, edge.ComponentId, edge.Quantity, edge.Unit); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("invalid entity kind for BOM")
	}

	return lines, nil
}

func recipeItemNameTx(tx *gorm.DB, itemType RecipeItemType, id int) (string, error) {
	var name string
	var err error
	switch itemType {
	case RecipeItemRawMaterial:
		err = tx.Model(&StockItem{}).Where("id = ?", id).Select("name").Scan(&name).Error
	case RecipeItemComponent:
		err = tx.Model(&Component{}).Where("id = ?", id).Select("name").Scan(&name).Error
	case RecipeItemBuiltItem:
		err = tx.Model(&BuiltItem{}).Where("id = ?", id).Select("name").Scan(&name).Error
	default:
		return "", errors.New("invalid recipe item type")
	}
	return name, err
}
