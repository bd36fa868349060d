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

// Product is the top tier: a sellable configuration of raw materials,
// components, and built items. Its cost is the sum of its edges; products
// carry no labour of their own.
type Product struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description    string          `gorm:"type:text" json:"description"`
	CostGbp        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_gbp"`
	CostStale      bool            `gorm:"not null;default:false;index" json:"cost_stale"`
	CostComputedAt *time.Time      `json:"cost_computed_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	ComponentEdges []ProductComponentEdge `gorm:"foreignKey:ProductId" json:"component_edges,omitempty"`
}

type ProductComponentEdge struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ProductId     int             `gorm:"index;not null" json:"product_id"`
	ComponentType RecipeItemType  `gorm:"type:enum('raw_material','component','built_item');not null" json:"component_type"`
	ComponentId   int             `gorm:"index;not null" json:"component_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit          string          `gorm:"size:50" json:"unit"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewProduct struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type NewProductComponentEdge struct {
	ComponentType RecipeItemType  `json:"component_type" binding:"required"`
	ComponentId   int             `json:"component_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Unit          string          `json:"unit"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	return utils.ValidateUnique[Product](ctx, "name", input.Name, id)
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Name:        input.Name,
		Description: input.Description,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&ProductComponentEdge{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id, "ComponentEdges")
}

func ListProducts(ctx context.Context) ([]*Product, error) {
	return utils.FetchAllModels[Product](ctx, "ComponentEdges")
}

// AddProductComponentEdge attaches one configuration line; any of the three
// lower tiers is a legal ingredient here.
func AddProductComponentEdge(ctx context.Context, productId int, input *NewProductComponentEdge) (*ProductComponentEdge, error) {

	if err := utils.ValidateResourceId[Product](ctx, productId); err != nil {
		return nil, err
	}

	switch input.ComponentType {
	case RecipeItemRawMaterial:
		if err := utils.ValidateResourceId[StockItem](ctx, input.ComponentId); err != nil {
			return nil, err
		}
	case RecipeItemComponent:
		if err := utils.ValidateResourceId[Component](ctx, input.ComponentId); err != nil {
			return nil, err
		}
	case RecipeItemBuiltItem:
		if err := utils.ValidateResourceId[BuiltItem](ctx, input.ComponentId); err != nil {
			return nil, err
		}
	default:
		return nil, utils.ErrorInvalidRecipeKind
	}
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}

	edge := ProductComponentEdge{
		ProductId:     productId,
		ComponentType: input.ComponentType,
		ComponentId:   input.ComponentId,
		Quantity:      input.Quantity,
		Unit:          input.Unit,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		return recomputeProductCostTx(tx, productId)
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func RemoveProductComponentEdge(ctx context.Context, edgeId int) (*ProductComponentEdge, error) {

	edge, err := utils.FetchModel[ProductComponentEdge](ctx, edgeId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(edge).Error; err != nil {
			return err
		}
		return recomputeProductCostTx(tx, edge.ProductId)
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}
