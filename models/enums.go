package models

import "errors"

// TargetKind identifies which table a movement row points at.
type TargetKind string

const (
	TargetKindStockItem TargetKind = "stock_item"
	TargetKindComponent TargetKind = "component"
	TargetKindBuiltItem TargetKind = "built_item"
)

func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(s) {
	case TargetKindStockItem, TargetKindComponent, TargetKindBuiltItem:
		return TargetKind(s), nil
	}
	return "", errors.New("invalid target kind")
}

type MovementType string

const (
	MovementTypeIn         MovementType = "in"
	MovementTypeOut        MovementType = "out"
	MovementTypeBuild      MovementType = "build"
	MovementTypeUse        MovementType = "use"
	MovementTypeAdjustment MovementType = "adjustment"
)

func ParseMovementType(s string) (MovementType, error) {
	switch MovementType(s) {
	case MovementTypeIn, MovementTypeOut, MovementTypeBuild, MovementTypeUse, MovementTypeAdjustment:
		return MovementType(s), nil
	}
	return "", errors.New("invalid movement type")
}

// RecipeItemType tags a BOM edge with the tier of the ingredient it points at.
// The three-tier hierarchy (raw material -> component -> built item -> product)
// is what keeps recipes acyclic: no entity may reference its own kind.
type RecipeItemType string

const (
	RecipeItemRawMaterial RecipeItemType = "raw_material"
	RecipeItemComponent   RecipeItemType = "component"
	RecipeItemBuiltItem   RecipeItemType = "built_item"
)

func ParseRecipeItemType(s string) (RecipeItemType, error) {
	switch RecipeItemType(s) {
	case RecipeItemRawMaterial, RecipeItemComponent, RecipeItemBuiltItem:
		return RecipeItemType(s), nil
	}
	return "", errors.New("invalid recipe item type")
}

// targetKindForRecipeItem maps an ingredient tag to the movement target kind
// used when a build deducts that ingredient.
func targetKindForRecipeItem(t RecipeItemType) TargetKind {
	switch t {
	case RecipeItemRawMaterial:
		return TargetKindStockItem
	case RecipeItemComponent:
		return TargetKindComponent
	default:
		return TargetKindBuiltItem
	}
}
