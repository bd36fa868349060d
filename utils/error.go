package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInvalidRecipeKind is returned when a BOM edge targets a kind that is
// not legal for the owning entity's tier (e.g. a component recipe pointing at
// another component).
var ErrorInvalidRecipeKind = errors.New("invalid recipe kind for this entity")

// ErrorEntityInUse is returned when deleting an entity that is still
// referenced by BOM edges or product recipes.
var ErrorEntityInUse = errors.New("entity is still referenced by a recipe")

var ErrorInsufficientStock = errors.New("insufficient stock for movement")
