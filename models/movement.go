package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/mkitchen-fabworks/production_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Movement is one immutable ledger row. Movements are the sole source of
// truth for cached quantities; there is no update or delete path, and
// corrections are made by appending an adjustment.
type Movement struct {
	ID            int             `gorm:"primary_key" json:"id"`
	TargetKind    TargetKind      `gorm:"type:enum('stock_item','component','built_item');not null;index:idx_movements_target,priority:1" json:"target_kind"`
	TargetId      int             `gorm:"not null;index:idx_movements_target,priority:2" json:"target_id"`
	MovementType  MovementType    `gorm:"type:enum('in','out','build','use','adjustment');not null" json:"movement_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Reference     string          `gorm:"size:255" json:"reference"`
	CorrelationId string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewMovement struct {
	TargetKind   TargetKind      `json:"target_kind" binding:"required"`
	TargetId     int             `json:"target_id" binding:"required"`
	MovementType MovementType    `json:"movement_type" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    string          `json:"reference"`
}

// StockWarning is surfaced alongside a successful write when a movement
// drives a cached quantity negative. It is a value, not an error: under the
// default policy the ledger records the shortfall instead of blocking it.
type StockWarning struct {
	TargetKind TargetKind      `json:"target_kind"`
	TargetId   int             `json:"target_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Message    string          `json:"message"`
}

// nextQuantity applies one movement to a cached quantity. Adjustments set the
// value outright (absolute correction); everything else is a signed delta.
func nextQuantity(current decimal.Decimal, movementType MovementType, qty decimal.Decimal) decimal.Decimal {
	switch movementType {
	case MovementTypeIn, MovementTypeBuild:
		return current.Add(qty)
	case MovementTypeOut, MovementTypeUse:
		return current.Sub(qty)
	case MovementTypeAdjustment:
		return qty
	}
	return current
}

func validMovementForKind(kind TargetKind, movementType MovementType) bool {
	switch kind {
	case TargetKindStockItem:
		return movementType == MovementTypeIn || movementType == MovementTypeOut || movementType == MovementTypeAdjustment
	case TargetKindComponent, TargetKindBuiltItem:
		return movementType == MovementTypeBuild || movementType == MovementTypeUse || movementType == MovementTypeAdjustment
	}
	return false
}

func (input *NewMovement) validate() error {
	if !validMovementForKind(input.TargetKind, input.MovementType) {
		return fmt.Errorf("movement type %q is not valid for %q", input.MovementType, input.TargetKind)
	}
	// An adjustment is an absolute set and may record a negative observed
	// balance; deltas must be non-negative.
	if input.Quantity.IsNegative() && input.MovementType != MovementTypeAdjustment {
		return errors.New("movement quantity cannot be negative")
	}
	return nil
}

// RecordMovement appends one ledger row and updates the target's cached
// quantity in the same transaction. A build movement additionally deducts the
// entity's recipe ingredients (one out/use row each) before returning.
//
// Ledger writes for one entity are serialized through a redis lock; writes
// against different entities proceed in parallel.
func RecordMovement(ctx context.Context, input *NewMovement) (*Movement, []StockWarning, error) {

	if err := input.validate(); err != nil {
		return nil, nil, err
	}

	lock, err := utils.EntityLock(ctx, string(input.TargetKind), input.TargetId, "movement.go", "RecordMovement")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	correlationId := correlationIdFromContextOrNew(ctx)

	var movement *Movement
	var warnings []StockWarning

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		var warning *StockWarning
		movement, warning, err = applyMovementTx(tx, input, correlationId)
		if err != nil {
			return err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}

		if input.MovementType == MovementTypeBuild {
			buildRef := fmt.Sprintf("build:%s:%d", input.TargetKind, movement.ID)
			deductionWarnings, err := applyBuildDeductionsTx(tx, input.TargetKind, input.TargetId, input.Quantity, buildRef, correlationId)
			if err != nil {
				return err
			}
			warnings = append(warnings, deductionWarnings...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return movement, warnings, nil
}

// applyMovementTx writes one ledger row and its cache update. The target row
// is locked for the duration of the transaction so concurrent builds sharing
// an ingredient serialize at the store as well.
func applyMovementTx(tx *gorm.DB, input *NewMovement, correlationId string) (*Movement, *StockWarning, error) {

	var name string
	var current decimal.Decimal

	switch input.TargetKind {
	case TargetKindStockItem:
		var item StockItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, input.TargetId).Error; err != nil {
			return nil, nil, utils.ErrorRecordNotFound
		}
		name, current = item.Name, item.CurrentQuantity
	case TargetKindComponent:
		var component Component
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&component, input.TargetId).Error; err != nil {
			return nil, nil, utils.ErrorRecordNotFound
		}
		name, current = component.Name, component.BuiltQuantity
	case TargetKindBuiltItem:
		var item BuiltItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, input.TargetId).Error; err != nil {
			return nil, nil, utils.ErrorRecordNotFound
		}
		name, current = item.Name, item.BuiltQuantity
	default:
		return nil, nil, errors.New("invalid target kind")
	}

	next := nextQuantity(current, input.MovementType, input.Quantity)

	var warning *StockWarning
	if next.IsNegative() {
		switch config.NegativeStockPolicy() {
		case config.StockPolicyReject:
			return nil, nil, utils.ErrorInsufficientStock
		case config.StockPolicyWarn:
			warning = &StockWarning{
				TargetKind: input.TargetKind,
				TargetId:   input.TargetId,
				Name:       name,
				Quantity:   next,
				Message:    fmt.Sprintf("%s %q has gone to %s; plan replenishment", input.TargetKind, name, next),
			}
		}
	}

	movement := Movement{
		TargetKind:    input.TargetKind,
		TargetId:      input.TargetId,
		MovementType:  input.MovementType,
		Quantity:      input.Quantity,
		Reference:     input.Reference,
		CorrelationId: correlationId,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, nil, err
	}

	if err := updateCachedQuantityTx(tx, input.TargetKind, input.TargetId, next); err != nil {
		return nil, nil, err
	}

	return &movement, warning, nil
}

func updateCachedQuantityTx(tx *gorm.DB, kind TargetKind, id int, qty decimal.Decimal) error {
	switch kind {
	case TargetKindStockItem:
		return tx.Model(&StockItem{}).Where("id = ?", id).UpdateColumn("current_quantity", qty).Error
	case TargetKindComponent:
		return tx.Model(&Component{}).Where("id = ?", id).UpdateColumn("built_quantity", qty).Error
	case TargetKindBuiltItem:
		return tx.Model(&BuiltItem{}).Where("id = ?", id).UpdateColumn("built_quantity", qty).Error
	}
	return errors.New("invalid target kind")
}

func GetMovements(ctx context.Context, kind TargetKind, targetId int) ([]*Movement, error) {
	db := config.GetDB()
	var movements []*Movement
	err := db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", kind, targetId).
		Order("id ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// replayQuantity folds a movement history into the quantity it implies. An
// adjustment row resets the running-sum baseline.
func replayQuantity(movements []*Movement) decimal.Decimal {
	qty := decimal.Zero
	for _, m := range movements {
		qty = nextQuantity(qty, m.MovementType, m.Quantity)
	}
	return qty
}

// RebuildCachedQuantities replays the full ledger and rewrites every cached
// quantity. Used by the stock-rebuild tool to recover from a cache that has
// drifted from the ledger (a bug, never a normal state).
func RebuildCachedQuantities(ctx context.Context) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kind := range []TargetKind{TargetKindStockItem, TargetKindComponent, TargetKindBuiltItem} {
			var ids []int
			var err error
			switch kind {
			case TargetKindStockItem:
				err = tx.Model(&StockItem{}).Pluck("id", &ids).Error
			case TargetKindComponent:
				err = tx.Model(&Component{}).Pluck("id", &ids).Error
			case TargetKindBuiltItem:
				err = tx.Model(&BuiltItem{}).Pluck("id", &ids).Error
			}
			if err != nil {
				return err
			}
			for _, id := range ids {
				var movements []*Movement
				if err := tx.Where("target_kind = ? AND target_id = ?", kind, id).
					Order("id ASC").Find(&movements).Error; err != nil {
					return err
				}
				if err := updateCachedQuantityTx(tx, kind, id, replayQuantity(movements)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
