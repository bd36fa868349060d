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

// Setting is a process-wide key/value row. The only key the costing engine
// reads is the labour rate.
type Setting struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Key       string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	SettingKeyLabourRateGbp = "labour_rate_gbp"

	labourRateRedisKey = "setting:labour_rate_gbp"
)

// labourRateTx reads the labour rate inside the caller's transaction, so a
// sweep that just updated the rate computes with the new value.
func labourRateTx(tx *gorm.DB) (decimal.Decimal, error) {
	var setting Setting
	err := tx.Where("`key` = ?", SettingKeyLabourRateGbp).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return utils.ParseDecimal(setting.Value)
}

// GetLabourRate is the read accessor, cached in redis until the next update.
func GetLabourRate(ctx context.Context) (decimal.Decimal, error) {
	var cached string
	exists, err := config.GetRedisObject(labourRateRedisKey, &cached)
	if err == nil && exists {
		if rate, perr := utils.ParseDecimal(cached); perr == nil {
			return rate, nil
		}
	}

	db := config.GetDB()
	var rate decimal.Decimal
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		rate, txErr = labourRateTx(tx)
		return txErr
	})
	if err != nil {
		return decimal.Zero, err
	}

	if err := config.SetRedisObject(labourRateRedisKey, rate.String(), 0); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "settings.go", "GetLabourRate", "caching labour rate", rate.String(), err)
	}
	return rate, nil
}

// SetLabourRate stores the new rate and recomputes every cached cost, since
// the rate is a global multiplier on labour.
//
// Two transactions on purpose: the first commits the rate and marks every
// derived cost stale; the second is the reconcile sweep. A crash in between
// leaves the stale flags committed, so out-of-date costs stay discoverable
// until the next sweep instead of masquerading as correct.
func SetLabourRate(ctx context.Context, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return errors.New("labour rate cannot be negative")
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Setting{}).Where("`key` = ?", SettingKeyLabourRateGbp).Update("value", rate.String())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&Setting{Key: SettingKeyLabourRateGbp, Value: rate.String()}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&Component{}).Where("1 = 1").Update("cost_stale", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&BuiltItem{}).Where("1 = 1").Update("cost_stale", true).Error; err != nil {
			return err
		}
		return tx.Model(&Product{}).Where("1 = 1").Update("cost_stale", true).Error
	})
	if err != nil {
		return err
	}

	if err := config.DeleteRedisKey(labourRateRedisKey); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "settings.go", "SetLabourRate", "invalidating labour rate cache", rate.String(), err)
	}

	return ReconcileCosts(ctx)
}
