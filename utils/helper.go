package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/mkitchen-fabworks/production_backend/config"
	"github.com/shopspring/decimal"
)

// ProcessValidationErrors flattens binding validation failures into a
// field -> failed-tag map for the error response body.
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// EntityLock serializes ledger writes for one entity. Concurrent movements
// against different entities proceed in parallel; two writers touching the
// same entity queue up here so the cached quantity stays equal to the sum of
// its movements.
func EntityLock(ctx context.Context, targetKind string, targetId int, moduleName string, functionName string) (*redislock.Lock, error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when the redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", targetKind, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("stockLock:%s:%d", targetKind, targetId)
	backoff := redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{RetryStrategy: backoff})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain entity lock", lockKey, err)
		return nil, errors.New("could not obtain entity lock")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining entity lock", lockKey, err)
		return nil, err
	}
	return lock, nil
}
