package model

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrAmountPrecision 金额超过两位小数
var ErrAmountPrecision = errors.New("amount must have at most two decimal places")

// ErrAmountRange 金额换算为分后超出 int64
var ErrAmountRange = errors.New("amount is out of range")

var (
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ToCents 将接口中的金额转换为分
func ToCents(amount decimal.Decimal) (int64, error) {
	if !amount.Equal(amount.Round(2)) {
		return 0, ErrAmountPrecision
	}
	cents := amount.Shift(2)
	if cents.LessThan(minCents) || cents.GreaterThan(maxCents) {
		return 0, ErrAmountRange
	}
	return cents.IntPart(), nil
}

// FromCents 将分转换为金额
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CentsToFloat 返回给接口的金额数值
func CentsToFloat(cents int64) float64 {
	return FromCents(cents).InexactFloat64()
}
