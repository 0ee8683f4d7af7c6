package logic

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysLeft 距截止的完整天数，不小于0
func DaysLeft(endDate, now time.Time) int {
	if !endDate.After(now) {
		return 0
	}
	return int(endDate.Sub(now) / (24 * time.Hour))
}

// FundingPercentage 已筹金额占目标的百分比，目标为0时返回0
func FundingPercentage(current, goal int64) float64 {
	if goal == 0 {
		return 0
	}
	return decimal.NewFromInt(current).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(goal), 2).
		InexactFloat64()
}
