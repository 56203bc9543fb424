// Package ingest turns raw price ticks into the window database mined by package gsp.
package ingest

import (
	"github.com/shopspring/decimal"
)

// MovementCode is the discretized direction of a price change
type MovementCode string

const (
	MovementDown MovementCode = "-1"
	MovementFlat MovementCode = "0"
	MovementUp   MovementCode = "1"
)

// FlatThreshold bounds the relative change still treated as flat
var FlatThreshold = decimal.RequireFromString("0.001")

// Discretize maps a relative change onto a movement code. Changes inside
// [-0.001, 0.001] are flat.
func Discretize(change decimal.Decimal) MovementCode {
	switch {
	case change.Abs().LessThanOrEqual(FlatThreshold):
		return MovementFlat
	case change.IsPositive():
		return MovementUp
	default:
		return MovementDown
	}
}

// PercentChange returns (current - previous) / previous. A zero previous
// price yields an unbounded change carrying the sign of current, reported as
// plus or minus one so that it discretizes the same way.
func PercentChange(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.NewFromInt(int64(current.Sign()))
	}
	return current.Sub(previous).Div(previous)
}

// ItemFor builds the item label of an entity movement, e.g. "AAPL_1"
func ItemFor(entity string, code MovementCode) string {
	return entity + "_" + string(code)
}
