package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is one observed price of an entity
type Tick struct {
	Entity    string          `json:"entity"`
	Timestamp time.Time       `json:"ts"`
	Price     decimal.Decimal `json:"price"`
}

// TickQuery represents query parameters for ticks
type TickQuery struct {
	Entities  []string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}
