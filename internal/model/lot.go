package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a single buy operation: quantity acquired at a unit price.
// Lots are immutable once created, positions are recomputed from them on every read.
type Lot struct {
	LotID        int64
	InstrumentID string
	Symbol       string
	Name         string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	AcquiredAt   time.Time
}
