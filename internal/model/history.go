package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close sample. Date is the calendar-day key
// (UTC midnight), Timestamp is the raw provider timestamp within that day.
type PricePoint struct {
	Timestamp time.Time
	Date      time.Time
	Close     decimal.Decimal
}

// InstrumentHistory is the daily price series of one instrument.
// Empty Points means "no data" - a failed fetch and a legitimately empty
// history are deliberately not distinguished.
type InstrumentHistory struct {
	InstrumentID string
	Points       []PricePoint
}

// ValuePoint is the total portfolio value on one calendar day.
type ValuePoint struct {
	Date       time.Time
	Timestamp  time.Time
	TotalValue decimal.Decimal
}
