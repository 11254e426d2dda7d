package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

type Alert struct {
	AlertID      int64
	ChatID       int64
	InstrumentID string
	Symbol       string
	Direction    AlertDirection
	TargetPrice  decimal.Decimal
	Triggered    bool
	CreatedAt    time.Time
}

// ShouldFire reports whether the alert condition holds for the given price.
func (a Alert) ShouldFire(price decimal.Decimal) bool {
	if a.Triggered {
		return false
	}

	switch a.Direction {
	case AlertAbove:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case AlertBelow:
		return price.LessThanOrEqual(a.TargetPrice)
	}

	return false
}
