package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type WatchlistItem struct {
	InstrumentID string
	Symbol       string
	Name         string
	AddedAt      time.Time
}

// WatchlistEntry is a watchlist item enriched with the current price.
type WatchlistEntry struct {
	WatchlistItem
	CurrentPrice decimal.Decimal
}
