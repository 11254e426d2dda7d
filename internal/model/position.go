package model

import (
	"github.com/shopspring/decimal"
)

// PositionSummary is an aggregated holding in one instrument across all its lots.
type PositionSummary struct {
	InstrumentID   string
	Symbol         string
	Name           string
	TotalQuantity  decimal.Decimal
	TotalCostBasis decimal.Decimal
	AvgUnitCost    decimal.Decimal
}

// Position is a summary valued against the current market price.
type Position struct {
	PositionSummary
	CurrentPrice         decimal.Decimal
	MarketValue          decimal.Decimal
	UnrealizedPnL        decimal.Decimal
	UnrealizedPnLPercent decimal.Decimal
}

type PortfolioTotals struct {
	MarketValue          decimal.Decimal
	CostBasis            decimal.Decimal
	UnrealizedPnL        decimal.Decimal
	UnrealizedPnLPercent decimal.Decimal
}
