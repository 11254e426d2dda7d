// Package portfolio holds the position and valuation math. Everything here is
// pure and stateless: callers pass lots and price data in, results out.
package portfolio

import (
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AggregatePositions collapses lots into one summary per instrument:
// total quantity, total cost basis and the quantity-weighted average unit
// cost. Summation is order-independent, so input order does not matter.
// Symbol and name are taken from the last lot seen for the instrument.
func AggregatePositions(lots []model.Lot) []model.PositionSummary {
	byInstrument := make(map[string]*model.PositionSummary, len(lots))
	order := make([]string, 0, len(lots))

	for _, lot := range lots {
		s, ok := byInstrument[lot.InstrumentID]
		if !ok {
			s = &model.PositionSummary{InstrumentID: lot.InstrumentID}
			byInstrument[lot.InstrumentID] = s
			order = append(order, lot.InstrumentID)
		}

		s.Symbol = lot.Symbol
		s.Name = lot.Name
		s.TotalQuantity = s.TotalQuantity.Add(lot.Quantity)
		s.TotalCostBasis = s.TotalCostBasis.Add(lot.Quantity.Mul(lot.UnitCost))
	}

	summaries := make([]model.PositionSummary, 0, len(order))
	for _, instrumentID := range order {
		s := byInstrument[instrumentID]
		if !s.TotalQuantity.IsZero() {
			s.AvgUnitCost = s.TotalCostBasis.Div(s.TotalQuantity)
		}
		summaries = append(summaries, *s)
	}

	return summaries
}

// Valuate prices a summary against the current market price. A missing price
// is passed in as zero and yields zero market value, never an error.
func Valuate(summary model.PositionSummary, price decimal.Decimal) model.Position {
	position := model.Position{
		PositionSummary: summary,
		CurrentPrice:    price,
		MarketValue:     summary.TotalQuantity.Mul(price),
	}

	position.UnrealizedPnL = position.MarketValue.Sub(summary.TotalCostBasis)
	if !summary.TotalCostBasis.IsZero() {
		position.UnrealizedPnLPercent = position.UnrealizedPnL.Div(summary.TotalCostBasis).Mul(hundred)
	}

	return position
}

// ValuatePortfolio valuates every summary and accumulates portfolio totals.
// Instruments absent from prices contribute zero market value.
func ValuatePortfolio(summaries []model.PositionSummary, prices map[string]decimal.Decimal) ([]model.Position, model.PortfolioTotals) {
	positions := make([]model.Position, 0, len(summaries))
	totals := model.PortfolioTotals{}

	for _, summary := range summaries {
		position := Valuate(summary, prices[summary.InstrumentID])
		positions = append(positions, position)

		totals.MarketValue = totals.MarketValue.Add(position.MarketValue)
		totals.CostBasis = totals.CostBasis.Add(summary.TotalCostBasis)
	}

	totals.UnrealizedPnL = totals.MarketValue.Sub(totals.CostBasis)
	if !totals.CostBasis.IsZero() {
		totals.UnrealizedPnLPercent = totals.UnrealizedPnL.Div(totals.CostBasis).Mul(hundred)
	}

	return positions, totals
}
