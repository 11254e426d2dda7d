package portfolio

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lot(instrumentID, symbol string, quantity, unitCost string) model.Lot {
	return model.Lot{
		InstrumentID: instrumentID,
		Symbol:       symbol,
		Name:         symbol,
		Quantity:     decimal.RequireFromString(quantity),
		UnitCost:     decimal.RequireFromString(unitCost),
		AcquiredAt:   time.Now(),
	}
}

func summariesByID(summaries []model.PositionSummary) map[string]model.PositionSummary {
	res := make(map[string]model.PositionSummary, len(summaries))
	for _, s := range summaries {
		res[s.InstrumentID] = s
	}
	return res
}

func TestAggregatePositions_BasicAggregation(t *testing.T) {
	lots := []model.Lot{
		lot("bitcoin", "BTC", "1", "10000"),
		lot("bitcoin", "BTC", "1", "20000"),
	}

	summaries := AggregatePositions(lots)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "bitcoin", s.InstrumentID)
	assert.True(t, s.TotalQuantity.Equal(decimal.NewFromInt(2)), "quantity=%s", s.TotalQuantity)
	assert.True(t, s.TotalCostBasis.Equal(decimal.NewFromInt(30000)), "costBasis=%s", s.TotalCostBasis)
	assert.True(t, s.AvgUnitCost.Equal(decimal.NewFromInt(15000)), "avgUnitCost=%s", s.AvgUnitCost)
}

func TestAggregatePositions_WeightedAverage(t *testing.T) {
	lots := []model.Lot{
		lot("ethereum", "ETH", "2", "1500"),
		lot("ethereum", "ETH", "0.5", "2000"),
		lot("ethereum", "ETH", "1.5", "3000"),
	}

	summaries := AggregatePositions(lots)
	require.Len(t, summaries, 1)

	// (2*1500 + 0.5*2000 + 1.5*3000) / 4 = 8500 / 4
	s := summaries[0]
	assert.True(t, s.TotalQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, s.TotalCostBasis.Equal(decimal.NewFromInt(8500)))
	assert.InDelta(t, 2125, s.AvgUnitCost.InexactFloat64(), 1e-9)
}

func TestAggregatePositions_OrderInsensitive(t *testing.T) {
	lots := []model.Lot{
		lot("bitcoin", "BTC", "0.3", "41000"),
		lot("ethereum", "ETH", "2", "2500"),
		lot("bitcoin", "BTC", "0.7", "38000"),
		lot("solana", "SOL", "10", "150"),
		lot("ethereum", "ETH", "1", "1900"),
	}

	want := summariesByID(AggregatePositions(lots))

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]model.Lot, len(lots))
		copy(shuffled, lots)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := summariesByID(AggregatePositions(shuffled))
		require.Len(t, got, len(want))

		for instrumentID, w := range want {
			g, ok := got[instrumentID]
			require.True(t, ok, "missing %s", instrumentID)
			assert.True(t, g.TotalQuantity.Equal(w.TotalQuantity))
			assert.True(t, g.TotalCostBasis.Equal(w.TotalCostBasis))
			assert.True(t, g.AvgUnitCost.Equal(w.AvgUnitCost))
		}
	}
}

func TestAggregatePositions_MetadataFromConstituentLot(t *testing.T) {
	lots := []model.Lot{
		lot("bitcoin", "BTC", "1", "10000"),
		lot("bitcoin", "XBT", "1", "20000"), // divergent metadata, last write wins
	}

	summaries := AggregatePositions(lots)
	require.Len(t, summaries, 1)

	// callers must not rely on which constituent wins, only that it is one of them
	assert.Contains(t, []string{"BTC", "XBT"}, summaries[0].Symbol)
}

func TestAggregatePositions_Empty(t *testing.T) {
	assert.Empty(t, AggregatePositions(nil))
	assert.Empty(t, AggregatePositions([]model.Lot{}))
}

func TestValuate_LivePnL(t *testing.T) {
	summary := AggregatePositions([]model.Lot{
		lot("bitcoin", "BTC", "1", "10000"),
		lot("bitcoin", "BTC", "1", "20000"),
	})[0]

	position := Valuate(summary, decimal.NewFromInt(25000))

	assert.True(t, position.MarketValue.Equal(decimal.NewFromInt(50000)), "marketValue=%s", position.MarketValue)
	assert.True(t, position.UnrealizedPnL.Equal(decimal.NewFromInt(20000)), "pnl=%s", position.UnrealizedPnL)
	assert.InDelta(t, 66.6666666667, position.UnrealizedPnLPercent.InexactFloat64(), 1e-6)
}

func TestValuate_ZeroGuards(t *testing.T) {
	// zero quantity and zero cost basis must not panic and must yield zeros
	empty := model.PositionSummary{InstrumentID: "bitcoin"}

	position := Valuate(empty, decimal.Decimal{})

	assert.True(t, position.MarketValue.IsZero())
	assert.True(t, position.UnrealizedPnL.IsZero())
	assert.True(t, position.UnrealizedPnLPercent.IsZero())
	assert.True(t, empty.AvgUnitCost.IsZero())
}

func TestValuatePortfolio_MissingPriceIsZero(t *testing.T) {
	summaries := AggregatePositions([]model.Lot{
		lot("bitcoin", "BTC", "1", "30000"),
		lot("ethereum", "ETH", "10", "2000"),
	})

	prices := map[string]decimal.Decimal{
		"bitcoin": decimal.NewFromInt(40000),
		// ethereum intentionally absent
	}

	positions, totals := ValuatePortfolio(summaries, prices)
	byID := make(map[string]model.Position, len(positions))
	for _, p := range positions {
		byID[p.InstrumentID] = p
	}

	assert.True(t, byID["ethereum"].MarketValue.IsZero())
	assert.True(t, byID["ethereum"].UnrealizedPnL.Equal(decimal.NewFromInt(-20000)))

	assert.True(t, totals.MarketValue.Equal(decimal.NewFromInt(40000)))
	assert.True(t, totals.CostBasis.Equal(decimal.NewFromInt(50000)))
	assert.True(t, totals.UnrealizedPnL.Equal(decimal.NewFromInt(-10000)))
	assert.InDelta(t, -20, totals.UnrealizedPnLPercent.InexactFloat64(), 1e-9)
}

func TestValuatePortfolio_Empty(t *testing.T) {
	positions, totals := ValuatePortfolio(nil, nil)

	assert.Empty(t, positions)
	assert.True(t, totals.MarketValue.IsZero())
	assert.True(t, totals.CostBasis.IsZero())
	assert.True(t, totals.UnrealizedPnLPercent.IsZero())
}
