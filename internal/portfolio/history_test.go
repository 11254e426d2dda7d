package portfolio

import (
	"testing"
	"time"

	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(day string, hour int, close string) model.PricePoint {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return model.PricePoint{
		Timestamp: d.Add(time.Duration(hour) * time.Hour),
		Date:      model.DayOf(d),
		Close:     decimal.RequireFromString(close),
	}
}

func qty(pairs ...any) map[string]decimal.Decimal {
	res := make(map[string]decimal.Decimal, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		res[pairs[i].(string)] = decimal.RequireFromString(pairs[i+1].(string))
	}
	return res
}

func values(series []model.ValuePoint) []string {
	res := make([]string, 0, len(series))
	for _, p := range series {
		res = append(res, p.TotalValue.String())
	}
	return res
}

func TestReconstructValueHistory_GapFill(t *testing.T) {
	quantities := qty("xcoin", "2")
	histories := []model.InstrumentHistory{
		{InstrumentID: "xcoin", Points: []model.PricePoint{
			point("2024-01-01", 0, "100"),
			point("2024-01-03", 0, "110"),
		}},
		// a second tracked series supplies the middle day; xcoin is
		// forward-filled across it
		{InstrumentID: "stable", Points: []model.PricePoint{
			point("2024-01-01", 0, "1"),
			point("2024-01-02", 0, "1"),
			point("2024-01-03", 0, "1"),
		}},
	}

	series := ReconstructValueHistory(quantities, histories)

	require.Len(t, series, 3)
	assert.Equal(t, []string{"200", "200", "220"}, values(series))
	assert.Equal(t, model.DayOf(series[0].Date).AddDate(0, 0, 1), series[1].Date)
}

func TestReconstructValueHistory_ForwardFillMonotonicity(t *testing.T) {
	quantities := qty("alpha", "1", "beta", "1")
	histories := []model.InstrumentHistory{
		{InstrumentID: "alpha", Points: []model.PricePoint{
			point("2024-03-01", 0, "10"),
			point("2024-03-05", 0, "50"),
		}},
		{InstrumentID: "beta", Points: []model.PricePoint{
			point("2024-02-28", 0, "5"),
			point("2024-03-01", 0, "5"),
			point("2024-03-02", 0, "5"),
			point("2024-03-03", 0, "5"),
			point("2024-03-04", 0, "5"),
			point("2024-03-05", 0, "5"),
		}},
	}

	series := ReconstructValueHistory(quantities, histories)

	require.Len(t, series, 6)
	// 02-28: alpha not started yet, contributes 0
	assert.Equal(t, []string{"5", "15", "15", "15", "15", "55"}, values(series))
}

func TestReconstructValueHistory_UnsortedInputAndDuplicateDays(t *testing.T) {
	quantities := qty("xcoin", "1")
	histories := []model.InstrumentHistory{
		{InstrumentID: "xcoin", Points: []model.PricePoint{
			point("2024-01-02", 12, "210"), // later timestamp wins the day
			point("2024-01-01", 0, "100"),
			point("2024-01-02", 3, "205"),
		}},
	}

	series := ReconstructValueHistory(quantities, histories)

	require.Len(t, series, 2)
	assert.Equal(t, []string{"100", "210"}, values(series))
	// the emitted timestamp is the earliest one seen for the day
	assert.Equal(t, 3, series[1].Timestamp.Hour())
}

func TestReconstructValueHistory_EmptyHistoryDegradesToZero(t *testing.T) {
	quantities := qty("bitcoin", "1", "broken", "100")
	withEmpty := []model.InstrumentHistory{
		{InstrumentID: "bitcoin", Points: []model.PricePoint{
			point("2024-01-01", 0, "40000"),
			point("2024-01-02", 0, "41000"),
		}},
		{InstrumentID: "broken", Points: nil}, // failed fetch is an empty series
	}
	without := withEmpty[:1]

	got := ReconstructValueHistory(quantities, withEmpty)
	want := ReconstructValueHistory(quantities, without)

	require.Equal(t, want, got)
}

func TestReconstructValueHistory_UnheldInstrumentContributesNothing(t *testing.T) {
	quantities := qty("bitcoin", "2")
	histories := []model.InstrumentHistory{
		{InstrumentID: "bitcoin", Points: []model.PricePoint{point("2024-01-01", 0, "40000")}},
		{InstrumentID: "dust", Points: []model.PricePoint{point("2024-01-01", 0, "999")}},
	}

	series := ReconstructValueHistory(quantities, histories)

	require.Len(t, series, 1)
	assert.Equal(t, "80000", series[0].TotalValue.String())
}

func TestReconstructValueHistory_NoSynthesizedDays(t *testing.T) {
	quantities := qty("xcoin", "1")
	histories := []model.InstrumentHistory{
		{InstrumentID: "xcoin", Points: []model.PricePoint{
			point("2024-01-01", 0, "100"),
			point("2024-01-05", 0, "140"),
		}},
	}

	series := ReconstructValueHistory(quantities, histories)

	// only the reported days appear, nothing is imputed in between
	require.Len(t, series, 2)
	assert.Equal(t, model.DayOf(series[0].Date).AddDate(0, 0, 4), series[1].Date)
}

func TestReconstructValueHistory_ChronologicalAndUnique(t *testing.T) {
	quantities := qty("alpha", "1", "beta", "2")
	histories := []model.InstrumentHistory{
		{InstrumentID: "alpha", Points: []model.PricePoint{
			point("2024-01-03", 0, "3"),
			point("2024-01-01", 0, "1"),
		}},
		{InstrumentID: "beta", Points: []model.PricePoint{
			point("2024-01-02", 0, "2"),
			point("2024-01-01", 5, "1"),
		}},
	}

	series := ReconstructValueHistory(quantities, histories)

	require.Len(t, series, 3)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Date.Before(series[i].Date))
	}
}

func TestReconstructValueHistory_Idempotent(t *testing.T) {
	quantities := qty("alpha", "1.5", "beta", "3")
	histories := []model.InstrumentHistory{
		{InstrumentID: "alpha", Points: []model.PricePoint{
			point("2024-01-01", 0, "10.5"),
			point("2024-01-04", 0, "11.25"),
		}},
		{InstrumentID: "beta", Points: []model.PricePoint{
			point("2024-01-02", 0, "0.37"),
			point("2024-01-03", 0, "0.41"),
		}},
	}

	first := ReconstructValueHistory(quantities, histories)
	second := ReconstructValueHistory(quantities, histories)

	require.Equal(t, first, second)
}

func TestReconstructValueHistory_Degenerate(t *testing.T) {
	assert.Empty(t, ReconstructValueHistory(nil, nil))
	assert.Empty(t, ReconstructValueHistory(qty("bitcoin", "1"), nil))
	assert.Empty(t, ReconstructValueHistory(qty("bitcoin", "1"), []model.InstrumentHistory{
		{InstrumentID: "bitcoin", Points: nil},
	}))
}
