package portfolio

import (
	"sort"
	"time"

	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/shopspring/decimal"
)

// ReconstructValueHistory merges independently sampled per-instrument daily
// price series into one chronological total-value series.
//
// Per instrument the points are sorted by timestamp and collapsed to one
// point per calendar day (latest timestamp wins). The output covers exactly
// the union of days reported by any instrument - days no instrument reported
// are never synthesized. Gaps are covered by forward-fill: each instrument
// contributes its last known price times its quantity, or nothing at all
// before its first known day. The current quantities are applied over the
// whole window; historical quantity changes are not modeled.
//
// An instrument with an empty series contributes zero everywhere, which is
// how a failed history fetch degrades without breaking the rest.
func ReconstructValueHistory(quantities map[string]decimal.Decimal, histories []model.InstrumentHistory) []model.ValuePoint {
	instrumentIDs := make([]string, 0, len(histories))
	pointsPerDay := make(map[string]map[time.Time]model.PricePoint, len(histories))
	earliestTs := make(map[time.Time]time.Time)

	for _, history := range histories {
		instrumentIDs = append(instrumentIDs, history.InstrumentID)

		points := make([]model.PricePoint, len(history.Points))
		copy(points, history.Points)
		sort.Slice(points, func(i, j int) bool {
			return points[i].Timestamp.Before(points[j].Timestamp)
		})

		days := make(map[time.Time]model.PricePoint, len(points))
		for _, point := range points {
			day := model.DayOf(point.Date)
			days[day] = point // ascending walk, so the latest timestamp per day wins

			if ts, ok := earliestTs[day]; !ok || point.Timestamp.Before(ts) {
				earliestTs[day] = point.Timestamp
			}
		}

		pointsPerDay[history.InstrumentID] = days
	}

	if len(earliestTs) == 0 {
		return nil
	}

	timeline := make([]time.Time, 0, len(earliestTs))
	for day := range earliestTs {
		timeline = append(timeline, day)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })

	// fixed summation order keeps results reproducible
	sort.Strings(instrumentIDs)

	lastKnown := make(map[string]decimal.Decimal, len(instrumentIDs))
	series := make([]model.ValuePoint, 0, len(timeline))

	for _, day := range timeline {
		var total decimal.Decimal

		for _, instrumentID := range instrumentIDs {
			if point, ok := pointsPerDay[instrumentID][day]; ok {
				lastKnown[instrumentID] = point.Close
			}

			price, known := lastKnown[instrumentID]
			if !known {
				continue // instrument has not started yet, contributes nothing
			}

			total = total.Add(price.Mul(quantities[instrumentID]))
		}

		series = append(series, model.ValuePoint{
			Date:       day,
			Timestamp:  earliestTs[day],
			TotalValue: total,
		})
	}

	return series
}
