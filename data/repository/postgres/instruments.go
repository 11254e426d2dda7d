package postgres

import (
	"context"
	"log/slog"

	"github.com/ndanilin/coindash_bot/utils"
)

// GetTrackedInstrumentIDs returns every instrument referenced by any lot,
// watchlist entry or active alert. Used by the cache warming job.
func (r *Postgres) GetTrackedInstrumentIDs(ctx context.Context) (instrumentIDs []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetTrackedInstrumentIDs"
	query := `
		SELECT instrument_id FROM lots
		UNION
		SELECT instrument_id FROM watchlist
		UNION
		SELECT instrument_id FROM alerts WHERE triggered = false
		`

	slog.Debug("GetTrackedInstrumentIDs start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetTrackedInstrumentIDs failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTrackedInstrumentIDs completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &instrumentIDs, query)
	if err != nil {
		return nil, err
	}

	return instrumentIDs, nil
}
