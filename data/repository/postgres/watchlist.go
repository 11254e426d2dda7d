package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ndanilin/coindash_bot/data/repository"
	"github.com/ndanilin/coindash_bot/internal/converter/dbConverter"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/dbModel"
	"github.com/ndanilin/coindash_bot/utils"
)

func (r *Postgres) InsertWatchlistItem(ctx context.Context, userID int64, item model.WatchlistItem) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertWatchlistItem"
	query := `INSERT INTO watchlist(user_id, instrument_id, symbol, name) VALUES($1, $2, $3, $4)`

	slog.Debug("InsertWatchlistItem start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("item", item))
	defer func() {
		if err != nil {
			slog.Error("InsertWatchlistItem failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertWatchlistItem completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, userID, item.InstrumentID, item.Symbol, item.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return repository.ErrAlreadyExists
			}
		}
		return err
	}

	return nil
}

func (r *Postgres) GetWatchlist(ctx context.Context, userID int64) (items []model.WatchlistItem, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetWatchlist"
	query := `
		SELECT user_id, instrument_id, symbol, name, dt_create
		FROM watchlist
		WHERE user_id = $1
		ORDER BY dt_create
		`

	slog.Debug("GetWatchlist start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int64("userID", userID))
	defer func() {
		if err != nil {
			slog.Error("GetWatchlist failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetWatchlist completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var item dbModel.WatchlistItem
		err = rows.StructScan(&item)
		if err != nil {
			return nil, err
		}
		items = append(items, dbConverter.ConvertWatchlistItem(item))
	}

	return items, nil
}

func (r *Postgres) DeleteWatchlistItem(ctx context.Context, userID int64, symbol string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteWatchlistItem"
	params := map[string]any{
		"userID": userID,
		"symbol": symbol,
	}

	query := `
		DELETE FROM watchlist
		WHERE
			user_id = $1
			AND symbol = $2
		`

	slog.Debug("DeleteWatchlistItem start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error("DeleteWatchlistItem failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteWatchlistItem completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, userID, symbol)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
