package postgres

import (
	"context"
	"log/slog"

	"github.com/ndanilin/coindash_bot/data/repository"
	"github.com/ndanilin/coindash_bot/internal/converter/dbConverter"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/dbModel"
	"github.com/ndanilin/coindash_bot/utils"
)

func (r *Postgres) InsertLot(ctx context.Context, userID int64, lot model.Lot) (lotID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertLot"
	query := `
		INSERT INTO lots(user_id, instrument_id, symbol, name, quantity, unit_cost, dt_acquired)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING lot_id
	`

	slog.Debug(
		"InsertLot start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int64("userID", userID),
		slog.Any("lot", lot),
		slog.String("query", query),
	)
	defer func() {
		if err != nil {
			slog.Error("InsertLot failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertLot completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		userID,
		lot.InstrumentID,
		lot.Symbol,
		lot.Name,
		lot.Quantity,
		lot.UnitCost,
		lot.AcquiredAt,
	).Scan(&lotID)

	if err != nil {
		return 0, err
	}

	return lotID, nil
}

func (r *Postgres) GetLots(ctx context.Context, userID int64) (lots []model.Lot, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLots"
	query := `
		SELECT lot_id, user_id, instrument_id, symbol, name, quantity, unit_cost, dt_acquired
		FROM lots
		WHERE user_id = $1
		ORDER BY dt_acquired
		`

	slog.Debug("GetLots start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int64("userID", userID))
	defer func() {
		if err != nil {
			slog.Error("GetLots failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLots completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var lot dbModel.Lot
		err = rows.StructScan(&lot)
		if err != nil {
			return nil, err
		}
		lots = append(lots, dbConverter.ConvertLot(lot))
	}

	return lots, nil
}

func (r *Postgres) DeleteLot(ctx context.Context, userID, lotID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteLot"
	params := map[string]any{
		"userID": userID,
		"lotID":  lotID,
	}

	query := `
		DELETE FROM lots
		WHERE
			user_id = $1
			AND lot_id = $2
		`

	slog.Debug("DeleteLot start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error("DeleteLot failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteLot completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, userID, lotID)
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
