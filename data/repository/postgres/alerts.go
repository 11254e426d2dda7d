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

func (r *Postgres) InsertAlert(ctx context.Context, userID int64, alert model.Alert) (alertID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertAlert"
	query := `
		INSERT INTO alerts(user_id, instrument_id, symbol, direction, target_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING alert_id
	`

	slog.Debug("InsertAlert start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("alert", alert))
	defer func() {
		if err != nil {
			slog.Error("InsertAlert failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertAlert completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		userID,
		alert.InstrumentID,
		alert.Symbol,
		string(alert.Direction),
		alert.TargetPrice,
	).Scan(&alertID)

	if err != nil {
		return 0, err
	}

	return alertID, nil
}

func (r *Postgres) GetAlerts(ctx context.Context, userID int64) (alerts []model.Alert, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAlerts"
	query := `
		SELECT a.alert_id, a.user_id, u.chat_id, a.instrument_id, a.symbol, a.direction, a.target_price, a.triggered, a.dt_create
		FROM alerts a
		JOIN users u USING(user_id)
		WHERE a.user_id = $1
		ORDER BY a.dt_create
		`

	slog.Debug("GetAlerts start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int64("userID", userID))
	defer func() {
		if err != nil {
			slog.Error("GetAlerts failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAlerts completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var alert dbModel.Alert
		err = rows.StructScan(&alert)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, dbConverter.ConvertAlert(alert))
	}

	return alerts, nil
}

// GetActiveAlerts returns untriggered alerts across all users, for the
// scheduler job.
func (r *Postgres) GetActiveAlerts(ctx context.Context) (alerts []model.Alert, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetActiveAlerts"
	query := `
		SELECT a.alert_id, a.user_id, u.chat_id, a.instrument_id, a.symbol, a.direction, a.target_price, a.triggered, a.dt_create
		FROM alerts a
		JOIN users u USING(user_id)
		WHERE a.triggered = false
		`

	slog.Debug("GetActiveAlerts start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetActiveAlerts failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetActiveAlerts completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var alert dbModel.Alert
		err = rows.StructScan(&alert)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, dbConverter.ConvertAlert(alert))
	}

	return alerts, nil
}

func (r *Postgres) MarkAlertTriggered(ctx context.Context, alertID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.MarkAlertTriggered"
	query := `UPDATE alerts SET triggered = true WHERE alert_id = $1`

	slog.Debug("MarkAlertTriggered start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int64("alertID", alertID))
	defer func() {
		if err != nil {
			slog.Error("MarkAlertTriggered failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("MarkAlertTriggered completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, alertID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeleteAlert(ctx context.Context, userID, alertID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteAlert"
	params := map[string]any{
		"userID":  userID,
		"alertID": alertID,
	}

	query := `
		DELETE FROM alerts
		WHERE
			user_id = $1
			AND alert_id = $2
		`

	slog.Debug("DeleteAlert start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error("DeleteAlert failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteAlert completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, userID, alertID)
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
