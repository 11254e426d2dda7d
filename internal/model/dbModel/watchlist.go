package dbModel

import "time"

type WatchlistItem struct {
	UserID       int64     `db:"user_id"`
	InstrumentID string    `db:"instrument_id"`
	Symbol       string    `db:"symbol"`
	Name         string    `db:"name"`
	CreatedAt    time.Time `db:"dt_create"`
}
