package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Alert struct {
	AlertID      int64           `db:"alert_id"`
	UserID       int64           `db:"user_id"`
	ChatID       int64           `db:"chat_id"`
	InstrumentID string          `db:"instrument_id"`
	Symbol       string          `db:"symbol"`
	Direction    string          `db:"direction"`
	TargetPrice  decimal.Decimal `db:"target_price"`
	Triggered    bool            `db:"triggered"`
	CreatedAt    time.Time       `db:"dt_create"`
}
