package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Lot struct {
	LotID        int64           `db:"lot_id"`
	UserID       int64           `db:"user_id"`
	InstrumentID string          `db:"instrument_id"`
	Symbol       string          `db:"symbol"`
	Name         string          `db:"name"`
	Quantity     decimal.Decimal `db:"quantity"`
	UnitCost     decimal.Decimal `db:"unit_cost"`
	AcquiredAt   time.Time       `db:"dt_acquired"`
}
