package dbConverter

import (
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/dbModel"
)

func ConvertLot(dbLot dbModel.Lot) model.Lot {
	return model.Lot{
		LotID:        dbLot.LotID,
		InstrumentID: dbLot.InstrumentID,
		Symbol:       dbLot.Symbol,
		Name:         dbLot.Name,
		Quantity:     dbLot.Quantity,
		UnitCost:     dbLot.UnitCost,
		AcquiredAt:   dbLot.AcquiredAt,
	}
}

func ConvertWatchlistItem(dbItem dbModel.WatchlistItem) model.WatchlistItem {
	return model.WatchlistItem{
		InstrumentID: dbItem.InstrumentID,
		Symbol:       dbItem.Symbol,
		Name:         dbItem.Name,
		AddedAt:      dbItem.CreatedAt,
	}
}

func ConvertAlert(dbAlert dbModel.Alert) model.Alert {
	return model.Alert{
		AlertID:      dbAlert.AlertID,
		ChatID:       dbAlert.ChatID,
		InstrumentID: dbAlert.InstrumentID,
		Symbol:       dbAlert.Symbol,
		Direction:    model.AlertDirection(dbAlert.Direction),
		TargetPrice:  dbAlert.TargetPrice,
		Triggered:    dbAlert.Triggered,
		CreatedAt:    dbAlert.CreatedAt,
	}
}

func ConvertPost(dbPost dbModel.Post) model.Post {
	return model.Post{
		PostID:    dbPost.PostID,
		Author:    dbPost.Author,
		Content:   dbPost.Content,
		CreatedAt: dbPost.CreatedAt,
	}
}
