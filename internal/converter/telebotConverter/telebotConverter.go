package telebotConverter

import (
	"fmt"
	"strings"

	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/shopspring/decimal"
)

func sign(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+"
	}
	return ""
}

func PortfolioResponse(positions []model.Position, totals model.PortfolioTotals) string {
	if len(positions) == 0 {
		return "Портфель пуст. Добавьте первую покупку командой /buy"
	}

	b := strings.Builder{}
	b.WriteString("Портфель:\n\n")

	for _, p := range positions {
		b.WriteString(fmt.Sprintf(
			"%s (%s)\nкол-во: %s | средняя: $%s\nстоимость: $%s | P&L: %s$%s (%s%s%%)\n\n",
			p.Name,
			p.Symbol,
			p.TotalQuantity.String(),
			p.AvgUnitCost.StringFixed(2),
			p.MarketValue.StringFixed(2),
			sign(p.UnrealizedPnL), p.UnrealizedPnL.StringFixed(2),
			sign(p.UnrealizedPnLPercent), p.UnrealizedPnLPercent.StringFixed(2),
		))
	}

	b.WriteString(fmt.Sprintf(
		"Итого: $%s\nВложено: $%s\nP&L: %s$%s (%s%s%%)",
		totals.MarketValue.StringFixed(2),
		totals.CostBasis.StringFixed(2),
		sign(totals.UnrealizedPnL), totals.UnrealizedPnL.StringFixed(2),
		sign(totals.UnrealizedPnLPercent), totals.UnrealizedPnLPercent.StringFixed(2),
	))

	return b.String()
}

func HistoryResponse(series []model.ValuePoint, days int) string {
	if len(series) == 0 {
		return "Недостаточно данных для построения истории портфеля"
	}

	first := series[0]
	last := series[len(series)-1]

	min, max := first, first
	for _, p := range series {
		if p.TotalValue.LessThan(min.TotalValue) {
			min = p
		}
		if p.TotalValue.GreaterThan(max.TotalValue) {
			max = p
		}
	}

	change := last.TotalValue.Sub(first.TotalValue)
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("Стоимость портфеля за %d дн.:\n\n", days))
	b.WriteString(fmt.Sprintf("начало (%s): $%s\n", first.Date.Format("02.01.2006"), first.TotalValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("сейчас (%s): $%s\n", last.Date.Format("02.01.2006"), last.TotalValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("мин (%s): $%s\n", min.Date.Format("02.01.2006"), min.TotalValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("макс (%s): $%s\n", max.Date.Format("02.01.2006"), max.TotalValue.StringFixed(2)))
	b.WriteString(fmt.Sprintf("изменение: %s$%s", sign(change), change.StringFixed(2)))

	return b.String()
}

func LotsResponse(lots []model.Lot) string {
	if len(lots) == 0 {
		return "Покупок пока нет"
	}

	b := strings.Builder{}
	b.WriteString("Покупки (для удаления /dellot <id>):\n\n")

	for _, lot := range lots {
		b.WriteString(fmt.Sprintf(
			"#%d %s: %s по $%s (%s)\n",
			lot.LotID,
			lot.Symbol,
			lot.Quantity.String(),
			lot.UnitCost.String(),
			lot.AcquiredAt.Format("02.01.2006"),
		))
	}

	return b.String()
}

func WatchlistResponse(entries []model.WatchlistEntry) string {
	if len(entries) == 0 {
		return "Список наблюдения пуст. Добавьте монету командой /watch"
	}

	b := strings.Builder{}
	b.WriteString("Список наблюдения:\n\n")

	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s (%s): $%s\n", e.Name, e.Symbol, e.CurrentPrice.String()))
	}

	return b.String()
}

func AlertsResponse(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return "Алертов нет. Создайте командой /alert"
	}

	b := strings.Builder{}
	b.WriteString("Алерты (для удаления /delalert <id>):\n\n")

	for _, a := range alerts {
		status := "активен"
		if a.Triggered {
			status = "сработал"
		}
		b.WriteString(fmt.Sprintf("#%d %s %s $%s (%s)\n", a.AlertID, a.Symbol, a.Direction, a.TargetPrice.String(), status))
	}

	return b.String()
}

func AlertFiredResponse(alert model.Alert, price decimal.Decimal) string {
	return fmt.Sprintf(
		"Алерт #%d: %s сейчас $%s (условие: %s $%s)",
		alert.AlertID,
		alert.Symbol,
		price.String(),
		alert.Direction,
		alert.TargetPrice.String(),
	)
}

func FeedResponse(posts []model.Post) string {
	if len(posts) == 0 {
		return "В ленте пока пусто. Напишите первый пост командой /post"
	}

	b := strings.Builder{}
	b.WriteString("Лента:\n\n")

	for _, p := range posts {
		b.WriteString(fmt.Sprintf("%s (%s):\n%s\n\n", p.Author, p.CreatedAt.Format("02.01 15:04"), p.Content))
	}

	return strings.TrimRight(b.String(), "\n")
}
