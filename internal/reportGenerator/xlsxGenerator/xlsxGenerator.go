package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/utils"
	"github.com/xuri/excelize/v2"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillPositionsSheet(f, report); err != nil {
		slog.Error("got error while filling positions sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err := g.fillHistorySheet(f, report); err != nil {
		slog.Error("got error while filling history sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err := g.fillLotsSheet(f, report); err != nil {
		slog.Error("got error while filling lots sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	// Удаляем лист по умолчанию "Sheet1"
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) titleStyle(f *excelize.File, fillColor string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{fillColor},
		},
	})
}

func (g *XLSXGenerator) fillPositionsSheet(f *excelize.File, report model.PortfolioReport) error {
	sheetName := "Портфель"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "H1"); err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Позиции")

	styleID, err := g.titleStyle(f, "#cfe2f3") // светло-голубой
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("ошибка применения стиля: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "название")
	_ = f.SetCellStr(sheetName, "B2", "тикер")
	_ = f.SetCellStr(sheetName, "C2", "кол-во")
	_ = f.SetCellStr(sheetName, "D2", "средняя цена покупки")
	_ = f.SetCellStr(sheetName, "E2", "текущая цена")
	_ = f.SetCellStr(sheetName, "F2", "стоимость")
	_ = f.SetCellStr(sheetName, "G2", "прибыль")
	_ = f.SetCellStr(sheetName, "H2", "прибыль %")

	for i, position := range report.Positions {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), position.Name)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), position.Symbol)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), position.TotalQuantity.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), position.AvgUnitCost.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), position.CurrentPrice.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), position.MarketValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), position.UnrealizedPnL.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), position.UnrealizedPnLPercent.InexactFloat64())
	}

	// итоги
	row := len(report.Positions) + 4
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), "Итого")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), report.Totals.CostBasis.InexactFloat64())
	_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), report.Totals.MarketValue.InexactFloat64())
	_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), report.Totals.UnrealizedPnL.InexactFloat64())
	_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), report.Totals.UnrealizedPnLPercent.InexactFloat64())

	return nil
}

func (g *XLSXGenerator) fillHistorySheet(f *excelize.File, report model.PortfolioReport) error {
	sheetName := "Динамика"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "B1"); err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Стоимость портфеля по дням")

	styleID, err := g.titleStyle(f, "#d9ead3") // светло-зеленый
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("ошибка применения стиля: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "дата")
	_ = f.SetCellStr(sheetName, "B2", "стоимость")

	for i, point := range report.History {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), point.Date.Format("2006-01-02"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), point.TotalValue.InexactFloat64())
	}

	return nil
}

func (g *XLSXGenerator) fillLotsSheet(f *excelize.File, report model.PortfolioReport) error {
	sheetName := "Сделки"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "E1"); err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "История покупок")

	styleID, err := g.titleStyle(f, "#f9cb9c") // светло-оранжевый
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("ошибка применения стиля: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "тикер")
	_ = f.SetCellStr(sheetName, "B2", "название")
	_ = f.SetCellStr(sheetName, "C2", "кол-во")
	_ = f.SetCellStr(sheetName, "D2", "цена покупки")
	_ = f.SetCellStr(sheetName, "E2", "дата")

	for i, lot := range report.Lots {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), lot.Symbol)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), lot.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), lot.Quantity.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), lot.UnitCost.InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", row), lot.AcquiredAt.Format("2006-01-02"))
	}

	return nil
}
