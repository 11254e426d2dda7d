package telegram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/data/session"
	"github.com/ndanilin/coindash_bot/internal/converter/telebotConverter"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/service"
	"github.com/ndanilin/coindash_bot/utils"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

const internalErrMsg = "что-то пошло не так..."

type DashboardService interface {
	RegUser(ctx context.Context, chatID int64) error
	AddLot(ctx context.Context, chatID int64, query string, quantity, unitCost decimal.Decimal) (model.Lot, error)
	GetLots(ctx context.Context, chatID int64) ([]model.Lot, error)
	DeleteLot(ctx context.Context, chatID, lotID int64) error
	GetPortfolio(ctx context.Context, chatID int64) ([]model.Position, model.PortfolioTotals, error)
	GetPortfolioHistory(ctx context.Context, chatID int64, days int) ([]model.ValuePoint, error)
	AddToWatchlist(ctx context.Context, chatID int64, query string) (model.WatchlistItem, error)
	GetWatchlist(ctx context.Context, chatID int64) ([]model.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, chatID int64, symbol string) error
	CreateAlert(ctx context.Context, chatID int64, query string, direction model.AlertDirection, targetPrice decimal.Decimal) (model.Alert, error)
	GetAlerts(ctx context.Context, chatID int64) ([]model.Alert, error)
	DeleteAlert(ctx context.Context, chatID, alertID int64) error
	CreatePost(ctx context.Context, chatID int64, author, content string) error
	GetFeed(ctx context.Context) ([]model.Post, error)
	ExportReport(ctx context.Context, chatID int64) (model.ReportFile, error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg              *config.Config
	dashboardService DashboardService
	session          Session
}

func NewController(cfg *config.Config, dashboardService DashboardService, session Session) *Controller {
	return &Controller{
		cfg:              cfg,
		dashboardService: dashboardService,
		session:          session,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.dashboardService.RegUser(ctx, c.Chat().ID)
	return c.Send("Привет! Я помогу следить за криптопортфелем.\n\n" +
		"/buy - добавить покупку\n" +
		"/portfolio - текущие позиции\n" +
		"/history - динамика стоимости\n" +
		"/lots - список покупок\n" +
		"/watch - следить за монетой\n" +
		"/alert - уведомление по цене\n" +
		"/post - написать в ленту\n" +
		"/feed - лента\n" +
		"/report - выгрузка в xlsx")
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Session{}, nil
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) setState(ctx context.Context, c tele.Context, state model.Session) error {
	return ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), state)
}

func (ctrl *Controller) InitAddLot(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingLotInput
	if err := ctrl.setState(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите покупку: тикер количество цена\nнапример: btc 0.5 60000")
}

func (ctrl *Controller) ProcessAddLot(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	parts := strings.Fields(c.Message().Text)
	if len(parts) != 3 {
		return c.Send("нужно три значения: тикер количество цена")
	}

	quantity, err := decimal.NewFromString(parts[1])
	if err != nil || !quantity.IsPositive() {
		return c.Send("количество должно быть положительным числом")
	}

	unitCost, err := decimal.NewFromString(parts[2])
	if err != nil || unitCost.IsNegative() {
		return c.Send("цена должна быть числом не меньше нуля")
	}

	defer func() {
		chatSession.State = model.DefaultState
		_ = ctrl.setState(ctx, c, chatSession)
	}()

	lot, err := ctrl.dashboardService.AddLot(ctx, c.Chat().ID, parts[0], quantity, unitCost)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("не нашли такую монету")
		}
		slog.Error("got error from dashboardService.AddLot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Добавили покупку: " + lot.Symbol + " " + lot.Quantity.String() + " по " + lot.UnitCost.String() + "$")
}

func (ctrl *Controller) Portfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	positions, totals, err := ctrl.dashboardService.GetPortfolio(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from dashboardService.GetPortfolio", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.PortfolioResponse(positions, totals))
}

func (ctrl *Controller) History(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	days := ctrl.cfg.DefaultChartDays
	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		parsed, err := strconv.Atoi(payload)
		if err != nil || parsed <= 0 {
			return c.Send("укажите число дней, например: /history 90")
		}
		if parsed > ctrl.cfg.HistoryDaysLimit {
			return c.Send("максимум " + strconv.Itoa(ctrl.cfg.HistoryDaysLimit) + " дней")
		}
		days = parsed
	}

	series, err := ctrl.dashboardService.GetPortfolioHistory(ctx, c.Chat().ID, days)
	if err != nil {
		slog.Error("got error from dashboardService.GetPortfolioHistory", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.HistoryResponse(series, days))
}

func (ctrl *Controller) Lots(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	lots, err := ctrl.dashboardService.GetLots(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from dashboardService.GetLots", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.LotsResponse(lots))
}

func (ctrl *Controller) DeleteLot(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	lotID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		return c.Send("укажите номер покупки, например: /dellot 3")
	}

	err = ctrl.dashboardService.DeleteLot(ctx, c.Chat().ID, lotID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("покупка с таким номером не найдена")
		}
		slog.Error("got error from dashboardService.DeleteLot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Удалили покупку №" + strconv.FormatInt(lotID, 10))
}

func (ctrl *Controller) InitWatch(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingWatchInput
	if err := ctrl.setState(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите тикер монеты:")
}

func (ctrl *Controller) ProcessWatch(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	defer func() {
		chatSession.State = model.DefaultState
		_ = ctrl.setState(ctx, c, chatSession)
	}()

	item, err := ctrl.dashboardService.AddToWatchlist(ctx, c.Chat().ID, strings.TrimSpace(c.Message().Text))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("не нашли такую монету")
		}
		if errors.Is(err, service.ErrAlreadyExists) {
			return c.Send("уже следим за этой монетой")
		}
		slog.Error("got error from dashboardService.AddToWatchlist", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Следим за " + item.Symbol + " (" + item.Name + ")")
}

func (ctrl *Controller) Watchlist(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	entries, err := ctrl.dashboardService.GetWatchlist(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from dashboardService.GetWatchlist", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.WatchlistResponse(entries))
}

func (ctrl *Controller) Unwatch(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	symbol := strings.ToUpper(strings.TrimSpace(c.Message().Payload))
	if symbol == "" {
		return c.Send("укажите тикер, например: /unwatch BTC")
	}

	err := ctrl.dashboardService.RemoveFromWatchlist(ctx, c.Chat().ID, symbol)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("этой монеты нет в вашем списке")
		}
		slog.Error("got error from dashboardService.RemoveFromWatchlist", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Больше не следим за " + symbol)
}

func (ctrl *Controller) InitAlert(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingAlertInput
	if err := ctrl.setState(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите условие: тикер направление цена\nнапример: btc above 70000 или eth below 2000")
}

func (ctrl *Controller) ProcessAlert(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	parts := strings.Fields(c.Message().Text)
	if len(parts) != 3 {
		return c.Send("нужно три значения: тикер направление цена")
	}

	var direction model.AlertDirection
	switch strings.ToLower(parts[1]) {
	case "above", ">", "выше":
		direction = model.AlertAbove
	case "below", "<", "ниже":
		direction = model.AlertBelow
	default:
		return c.Send("направление должно быть above или below")
	}

	targetPrice, err := decimal.NewFromString(parts[2])
	if err != nil || !targetPrice.IsPositive() {
		return c.Send("цена должна быть положительным числом")
	}

	defer func() {
		chatSession.State = model.DefaultState
		_ = ctrl.setState(ctx, c, chatSession)
	}()

	alert, err := ctrl.dashboardService.CreateAlert(ctx, c.Chat().ID, parts[0], direction, targetPrice)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("не нашли такую монету")
		}
		slog.Error("got error from dashboardService.CreateAlert", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Уведомление создано: " + alert.Symbol + " " + string(alert.Direction) + " " + alert.TargetPrice.String() + "$")
}

func (ctrl *Controller) Alerts(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	alerts, err := ctrl.dashboardService.GetAlerts(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from dashboardService.GetAlerts", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.AlertsResponse(alerts))
}

func (ctrl *Controller) DeleteAlert(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	alertID, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil {
		return c.Send("укажите номер уведомления, например: /delalert 2")
	}

	err = ctrl.dashboardService.DeleteAlert(ctx, c.Chat().ID, alertID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("уведомление с таким номером не найдено")
		}
		slog.Error("got error from dashboardService.DeleteAlert", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Удалили уведомление №" + strconv.FormatInt(alertID, 10))
}

func (ctrl *Controller) InitPost(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingPostText
	if err := ctrl.setState(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите текст записи:")
}

func (ctrl *Controller) ProcessPost(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	defer func() {
		chatSession.State = model.DefaultState
		_ = ctrl.setState(ctx, c, chatSession)
	}()

	author := c.Sender().Username
	if author == "" {
		author = c.Sender().FirstName
	}

	err = ctrl.dashboardService.CreatePost(ctx, c.Chat().ID, author, c.Message().Text)
	if err != nil {
		slog.Error("got error from dashboardService.CreatePost", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Запись опубликована")
}

func (ctrl *Controller) Feed(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	posts, err := ctrl.dashboardService.GetFeed(ctx)
	if err != nil {
		slog.Error("got error from dashboardService.GetFeed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.FeedResponse(posts))
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	_ = c.Notify(tele.UploadingDocument)

	reportFile, err := ctrl.dashboardService.ExportReport(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from dashboardService.ExportReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	// большие файлы не пролезают в телеграм - отдаем ссылку на скачивание
	if reportFile.DownloadLink != "" {
		return c.Send("Отчет готов: " + reportFile.DownloadLink)
	}

	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(reportFile.FileBytes)),
		FileName: reportFile.Filename,
	}

	return c.Send(doc)
}
