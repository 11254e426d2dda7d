package dashboardService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/data/repository"
	"github.com/ndanilin/coindash_bot/internal/externalApi"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/geckoModel"
	"github.com/ndanilin/coindash_bot/internal/portfolio"
	"github.com/ndanilin/coindash_bot/internal/service"
	"github.com/ndanilin/coindash_bot/utils"
	"github.com/shopspring/decimal"
)

type MarketApi interface {
	GetCurrentPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error)
	GetMarketChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error)
	SearchCoin(ctx context.Context, query string) (geckoModel.CoinInfo, error)
}

type Cache interface {
	GetPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error)
	SetPrices(ctx context.Context, prices map[string]decimal.Decimal) error
	GetChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error)
	SetChart(ctx context.Context, instrumentID string, days int, points []model.PricePoint) error
}

type Repository interface {
	InsertUser(ctx context.Context, chatID int64) (userID int64, err error)
	GetUserID(ctx context.Context, chatID int64) (userID int64, err error)
	InsertLot(ctx context.Context, userID int64, lot model.Lot) (lotID int64, err error)
	GetLots(ctx context.Context, userID int64) ([]model.Lot, error)
	DeleteLot(ctx context.Context, userID, lotID int64) error
	InsertWatchlistItem(ctx context.Context, userID int64, item model.WatchlistItem) error
	GetWatchlist(ctx context.Context, userID int64) ([]model.WatchlistItem, error)
	DeleteWatchlistItem(ctx context.Context, userID int64, symbol string) error
	InsertAlert(ctx context.Context, userID int64, alert model.Alert) (alertID int64, err error)
	GetAlerts(ctx context.Context, userID int64) ([]model.Alert, error)
	GetActiveAlerts(ctx context.Context) ([]model.Alert, error)
	MarkAlertTriggered(ctx context.Context, alertID int64) error
	DeleteAlert(ctx context.Context, userID, alertID int64) error
	InsertPost(ctx context.Context, userID int64, author, content string) (postID int64, err error)
	GetLatestPosts(ctx context.Context, limit int) ([]model.Post, error)
	GetTrackedInstrumentIDs(ctx context.Context) ([]string, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

// Notifier pushes a fired alert to the chat. Implemented by the bot.
type Notifier interface {
	NotifyAlert(chatID int64, alert model.Alert, price decimal.Decimal) error
}

type DashboardService struct {
	cfg          *config.Config
	repo         Repository
	cache        Cache
	marketApi    MarketApi
	reportGen    ReportGenerator
	cloudStorage CloudStorage
	notifier     Notifier
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	marketApi MarketApi,
	reportGen ReportGenerator,
	cloudStorage CloudStorage,
) *DashboardService {
	return &DashboardService{
		cfg:          cfg,
		repo:         repo,
		cache:        cache,
		marketApi:    marketApi,
		reportGen:    reportGen,
		cloudStorage: cloudStorage,
	}
}

// SetNotifier wires the bot in after construction (the bot itself depends on
// the service through the controller).
func (s *DashboardService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *DashboardService) RegUser(ctx context.Context, chatID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.RegUser"

	slog.Debug("RegUser start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("RegUser finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	_, err := s.repo.InsertUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil
		}
		slog.Error("got error from repo.InsertUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// getCurrentPrices is the cache-aside price lookup: cache first, API on miss,
// асинхронно обновляем кэш.
func (s *DashboardService) getCurrentPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.getCurrentPrices"

	if len(instrumentIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	prices, err := s.cache.GetPrices(ctx, instrumentIDs)
	if err == nil {
		return prices, nil
	}

	slog.Warn("can't get prices from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	prices, err = s.marketApi.GetCurrentPrices(ctx, instrumentIDs)
	if err != nil {
		slog.Error("got error from marketApi.GetCurrentPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	go s.cache.SetPrices(context.WithoutCancel(ctx), prices)

	return prices, nil
}

// GetPortfolio aggregates the user's lots into positions and values them
// against current prices. Instruments without a known price are valued at 0.
func (s *DashboardService) GetPortfolio(ctx context.Context, chatID int64) ([]model.Position, model.PortfolioTotals, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.GetPortfolio"

	slog.Debug("GetPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetPortfolio finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, model.PortfolioTotals{}, err
	}

	lots, err := s.repo.GetLots(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetLots", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, model.PortfolioTotals{}, err
	}

	summaries := portfolio.AggregatePositions(lots)
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Symbol < summaries[j].Symbol })

	instrumentIDs := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		instrumentIDs = append(instrumentIDs, summary.InstrumentID)
	}

	prices, err := s.getCurrentPrices(ctx, instrumentIDs)
	if err != nil {
		return nil, model.PortfolioTotals{}, err
	}

	positions, totals := portfolio.ValuatePortfolio(summaries, prices)

	return positions, totals, nil
}

// getChart is the cache-aside daily chart lookup for one instrument.
func (s *DashboardService) getChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.getChart"

	points, err := s.cache.GetChart(ctx, instrumentID, days)
	if err == nil {
		return points, nil
	}

	slog.Warn("can't get chart from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("instrumentID", instrumentID), slog.String("err", err.Error()))

	points, err = s.marketApi.GetMarketChart(ctx, instrumentID, days)
	if err != nil {
		return nil, err
	}

	go s.cache.SetChart(context.WithoutCancel(ctx), instrumentID, days, points)

	return points, nil
}

// GetPortfolioHistory reconstructs the day-by-day total portfolio value over
// the last days. Per-instrument histories are fetched concurrently; an
// instrument whose fetch fails contributes an empty history so the rest of
// the portfolio still renders.
func (s *DashboardService) GetPortfolioHistory(ctx context.Context, chatID int64, days int) ([]model.ValuePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.GetPortfolioHistory"

	slog.Debug("GetPortfolioHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID), slog.Int("days", days))
	defer func() {
		slog.Debug("GetPortfolioHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	lots, err := s.repo.GetLots(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetLots", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	summaries := portfolio.AggregatePositions(lots)

	quantities := make(map[string]decimal.Decimal, len(summaries))
	instrumentIDs := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		quantities[summary.InstrumentID] = summary.TotalQuantity
		instrumentIDs = append(instrumentIDs, summary.InstrumentID)
	}

	histories := s.fetchHistories(ctx, instrumentIDs, days)

	return portfolio.ReconstructValueHistory(quantities, histories), nil
}

// fetchHistories loads the daily chart of every instrument concurrently.
// A failed fetch degrades to an empty series, never fails the whole call.
func (s *DashboardService) fetchHistories(ctx context.Context, instrumentIDs []string, days int) []model.InstrumentHistory {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.fetchHistories"

	histories := make([]model.InstrumentHistory, len(instrumentIDs))

	wg := sync.WaitGroup{}
	for i, instrumentID := range instrumentIDs {
		wg.Add(1)
		go func(i int, instrumentID string) {
			defer wg.Done()

			points, err := s.getChart(ctx, instrumentID, days)
			if err != nil {
				slog.Warn(
					"chart fetch failed, instrument degrades to empty history",
					slog.String("rqID", rqID),
					slog.String("op", op),
					slog.String("instrumentID", instrumentID),
					slog.String("err", err.Error()),
				)
				points = nil
			}

			histories[i] = model.InstrumentHistory{InstrumentID: instrumentID, Points: points}
		}(i, instrumentID)
	}
	wg.Wait()

	return histories
}

func (s *DashboardService) AddLot(ctx context.Context, chatID int64, query string, quantity, unitCost decimal.Decimal) (model.Lot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.AddLot"

	slog.Debug("AddLot start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		slog.Debug("AddLot finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Lot{}, err
	}

	coin, err := s.marketApi.SearchCoin(ctx, query)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return model.Lot{}, service.ErrNotFound
		}
		slog.Error("got error from marketApi.SearchCoin", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Lot{}, err
	}

	lot := model.Lot{
		InstrumentID: coin.ID,
		Symbol:       coin.Symbol,
		Name:         coin.Name,
		Quantity:     quantity,
		UnitCost:     unitCost,
		AcquiredAt:   time.Now(),
	}

	lot.LotID, err = s.repo.InsertLot(ctx, userID, lot)
	if err != nil {
		slog.Error("got error from repo.InsertLot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Lot{}, err
	}

	return lot, nil
}

func (s *DashboardService) GetLots(ctx context.Context, chatID int64) ([]model.Lot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.GetLots"

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return s.repo.GetLots(ctx, userID)
}

func (s *DashboardService) DeleteLot(ctx context.Context, chatID, lotID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.DeleteLot"

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	err = s.repo.DeleteLot(ctx, userID, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteLot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (s *DashboardService) AddToWatchlist(ctx context.Context, chatID int64, query string) (model.WatchlistItem, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.AddToWatchlist"

	slog.Debug("AddToWatchlist start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		slog.Debug("AddToWatchlist finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.WatchlistItem{}, err
	}

	coin, err := s.marketApi.SearchCoin(ctx, query)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return model.WatchlistItem{}, service.ErrNotFound
		}
		slog.Error("got error from marketApi.SearchCoin", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.WatchlistItem{}, err
	}

	item := model.WatchlistItem{
		InstrumentID: coin.ID,
		Symbol:       coin.Symbol,
		Name:         coin.Name,
	}

	err = s.repo.InsertWatchlistItem(ctx, userID, item)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.WatchlistItem{}, service.ErrAlreadyExists
		}
		slog.Error("got error from repo.InsertWatchlistItem", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.WatchlistItem{}, err
	}

	return item, nil
}

func (s *DashboardService) GetWatchlist(ctx context.Context, chatID int64) ([]model.WatchlistEntry, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.GetWatchlist"

	slog.Debug("GetWatchlist start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetWatchlist finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	items, err := s.repo.GetWatchlist(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetWatchlist", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	instrumentIDs := make([]string, 0, len(items))
	for _, item := range items {
		instrumentIDs = append(instrumentIDs, item.InstrumentID)
	}

	prices, err := s.getCurrentPrices(ctx, instrumentIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]model.WatchlistEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, model.WatchlistEntry{
			WatchlistItem: item,
			CurrentPrice:  prices[item.InstrumentID],
		})
	}

	return entries, nil
}

func (s *DashboardService) RemoveFromWatchlist(ctx context.Context, chatID int64, symbol string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.RemoveFromWatchlist"

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	err = s.repo.DeleteWatchlistItem(ctx, userID, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteWatchlistItem", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (s *DashboardService) CreateAlert(ctx context.Context, chatID int64, query string, direction model.AlertDirection, targetPrice decimal.Decimal) (model.Alert, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.CreateAlert"

	slog.Debug("CreateAlert start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		slog.Debug("CreateAlert finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Alert{}, err
	}

	coin, err := s.marketApi.SearchCoin(ctx, query)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return model.Alert{}, service.ErrNotFound
		}
		slog.Error("got error from marketApi.SearchCoin", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Alert{}, err
	}

	alert := model.Alert{
		ChatID:       chatID,
		InstrumentID: coin.ID,
		Symbol:       coin.Symbol,
		Direction:    direction,
		TargetPrice:  targetPrice,
	}

	alert.AlertID, err = s.repo.InsertAlert(ctx, userID, alert)
	if err != nil {
		slog.Error("got error from repo.InsertAlert", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Alert{}, err
	}

	return alert, nil
}

func (s *DashboardService) GetAlerts(ctx context.Context, chatID int64) ([]model.Alert, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.GetAlerts"

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return s.repo.GetAlerts(ctx, userID)
}

func (s *DashboardService) DeleteAlert(ctx context.Context, chatID, alertID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.DeleteAlert"

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	err = s.repo.DeleteAlert(ctx, userID, alertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteAlert", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// CheckPriceAlerts is the scheduler job: fire every active alert whose
// condition holds against current prices.
func (s *DashboardService) CheckPriceAlerts(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.CheckPriceAlerts"

	alerts, err := s.repo.GetActiveAlerts(ctx)
	if err != nil {
		slog.Error("got error from repo.GetActiveAlerts", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(alerts) == 0 {
		return nil
	}

	idsSet := make(map[string]struct{}, len(alerts))
	instrumentIDs := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		if _, ok := idsSet[alert.InstrumentID]; ok {
			continue
		}
		idsSet[alert.InstrumentID] = struct{}{}
		instrumentIDs = append(instrumentIDs, alert.InstrumentID)
	}

	prices, err := s.getCurrentPrices(ctx, instrumentIDs)
	if err != nil {
		return err
	}

	for _, alert := range alerts {
		price, ok := prices[alert.InstrumentID]
		if !ok {
			continue // нет цены - проверим в следующий раз
		}

		if !alert.ShouldFire(price) {
			continue
		}

		if s.notifier != nil {
			if err := s.notifier.NotifyAlert(alert.ChatID, alert, price); err != nil {
				slog.Error("got error from notifier.NotifyAlert", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.Int64("alertID", alert.AlertID))
				continue // не помечаем сработавшим, попробуем доставить еще раз
			}
		}

		if err := s.repo.MarkAlertTriggered(ctx, alert.AlertID); err != nil {
			slog.Error("got error from repo.MarkAlertTriggered", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()), slog.Int64("alertID", alert.AlertID))
		}
	}

	return nil
}

// WarmPricesCache is the scheduler job refreshing current prices for every
// tracked instrument.
func (s *DashboardService) WarmPricesCache(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.WarmPricesCache"

	instrumentIDs, err := s.repo.GetTrackedInstrumentIDs(ctx)
	if err != nil {
		slog.Error("got error from repo.GetTrackedInstrumentIDs", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(instrumentIDs) == 0 {
		return nil
	}

	prices, err := s.marketApi.GetCurrentPrices(ctx, instrumentIDs)
	if err != nil {
		slog.Error("got error from marketApi.GetCurrentPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.cache.SetPrices(ctx, prices)
}

// CleanupDriveReports is the scheduler job dropping expired report uploads.
func (s *DashboardService) CleanupDriveReports(ctx context.Context) error {
	return s.cloudStorage.DeleteOldFiles(ctx)
}

func (s *DashboardService) CreatePost(ctx context.Context, chatID int64, author, content string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.CreatePost"

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	_, err = s.repo.InsertPost(ctx, userID, author, content)
	if err != nil {
		slog.Error("got error from repo.InsertPost", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (s *DashboardService) GetFeed(ctx context.Context) ([]model.Post, error) {
	return s.repo.GetLatestPosts(ctx, s.cfg.FeedPageSize)
}

// ExportReport builds the xlsx portfolio report. Small files come back as
// bytes to send directly, big ones are uploaded to the cloud storage and a
// download link comes back instead.
func (s *DashboardService) ExportReport(ctx context.Context, chatID int64) (model.ReportFile, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.ExportReport"

	slog.Debug("ExportReport start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("ExportReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	positions, totals, err := s.GetPortfolio(ctx, chatID)
	if err != nil {
		return model.ReportFile{}, err
	}

	history, err := s.GetPortfolioHistory(ctx, chatID, s.cfg.DefaultChartDays)
	if err != nil {
		return model.ReportFile{}, err
	}

	lots, err := s.GetLots(ctx, chatID)
	if err != nil {
		return model.ReportFile{}, err
	}

	report := model.PortfolioReport{
		Positions: positions,
		Totals:    totals,
		History:   history,
		Lots:      lots,
	}

	fileBytes, fileExtension, err := s.reportGen.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reportGen.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.ReportFile{}, err
	}

	filename := fmt.Sprintf("portfolio_%d_%s%s", chatID, time.Now().Format("2006-01-02"), fileExtension)

	if len(fileBytes) <= s.cfg.Telegram.FileLimitInBytes {
		return model.ReportFile{FileBytes: fileBytes, Filename: filename}, nil
	}

	downloadLink, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.ReportFile{}, err
	}

	return model.ReportFile{Filename: filename, DownloadLink: downloadLink}, nil
}
