package dashboardService

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/geckoModel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertUser(ctx context.Context, chatID int64) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetUserID(ctx context.Context, chatID int64) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) InsertLot(ctx context.Context, userID int64, lot model.Lot) (int64, error) {
	args := m.Called(ctx, userID, lot)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetLots(ctx context.Context, userID int64) ([]model.Lot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lot), args.Error(1)
}

func (m *MockRepository) DeleteLot(ctx context.Context, userID, lotID int64) error {
	args := m.Called(ctx, userID, lotID)
	return args.Error(0)
}

func (m *MockRepository) InsertWatchlistItem(ctx context.Context, userID int64, item model.WatchlistItem) error {
	args := m.Called(ctx, userID, item)
	return args.Error(0)
}

func (m *MockRepository) GetWatchlist(ctx context.Context, userID int64) ([]model.WatchlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WatchlistItem), args.Error(1)
}

func (m *MockRepository) DeleteWatchlistItem(ctx context.Context, userID int64, symbol string) error {
	args := m.Called(ctx, userID, symbol)
	return args.Error(0)
}

func (m *MockRepository) InsertAlert(ctx context.Context, userID int64, alert model.Alert) (int64, error) {
	args := m.Called(ctx, userID, alert)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetAlerts(ctx context.Context, userID int64) ([]model.Alert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *MockRepository) GetActiveAlerts(ctx context.Context) ([]model.Alert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *MockRepository) MarkAlertTriggered(ctx context.Context, alertID int64) error {
	args := m.Called(ctx, alertID)
	return args.Error(0)
}

func (m *MockRepository) DeleteAlert(ctx context.Context, userID, alertID int64) error {
	args := m.Called(ctx, userID, alertID)
	return args.Error(0)
}

func (m *MockRepository) InsertPost(ctx context.Context, userID int64, author, content string) (int64, error) {
	args := m.Called(ctx, userID, author, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetLatestPosts(ctx context.Context, limit int) ([]model.Post, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockRepository) GetTrackedInstrumentIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, instrumentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockCache) SetPrices(ctx context.Context, prices map[string]decimal.Decimal) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *MockCache) GetChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error) {
	args := m.Called(ctx, instrumentID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PricePoint), args.Error(1)
}

func (m *MockCache) SetChart(ctx context.Context, instrumentID string, days int, points []model.PricePoint) error {
	args := m.Called(ctx, instrumentID, days, points)
	return args.Error(0)
}

type MockMarketApi struct {
	mock.Mock
}

func (m *MockMarketApi) GetCurrentPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, instrumentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *MockMarketApi) GetMarketChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error) {
	args := m.Called(ctx, instrumentID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PricePoint), args.Error(1)
}

func (m *MockMarketApi) SearchCoin(ctx context.Context, query string) (geckoModel.CoinInfo, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(geckoModel.CoinInfo), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAlert(chatID int64, alert model.Alert, price decimal.Decimal) error {
	args := m.Called(chatID, alert, price)
	return args.Error(0)
}

type stubCloudStorage struct{}

func (stubCloudStorage) UploadFile(ctx context.Context, reader io.Reader, filename string) (string, error) {
	return "", nil
}

func (stubCloudStorage) DeleteOldFiles(ctx context.Context) error { return nil }

type stubReportGenerator struct{}

func (stubReportGenerator) Generate(ctx context.Context, report model.PortfolioReport) ([]byte, string, error) {
	return []byte("xlsx"), ".xlsx", nil
}

func newTestService(repo *MockRepository, cache *MockCache, marketApi *MockMarketApi) *DashboardService {
	cfg := &config.Config{
		DefaultChartDays: 30,
		FeedPageSize:     10,
	}
	cfg.Telegram.FileLimitInBytes = 50 * 1024 * 1024

	return New(cfg, repo, cache, marketApi, stubReportGenerator{}, stubCloudStorage{})
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestGetPortfolio_PricesFromCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	service := newTestService(repo, cache, marketApi)

	lots := []model.Lot{
		{LotID: 1, InstrumentID: "bitcoin", Symbol: "BTC", Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(10000)},
	}

	repo.On("GetUserID", ctx, int64(42)).Return(int64(7), nil)
	repo.On("GetLots", ctx, int64(7)).Return(lots, nil)
	cache.On("GetPrices", ctx, []string{"bitcoin"}).
		Return(map[string]decimal.Decimal{"bitcoin": decimal.NewFromInt(25000)}, nil)

	positions, totals, err := service.GetPortfolio(ctx, 42)

	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].MarketValue.Equal(decimal.NewFromInt(50000)))
	assert.True(t, positions[0].UnrealizedPnL.Equal(decimal.NewFromInt(30000)))
	assert.True(t, totals.MarketValue.Equal(decimal.NewFromInt(50000)))

	// кэш попал - в API не ходим
	marketApi.AssertNotCalled(t, "GetCurrentPrices", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetPortfolio_CacheMissFallsBackToApi(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	service := newTestService(repo, cache, marketApi)

	lots := []model.Lot{
		{LotID: 1, InstrumentID: "ethereum", Symbol: "ETH", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(2000)},
	}

	repo.On("GetUserID", ctx, int64(42)).Return(int64(7), nil)
	repo.On("GetLots", ctx, int64(7)).Return(lots, nil)
	cache.On("GetPrices", ctx, []string{"ethereum"}).Return(nil, errors.New("cache miss"))
	cache.On("SetPrices", mock.Anything, mock.Anything).Return(nil).Maybe()
	marketApi.On("GetCurrentPrices", ctx, []string{"ethereum"}).
		Return(map[string]decimal.Decimal{"ethereum": decimal.NewFromInt(3000)}, nil)

	positions, totals, err := service.GetPortfolio(ctx, 42)

	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, totals.MarketValue.Equal(decimal.NewFromInt(30000)))
	marketApi.AssertExpectations(t)
}

func TestGetPortfolio_MissingPriceValuedAtZero(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	service := newTestService(repo, cache, marketApi)

	lots := []model.Lot{
		{LotID: 1, InstrumentID: "bitcoin", Symbol: "BTC", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(10000)},
		{LotID: 2, InstrumentID: "obscurecoin", Symbol: "OBS", Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromInt(5)},
	}

	repo.On("GetUserID", ctx, int64(42)).Return(int64(7), nil)
	repo.On("GetLots", ctx, int64(7)).Return(lots, nil)
	// у obscurecoin цены нет ни в кэше, ни в API
	cache.On("GetPrices", ctx, mock.Anything).
		Return(map[string]decimal.Decimal{"bitcoin": decimal.NewFromInt(20000)}, nil)

	positions, totals, err := service.GetPortfolio(ctx, 42)

	require.NoError(t, err)
	require.Len(t, positions, 2)

	byID := map[string]model.Position{}
	for _, p := range positions {
		byID[p.InstrumentID] = p
	}

	assert.True(t, byID["obscurecoin"].MarketValue.IsZero())
	assert.True(t, byID["obscurecoin"].UnrealizedPnL.Equal(decimal.NewFromInt(-500)))
	assert.True(t, totals.MarketValue.Equal(decimal.NewFromInt(20000)))
}

func TestGetPortfolioHistory_FailedChartDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	service := newTestService(repo, cache, marketApi)

	lots := []model.Lot{
		{LotID: 1, InstrumentID: "bitcoin", Symbol: "BTC", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(10000)},
		{LotID: 2, InstrumentID: "ethereum", Symbol: "ETH", Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(2000)},
	}

	btcPoints := []model.PricePoint{
		{Timestamp: day(1), Date: day(1), Close: decimal.NewFromInt(100)},
		{Timestamp: day(2), Date: day(2), Close: decimal.NewFromInt(110)},
	}

	repo.On("GetUserID", ctx, int64(42)).Return(int64(7), nil)
	repo.On("GetLots", ctx, int64(7)).Return(lots, nil)
	cache.On("GetChart", mock.Anything, "bitcoin", 30).Return(btcPoints, nil)
	cache.On("GetChart", mock.Anything, "ethereum", 30).Return(nil, errors.New("cache miss"))
	marketApi.On("GetMarketChart", mock.Anything, "ethereum", 30).Return(nil, errors.New("api down"))

	values, err := service.GetPortfolioHistory(ctx, 42, 30)

	// портфель строится из того, что удалось получить
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, values[0].TotalValue.Equal(decimal.NewFromInt(100)))
	assert.True(t, values[1].TotalValue.Equal(decimal.NewFromInt(110)))
}

func TestCheckPriceAlerts_FiresAndMarksTriggered(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	notifier := new(MockNotifier)
	service := newTestService(repo, cache, marketApi)
	service.SetNotifier(notifier)

	alerts := []model.Alert{
		{AlertID: 1, ChatID: 42, InstrumentID: "bitcoin", Symbol: "BTC", Direction: model.AlertAbove, TargetPrice: decimal.NewFromInt(20000)},
		{AlertID: 2, ChatID: 42, InstrumentID: "bitcoin", Symbol: "BTC", Direction: model.AlertBelow, TargetPrice: decimal.NewFromInt(10000)},
	}

	repo.On("GetActiveAlerts", ctx).Return(alerts, nil)
	cache.On("GetPrices", ctx, []string{"bitcoin"}).
		Return(map[string]decimal.Decimal{"bitcoin": decimal.NewFromInt(25000)}, nil)
	notifier.On("NotifyAlert", int64(42), alerts[0], decimal.NewFromInt(25000)).Return(nil)
	repo.On("MarkAlertTriggered", ctx, int64(1)).Return(nil)

	err := service.CheckPriceAlerts(ctx)

	require.NoError(t, err)
	// сработал только above-алерт
	notifier.AssertNumberOfCalls(t, "NotifyAlert", 1)
	repo.AssertNotCalled(t, "MarkAlertTriggered", ctx, int64(2))
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCheckPriceAlerts_NotifyFailureKeepsAlertActive(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	notifier := new(MockNotifier)
	service := newTestService(repo, cache, marketApi)
	service.SetNotifier(notifier)

	alerts := []model.Alert{
		{AlertID: 1, ChatID: 42, InstrumentID: "bitcoin", Symbol: "BTC", Direction: model.AlertAbove, TargetPrice: decimal.NewFromInt(20000)},
	}

	repo.On("GetActiveAlerts", ctx).Return(alerts, nil)
	cache.On("GetPrices", ctx, []string{"bitcoin"}).
		Return(map[string]decimal.Decimal{"bitcoin": decimal.NewFromInt(25000)}, nil)
	notifier.On("NotifyAlert", int64(42), alerts[0], decimal.NewFromInt(25000)).
		Return(errors.New("blocked by user"))

	err := service.CheckPriceAlerts(ctx)

	require.NoError(t, err)
	// доставка не удалась - алерт остается активным
	repo.AssertNotCalled(t, "MarkAlertTriggered", mock.Anything, mock.Anything)
}

func TestWarmPricesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	service := newTestService(repo, cache, marketApi)

	prices := map[string]decimal.Decimal{
		"bitcoin":  decimal.NewFromInt(25000),
		"ethereum": decimal.NewFromInt(3000),
	}

	repo.On("GetTrackedInstrumentIDs", ctx).Return([]string{"bitcoin", "ethereum"}, nil)
	marketApi.On("GetCurrentPrices", ctx, []string{"bitcoin", "ethereum"}).Return(prices, nil)
	cache.On("SetPrices", ctx, prices).Return(nil)

	err := service.WarmPricesCache(ctx)

	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestWarmPricesCache_NoTrackedInstruments(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockCache)
	marketApi := new(MockMarketApi)
	service := newTestService(repo, cache, marketApi)

	repo.On("GetTrackedInstrumentIDs", ctx).Return([]string{}, nil)

	err := service.WarmPricesCache(ctx)

	require.NoError(t, err)
	marketApi.AssertNotCalled(t, "GetCurrentPrices", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "SetPrices", mock.Anything, mock.Anything)
}
