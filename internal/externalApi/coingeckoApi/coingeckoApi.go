package coingeckoApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/internal/externalApi"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/geckoModel"
	"github.com/ndanilin/coindash_bot/utils"
	"github.com/shopspring/decimal"
)

const vsCurrency = "usd"

type CoingeckoApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *CoingeckoApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.CoingeckoApi.Url)

	if cfg.API.CoingeckoApi.ApiKey != "" {
		client.SetHeader("x-cg-demo-api-key", cfg.API.CoingeckoApi.ApiKey)
	}

	return &CoingeckoApi{client: client}
}

// GetCurrentPrices returns the current usd price per coin id. Ids the
// provider does not know are simply absent from the result.
func (a *CoingeckoApi) GetCurrentPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CoingeckoApi.GetCurrentPrices"

	if len(instrumentIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	params := map[string]string{
		"ids":           strings.Join(instrumentIDs, ","),
		"vs_currencies": vsCurrency,
	}

	slog.Debug("GetCurrentPrices start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("ids", instrumentIDs))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get("/simple/price")

	if err != nil {
		slog.Error("error while dialing CoingeckoApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if resp.IsError() {
		slog.Error("CoingeckoApi returned error status", slog.String("rqID", rqID), slog.String("op", op), slog.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("coingecko /simple/price status %d", resp.StatusCode())
	}

	rawPrices := geckoModel.RawPrices{}
	err = json.Unmarshal(resp.Body(), &rawPrices)
	if err != nil {
		slog.Error("can't unmarshall response into geckoModel.RawPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(rawPrices))
	for instrumentID, currencies := range rawPrices {
		price, ok := currencies[vsCurrency]
		if !ok {
			continue
		}
		prices[instrumentID] = decimal.NewFromFloat(price)
	}

	slog.Debug("GetCurrentPrices completed", slog.String("rqID", rqID), slog.String("op", op))

	return prices, nil
}

// GetMarketChart returns the daily close series for one coin over the last
// days. The provider does not guarantee order and may return fewer points
// than requested.
func (a *CoingeckoApi) GetMarketChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CoingeckoApi.GetMarketChart"

	params := map[string]string{
		"vs_currency": vsCurrency,
		"days":        fmt.Sprintf("%d", days),
		"interval":    "daily",
	}

	slog.Debug("GetMarketChart start", slog.String("rqID", rqID), slog.String("op", op), slog.String("instrumentID", instrumentID), slog.Int("days", days))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(fmt.Sprintf("/coins/%s/market_chart", instrumentID))

	if err != nil {
		slog.Error("error while dialing CoingeckoApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if resp.StatusCode() == 404 {
		return nil, externalApi.ErrNotFound
	}

	if resp.IsError() {
		slog.Error("CoingeckoApi returned error status", slog.String("rqID", rqID), slog.String("op", op), slog.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("coingecko market_chart status %d", resp.StatusCode())
	}

	rawChart := geckoModel.RawMarketChart{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into geckoModel.RawMarketChart", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	points := make([]model.PricePoint, 0, len(rawChart.Prices))
	for _, pair := range rawChart.Prices {
		if len(pair) != 2 {
			return nil, fmt.Errorf("unexpected prices entry of length %d", len(pair))
		}

		ts := time.UnixMilli(int64(pair[0])).UTC()
		points = append(points, model.PricePoint{
			Timestamp: ts,
			Date:      model.DayOf(ts),
			Close:     decimal.NewFromFloat(pair[1]),
		})
	}

	slog.Debug("GetMarketChart completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("points", len(points)))

	return points, nil
}

// SearchCoin resolves a free-form query to the best matching coin.
func (a *CoingeckoApi) SearchCoin(ctx context.Context, query string) (geckoModel.CoinInfo, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CoingeckoApi.SearchCoin"

	slog.Debug("SearchCoin start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("query", query).
		Get("/search")

	if err != nil {
		slog.Error("error while dialing CoingeckoApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return geckoModel.CoinInfo{}, err
	}

	if resp.IsError() {
		slog.Error("CoingeckoApi returned error status", slog.String("rqID", rqID), slog.String("op", op), slog.Int("status", resp.StatusCode()))
		return geckoModel.CoinInfo{}, fmt.Errorf("coingecko /search status %d", resp.StatusCode())
	}

	rawSearch := geckoModel.RawSearch{}
	err = json.Unmarshal(resp.Body(), &rawSearch)
	if err != nil {
		slog.Error("can't unmarshall response into geckoModel.RawSearch", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return geckoModel.CoinInfo{}, err
	}

	if len(rawSearch.Coins) == 0 {
		slog.Warn("coin not found", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
		return geckoModel.CoinInfo{}, externalApi.ErrNotFound
	}

	best := rawSearch.Coins[0]

	slog.Debug("SearchCoin completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("coinID", best.ID))

	return geckoModel.CoinInfo{
		ID:     best.ID,
		Symbol: strings.ToUpper(best.Symbol),
		Name:   best.Name,
	}, nil
}
