package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ndanilin/coindash_bot/config"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/utils"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	priceKeyTemplate = "price:%s"
	chartKeyTemplate = "chart:%s:%d"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetPrices(ctx context.Context, prices map[string]decimal.Decimal) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetPrices start", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for instrumentID, price := range prices {
		pipe.Set(ctx, fmt.Sprintf(priceKeyTemplate, instrumentID), price.String(), r.cfg.Cache.PricesExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetPrices completed", slog.String("rqID", rqID))

	return nil
}

// GetPrices returns cached prices for all requested instruments. A single
// missing instrument is a cache miss for the whole lookup - the caller goes
// to the API and refreshes everything at once.
func (r *RedisCache) GetPrices(ctx context.Context, instrumentIDs []string) (map[string]decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetPrices start", slog.String("rqID", rqID))

	if len(instrumentIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	keys := make([]string, 0, len(instrumentIDs))
	for _, instrumentID := range instrumentIDs {
		keys = append(keys, fmt.Sprintf(priceKeyTemplate, instrumentID))
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Error("failed on redis.MGet", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(instrumentIDs))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			return nil, ErrCacheMiss
		}

		price, err := decimal.NewFromString(raw)
		if err != nil {
			slog.Error("can't parse cached price", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("raw", raw))
			return nil, ErrCacheMiss
		}

		prices[instrumentIDs[i]] = price
	}

	slog.Debug("GetPrices completed", slog.String("rqID", rqID))

	return prices, nil
}

func (r *RedisCache) SetChart(ctx context.Context, instrumentID string, days int, points []model.PricePoint) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetChart start", slog.String("rqID", rqID), slog.String("instrumentID", instrumentID))

	pointsJson, err := json.Marshal(points)
	if err != nil {
		slog.Error(
			"can't marshall points in SetChart",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("instrumentID", instrumentID),
		)
		return errors.New("can't marshall points")
	}

	key := fmt.Sprintf(chartKeyTemplate, instrumentID, days)
	_, err = r.redis.Set(ctx, key, pointsJson, r.cfg.Cache.ChartsExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return err
	}

	slog.Debug("SetChart completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetChart(ctx context.Context, instrumentID string, days int) ([]model.PricePoint, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetChart start", slog.String("rqID", rqID), slog.String("instrumentID", instrumentID))

	key := fmt.Sprintf(chartKeyTemplate, instrumentID, days)
	res, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return nil, err
	}

	var points []model.PricePoint
	err = json.Unmarshal([]byte(res), &points)
	if err != nil {
		slog.Error(
			"can't unmarshall points in GetChart",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return nil, errors.New("can't unmarshall points")
	}

	slog.Debug("GetChart completed", slog.String("rqID", rqID))

	return points, nil
}
