package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/infra"
)

// ImageCache держит бинарники аватарок в Redis, чтобы не гонять bytea
// из Postgres на каждый GET /cards/{id}/profile-image.
// Все вызовы обернуты в Circuit Breaker: лежащий Redis не должен
// добавлять таймаут каждому запросу — выбитый предохранитель просто
// переводит чтение напрямую в базу.
type ImageCache struct {
	rdb    *redis.Client
	cb     *gobreaker.CircuitBreaker
	ttl    time.Duration
	logger *zap.Logger
}

// cachedImage — сериализованная пара (байты, mime) в одном ключе.
type cachedImage struct {
	Data []byte `json:"data"`
	Mime string `json:"mime"`
}

func NewImageCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ImageCache {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-image-cache",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &ImageCache{
		rdb:    rdb,
		cb:     cb,
		ttl:    ttl,
		logger: logger.Named("image-cache"),
	}
}

// Get возвращает (data, mime, true) при попадании.
// Промах и любой сбой Redis неразличимы для вызывающего: и то и другое — miss.
func (c *ImageCache) Get(ctx context.Context, cardID string) ([]byte, string, bool) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		raw, err := c.rdb.Get(ctx, infra.GetCardImageKey(cardID)).Bytes()
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("image cache miss due to error", zap.Error(err))
		}
		return nil, "", false
	}

	var img cachedImage
	if err := json.Unmarshal(result.([]byte), &img); err != nil {
		c.logger.Warn("corrupted cache entry", zap.String("card_id", cardID), zap.Error(err))
		return nil, "", false
	}
	return img.Data, img.Mime, true
}

// Set кладет аватарку с TTL. Ошибки не возвращаем: кэш best-effort.
func (c *ImageCache) Set(ctx context.Context, cardID string, data []byte, mime string) {
	raw, err := json.Marshal(cachedImage{Data: data, Mime: mime})
	if err != nil {
		return
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, infra.GetCardImageKey(cardID), raw, c.ttl).Err()
	})
	if err != nil {
		c.logger.Debug("image cache set failed", zap.Error(err))
	}
}

// Invalidate выбрасывает ключ после мутации или удаления визитки.
// Порядок фиксированный: сперва запись в Postgres, затем инвалидация.
func (c *ImageCache) Invalidate(ctx context.Context, cardID string) {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Del(ctx, infra.GetCardImageKey(cardID)).Err()
	})
	if err != nil {
		c.logger.Warn("image cache invalidation failed", zap.String("card_id", cardID), zap.Error(err))
	}
}
