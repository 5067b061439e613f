package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/rocket-cart/internal/core/domain"
)

const stockKeyPrefix = "stock:"

var ErrStockNotFound = errors.New("stock not found")

// RedisAdapter keeps the cart snapshot under a single key and can serve
// stock levels kept under stock:<id>.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Read(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (r *RedisAdapter) Write(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAdapter) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	amount, err := r.client.Get(ctx, stockKey(productID)).Int()
	if errors.Is(err, redis.Nil) {
		return domain.Stock{}, fmt.Errorf("product %d: %w", productID, ErrStockNotFound)
	}
	if err != nil {
		return domain.Stock{}, fmt.Errorf("redis get stock: %w", err)
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (r *RedisAdapter) SetStock(ctx context.Context, productID int64, amount int) error {
	return r.client.Set(ctx, stockKey(productID), amount, 0).Err()
}

func stockKey(productID int64) string {
	return stockKeyPrefix + strconv.FormatInt(productID, 10)
}
