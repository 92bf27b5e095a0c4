package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"techstore/internal/models"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps session state in Redis so carts survive restarts and can
// be shared across instances. Attribution uses SetNX, which gives the
// first-touch guarantee without a read-check-write race.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

func cartKey(sessionID string) string        { return fmt.Sprintf("session:%s:cart", sessionID) }
func couponKey(sessionID string) string      { return fmt.Sprintf("session:%s:coupon", sessionID) }
func attributionKey(sessionID string) string { return fmt.Sprintf("session:%s:utm", sessionID) }

func (r *RedisStore) GetCart(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	data, err := r.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var cart []models.CartItem
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return cart, nil
}

func (r *RedisStore) SaveCart(ctx context.Context, sessionID string, cart []models.CartItem) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return r.rdb.Set(ctx, cartKey(sessionID), data, r.ttl).Err()
}

func (r *RedisStore) ClearCart(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, cartKey(sessionID)).Err()
}

func (r *RedisStore) GetAppliedCoupon(ctx context.Context, sessionID string) (*models.Coupon, error) {
	data, err := r.rdb.Get(ctx, couponKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read applied coupon: %w", err)
	}

	var coupon models.Coupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return nil, fmt.Errorf("failed to decode applied coupon: %w", err)
	}
	return &coupon, nil
}

func (r *RedisStore) SetAppliedCoupon(ctx context.Context, sessionID string, coupon *models.Coupon) error {
	data, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("failed to encode coupon: %w", err)
	}
	return r.rdb.Set(ctx, couponKey(sessionID), data, r.ttl).Err()
}

func (r *RedisStore) RemoveAppliedCoupon(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, couponKey(sessionID)).Err()
}

func (r *RedisStore) CaptureAttribution(ctx context.Context, sessionID string, attr *models.Attribution) (bool, error) {
	data, err := json.Marshal(attr)
	if err != nil {
		return false, fmt.Errorf("failed to encode attribution: %w", err)
	}
	return r.rdb.SetNX(ctx, attributionKey(sessionID), data, r.ttl).Result()
}

func (r *RedisStore) GetAttribution(ctx context.Context, sessionID string) (*models.Attribution, error) {
	data, err := r.rdb.Get(ctx, attributionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attribution: %w", err)
	}

	var attr models.Attribution
	if err := json.Unmarshal(data, &attr); err != nil {
		return nil, fmt.Errorf("failed to decode attribution: %w", err)
	}
	return &attr, nil
}
