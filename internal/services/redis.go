package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gobag/gobag-backend/internal/models"
)

var RedisClient *redis.Client

// ErrCacheUnavailable is returned when Redis is not configured or the
// requested key is absent. Callers treat it as a cache miss.
var ErrCacheUnavailable = errors.New("cache unavailable")

const (
	activeTripsCacheKey = "trips:active"
	activeTripsCacheTTL = 2 * time.Minute
	bookingStatusTTL    = time.Hour
)

// InitRedis initializes the Redis client from the configured URL
func InitRedis(redisURL string) error {
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheActiveTrips stores the active trip listing snapshot
func CacheActiveTrips(ctx context.Context, trips []models.Trip) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}

	data, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, activeTripsCacheKey, data, activeTripsCacheTTL).Err()
}

// GetCachedActiveTrips retrieves the active trip listing snapshot
func GetCachedActiveTrips(ctx context.Context) ([]models.Trip, error) {
	if RedisClient == nil {
		return nil, ErrCacheUnavailable
	}

	data, err := RedisClient.Get(ctx, activeTripsCacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheUnavailable
		}
		return nil, err
	}

	var trips []models.Trip
	if err := json.Unmarshal([]byte(data), &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// InvalidateTripCache drops the active trip listing snapshot after any
// trip or booking mutation
func InvalidateTripCache(ctx context.Context) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}
	return RedisClient.Del(ctx, activeTripsCacheKey).Err()
}

// CacheBookingStatus stores a booking's status pair for cheap polling
func CacheBookingStatus(ctx context.Context, bookingID uint, status models.BookingStatus, payment models.PaymentStatus) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}

	data, err := json.Marshal(map[string]string{
		"status":        string(status),
		"paymentStatus": string(payment),
	})
	if err != nil {
		return err
	}

	key := fmt.Sprintf("booking:status:%d", bookingID)
	return RedisClient.Set(ctx, key, data, bookingStatusTTL).Err()
}

// GetCachedBookingStatus retrieves a booking's cached status pair
func GetCachedBookingStatus(ctx context.Context, bookingID uint) (models.BookingStatus, models.PaymentStatus, error) {
	if RedisClient == nil {
		return "", "", ErrCacheUnavailable
	}

	key := fmt.Sprintf("booking:status:%d", bookingID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", ErrCacheUnavailable
		}
		return "", "", err
	}

	var pair map[string]string
	if err := json.Unmarshal([]byte(data), &pair); err != nil {
		return "", "", err
	}
	return models.BookingStatus(pair["status"]), models.PaymentStatus(pair["paymentStatus"]), nil
}

// BlacklistToken voids a JWT until its natural expiry so logout is
// effective server-side
func BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	if RedisClient == nil {
		return ErrCacheUnavailable
	}
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf("auth:blacklist:%s", token)
	return RedisClient.Set(ctx, key, "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a JWT was voided by logout
func IsTokenBlacklisted(ctx context.Context, token string) bool {
	if RedisClient == nil {
		return false
	}
	key := fmt.Sprintf("auth:blacklist:%s", token)
	n, err := RedisClient.Exists(ctx, key).Result()
	if err != nil {
		return false
	}
	return n > 0
}
