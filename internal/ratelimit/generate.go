package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meddor/scribe/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyGeneratePerAccount = "generate:account:%s"

// GenerateLimiter throttles summary generation per account. A nil limiter
// allows everything, so the gateway works unchanged when rate limiting is
// disabled.
type GenerateLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewGenerateLimiter(cfg config.Config) (*GenerateLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.GenerateRate <= 0 || limitCfg.GenerateBurst <= 0 {
		return nil, errors.New("generate rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &GenerateLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.GenerateRate,
		burst:  limitCfg.GenerateBurst,
	}, nil
}

func (l *GenerateLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *GenerateLimiter) Allow(ctx context.Context, email string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf(keyGeneratePerAccount, strings.ToLower(strings.TrimSpace(email)))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
