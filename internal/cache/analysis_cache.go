package cache

// Package cache keeps LLM comparison results in Redis. An Ollama pass over
// the same pair of document contents always yields a reusable analysis, so
// results are keyed by the two content checksums.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"wara/internal/model"
)

// New connects to Redis and verifies the server answers a ping.
func New(ctx context.Context, addr, password string, db int) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}

	return client, nil
}

// AnalysisCache stores LLM analysis results keyed by document checksums.
type AnalysisCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewAnalysisCache(client *redisv9.Client, ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnalysisCache{client: client, ttl: ttl}
}

// Get returns the cached analysis for the checksum pair, reporting a miss
// with ok=false.
func (c *AnalysisCache) Get(ctx context.Context, baseChecksum, comparedChecksum string) (*model.LLMAnalysis, bool, error) {
	raw, err := c.client.Get(ctx, c.key(baseChecksum, comparedChecksum)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get analysis failed: %w", err)
	}

	var analysis model.LLMAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached analysis failed: %w", err)
	}
	return &analysis, true, nil
}

// Set stores the analysis for the checksum pair with the configured TTL.
func (c *AnalysisCache) Set(ctx context.Context, baseChecksum, comparedChecksum string, analysis *model.LLMAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(baseChecksum, comparedChecksum), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set analysis failed: %w", err)
	}
	return nil
}

func (c *AnalysisCache) key(baseChecksum, comparedChecksum string) string {
	return fmt.Sprintf("analysis:%s:%s", baseChecksum, comparedChecksum)
}
