package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Drivers accepted by New
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Cache stores generated explanations so repeated questions skip the model
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Config selects and configures a cache backend
type Config struct {
	Driver        string
	MaxEntries    int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// New builds the cache for the configured driver
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverMemory:
		return NewMemoryCache(cfg.MaxEntries, cfg.TTL), nil
	case DriverRedis:
		rc, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return rc, nil
	case DriverNone:
		return NopCache{}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Key hashes the parts into a fixed-length cache key
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "explain:" + hex.EncodeToString(h.Sum(nil))
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopCache) Close() error                                              { return nil }
