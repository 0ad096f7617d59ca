// Package redis builds the shared go-redis client from the environment.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/docintel-backend/internal/platform/envutil"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type Config struct {
	// Addrs holds one address, or several for a cluster.
	Addrs    []string
	Password string
	DB       int
}

// ConfigFromEnv reads REDIS_ADDR (comma separated), REDIS_PASSWORD and REDIS_DB.
func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Addrs:    envutil.List("REDIS_ADDR", nil),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0, log),
	}
}

func (c Config) Enabled() bool { return len(c.Addrs) > 0 }

// NewClient connects and pings. The caller closes the client.
func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (goredis.UniversalClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:       cfg.Addrs,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("Redis connected", "addrs", strings.Join(cfg.Addrs, ","), "db", cfg.DB)
	return rdb, nil
}
