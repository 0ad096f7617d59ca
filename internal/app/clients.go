package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/docintel-backend/internal/clients/redis"
	"github.com/yungbote/docintel-backend/internal/modules/documents/extract"
	"github.com/yungbote/docintel-backend/internal/platform/gcp"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai"
)

// Clients are the external collaborators shared by the pipeline and the API.
// Redis, DocAI and Bucket are nil when not configured.
type Clients struct {
	LLM    openai.Client
	Redis  goredis.UniversalClient
	DocAI  gcp.Document
	Bucket gcp.BucketService
	Cache  extract.Cache

	memCache *extract.MemoryCache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{}

	llm, err := openai.NewClient(log, cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	c.LLM = llm

	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, log, cfg.Redis)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
		c.Cache = extract.NewRedisCache(rdb, cfg.ExtractCacheTTL)
	} else {
		mem, err := extract.NewMemoryCache(cfg.ExtractCacheMaxBytes, cfg.ExtractCacheTTL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init extraction cache: %w", err)
		}
		c.memCache = mem
		c.Cache = mem
	}

	if cfg.DocAI.Enabled() {
		doc, err := gcp.NewDocument(ctx, log, cfg.DocAI)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init document ai: %w", err)
		}
		c.DocAI = doc
	}

	if cfg.GCSBucket != "" {
		bucket, err := gcp.NewBucketService(ctx, log, cfg.GCSBucket)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init bucket client: %w", err)
		}
		c.Bucket = bucket
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.DocAI != nil {
		_ = c.DocAI.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.memCache != nil {
		c.memCache.Close()
	}
}
