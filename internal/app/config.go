package app

import (
	"time"

	"github.com/yungbote/docintel-backend/internal/clients/redis"
	"github.com/yungbote/docintel-backend/internal/data/db"
	"github.com/yungbote/docintel-backend/internal/http/handlers"
	"github.com/yungbote/docintel-backend/internal/http/middleware"
	"github.com/yungbote/docintel-backend/internal/modules/documents/chunker"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pipeline"
	"github.com/yungbote/docintel-backend/internal/modules/documents/processor"
	"github.com/yungbote/docintel-backend/internal/platform/envutil"
	"github.com/yungbote/docintel-backend/internal/platform/gcp"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/openai"
	"github.com/yungbote/docintel-backend/internal/platform/storage"
)

type Config struct {
	ServiceName string
	Environment string
	Port        string
	CORSOrigins []string

	Postgres db.PostgresConfig
	Redis    redis.Config
	OpenAI   openai.Config
	DocAI    gcp.DocumentConfig
	// GCSBucket enables the storage mirror when set.
	GCSBucket string

	ExtractCacheTTL      time.Duration
	ExtractCacheMaxBytes int64

	Pipeline       pipeline.Config
	Processor      processor.Config
	Storage        storage.Config
	MaxUploadBytes int64

	NewsDatasetPath string
}

// LoadConfig reads every setting from the environment.
func LoadConfig(log *logger.Logger) Config {
	highlightDir := envutil.String("HIGHLIGHT_DIR", "files")
	return Config{
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "docintel"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Port:        envutil.String("PORT", "8080"),
		CORSOrigins: envutil.List("CORS_ALLOW_ORIGINS", middleware.DefaultAllowOrigins),

		Postgres:  db.PostgresConfigFromEnv(),
		Redis:     redis.ConfigFromEnv(log),
		OpenAI:    openai.ConfigFromEnv(log),
		DocAI:     gcp.DocumentConfigFromEnv(),
		GCSBucket: envutil.String("GCS_BUCKET", ""),

		ExtractCacheTTL:      envutil.Duration("EXTRACT_CACHE_TTL", 24*time.Hour, log),
		ExtractCacheMaxBytes: int64(envutil.Int("EXTRACT_CACHE_MAX_BYTES", 256<<20, log)),

		Pipeline: pipeline.Config{
			Highlight: chunker.Config{
				MaxSize: envutil.Int("HIGHLIGHT_CHUNK_SIZE", chunker.HighlightDefaults.MaxSize, log),
				Overlap: envutil.Int("HIGHLIGHT_CHUNK_OVERLAP", chunker.HighlightDefaults.Overlap, log),
			},
			Summary: chunker.Config{
				MaxSize: envutil.Int("SUMMARY_CHUNK_SIZE", chunker.SummaryDefaults.MaxSize, log),
				Overlap: envutil.Int("SUMMARY_CHUNK_OVERLAP", chunker.SummaryDefaults.Overlap, log),
			},
			OutputDir:        highlightDir,
			ChunkConcurrency: envutil.Int("CHUNK_CONCURRENCY", 0, log),
		},
		Processor: processor.Config{
			Workers:   envutil.Int("PROCESS_WORKERS", 2, log),
			QueueSize: envutil.Int("PROCESS_QUEUE_SIZE", 64, log),
			Timeout:   envutil.Duration("PROCESS_TIMEOUT", 15*time.Minute, log),
		},
		Storage: storage.Config{
			UploadDir:    envutil.String("UPLOAD_DIR", "uploads"),
			HighlightDir: highlightDir,
		},
		MaxUploadBytes: int64(envutil.Int("MAX_UPLOAD_BYTES", handlers.DefaultMaxUploadBytes, log)),

		NewsDatasetPath: envutil.String("NEWS_DATASET_PATH", ""),
	}
}
