package app

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/docintel-backend/internal/modules/documents/extract"
	"github.com/yungbote/docintel-backend/internal/modules/documents/language"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pipeline"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

// Engine is the document pipeline with the clients it owns. It needs no
// database, so the CLI uses it directly.
type Engine struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  *Clients
	Pipeline *pipeline.Pipeline
}

func NewEngine(ctx context.Context, log *logger.Logger, cfg Config) (*Engine, error) {
	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Pipeline.OutputDir, 0o755); err != nil {
		clients.Close()
		return nil, fmt.Errorf("create %s: %w", cfg.Pipeline.OutputDir, err)
	}

	var opts []extract.Option
	if clients.DocAI != nil {
		opts = append(opts, extract.WithPDFSource(extract.DocumentAISource{Doc: clients.DocAI}))
		log.Info("PDF extraction uses Document AI")
	}
	ext := extract.New(clients.Cache, log, opts...)

	p := pipeline.New(clients.LLM, ext, language.NewDetector(), cfg.Pipeline, log)
	return &Engine{Log: log, Cfg: cfg, Clients: clients, Pipeline: p}, nil
}

func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.Clients.Close()
}
