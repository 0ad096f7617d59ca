// Package extract turns a supported document into plain text, caching results by
// content hash.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/observability"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

// Source extracts text from raw document bytes of one format.
type Source interface {
	Name() string
	Extract(ctx context.Context, f annotate.Format, data []byte) (string, error)
}

type Extractor struct {
	log    *logger.Logger
	cache  Cache
	native Source
	pdf    Source
	group  singleflight.Group
}

type Option func(*Extractor)

// WithPDFSource replaces the built-in PDF text reader, e.g. with Document AI.
func WithPDFSource(s Source) Option {
	return func(e *Extractor) {
		if s != nil {
			e.pdf = s
		}
	}
}

// New returns an Extractor. A nil cache disables caching.
func New(cache Cache, log *logger.Logger, opts ...Option) *Extractor {
	if cache == nil {
		cache = NopCache{}
	}
	e := &Extractor{
		log:    log.With("service", "Extractor"),
		cache:  cache,
		native: Native{},
	}
	e.pdf = e.native
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) source(f annotate.Format) Source {
	if f == annotate.FormatPDF {
		return e.pdf
	}
	return e.native
}

// Extract returns the text of the document at path. Concurrent calls for identical
// content share one extraction.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	f, err := annotate.FormatFromPath(path)
	if err != nil {
		return "", &docerr.ExtractionError{Path: path, Op: "detect format", Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", docerr.ErrNotFound, path)
		}
		return "", &docerr.ExtractionError{Path: path, Op: "read", Err: err}
	}

	src := e.source(f)
	key := CacheKey(src.Name(), data)

	ch := e.group.DoChan(key, func() (any, error) {
		if text, ok, err := e.cache.Get(ctx, key); err != nil {
			e.log.Warn("Extraction cache read failed", "key", key, "error", err)
		} else if ok {
			observability.Current().IncExtractCache(true)
			e.log.Debug("Extraction cache hit", "path", path, "key", key)
			return text, nil
		}
		observability.Current().IncExtractCache(false)

		text, err := src.Extract(ctx, f, data)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", docerr.ErrEmptyDocument
		}
		if err := e.cache.Set(ctx, key, text); err != nil {
			e.log.Warn("Extraction cache write failed", "key", key, "error", err)
		}
		e.log.Info("Document extracted", "path", path, "source", src.Name(), "chars", len(text))
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", &docerr.ExtractionError{Path: path, Op: "extract", Err: ctx.Err()}
	case r := <-ch:
		if r.Err != nil {
			var up *docerr.UpstreamError
			if errors.As(r.Err, &up) {
				return "", &docerr.UpstreamError{Path: path, Op: up.Op, Err: up.Err}
			}
			return "", &docerr.ExtractionError{Path: path, Op: "extract " + string(f), Err: r.Err}
		}
		return r.Val.(string), nil
	}
}

// CacheKey identifies extracted text by source and content, never by path.
func CacheKey(source string, data []byte) string {
	sum := sha256.Sum256(data)
	return "extract:" + source + ":" + hex.EncodeToString(sum[:])
}
