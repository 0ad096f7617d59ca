// Package storage keeps uploaded and highlighted documents on local disk and optionally
// mirrors them to a GCS bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/docintel-backend/internal/platform/gcp"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type Kind string

const (
	KindUpload      Kind = "uploads"
	KindHighlighted Kind = "highlighted"
)

var ErrNotFound = errors.New("stored file not found")

type Store interface {
	// Path is the local path of name; the file may not exist.
	Path(kind Kind, name string) string
	Save(ctx context.Context, kind Kind, name string, r io.Reader) (int64, error)
	// Publish mirrors an already written local file.
	Publish(ctx context.Context, kind Kind, name string) error
	Open(ctx context.Context, kind Kind, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, kind Kind, name string) error
}

type Config struct {
	UploadDir    string
	HighlightDir string
}

type localStore struct {
	log    *logger.Logger
	cfg    Config
	mirror gcp.BucketService
}

// New returns a disk store. mirror may be nil.
func New(cfg Config, mirror gcp.BucketService, log *logger.Logger) (Store, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.HighlightDir} {
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("storage directory not configured")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &localStore{log: log.With("service", "FileStore"), cfg: cfg, mirror: mirror}, nil
}

// StoredName prefixes the sanitized original name with a nanosecond timestamp.
func StoredName(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, base)
	if base == "." || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d_%s", now.UnixNano(), base)
}

func (s *localStore) dir(kind Kind) string {
	if kind == KindHighlighted {
		return s.cfg.HighlightDir
	}
	return s.cfg.UploadDir
}

func (s *localStore) Path(kind Kind, name string) string {
	return filepath.Join(s.dir(kind), filepath.Base(name))
}

func objectKey(kind Kind, name string) string {
	return path.Join(string(kind), filepath.Base(name))
}

func (s *localStore) Save(ctx context.Context, kind Kind, name string, r io.Reader) (int64, error) {
	dest := s.Path(kind, name)
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	if err := s.Publish(ctx, kind, name); err != nil {
		return n, err
	}
	return n, nil
}

func (s *localStore) Publish(ctx context.Context, kind Kind, name string) error {
	if s.mirror == nil {
		return nil
	}
	f, err := os.Open(s.Path(kind, name))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := s.mirror.UploadFile(ctx, objectKey(kind, name), f); err != nil {
		return fmt.Errorf("mirror %s: %w", name, err)
	}
	s.log.Debug("Mirrored file", "kind", string(kind), "name", name)
	return nil
}

func (s *localStore) Open(ctx context.Context, kind Kind, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(kind, name))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if s.mirror == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rc, err := s.mirror.DownloadFile(ctx, objectKey(kind, name))
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return rc, err
}

func (s *localStore) Delete(ctx context.Context, kind Kind, name string) error {
	if err := os.Remove(s.Path(kind, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if s.mirror != nil {
		return s.mirror.DeleteFile(ctx, objectKey(kind, name))
	}
	return nil
}
