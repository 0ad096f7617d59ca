// Package documents exposes the user-facing document operations: categories,
// uploads and access to original and highlighted files.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	docrepos "github.com/yungbote/docintel-backend/internal/data/repos/documents"
	types "github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/processor"
	"github.com/yungbote/docintel-backend/internal/platform/apierr"
	"github.com/yungbote/docintel-backend/internal/platform/dbctx"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/storage"
)

const maxCategoryName = 100

// Enqueuer is satisfied by *processor.Processor.
type Enqueuer interface {
	Enqueue(job processor.Job) error
}

type UsecasesDeps struct {
	Log        *logger.Logger
	Files      docrepos.FileRepo
	Categories docrepos.CategoryRepo
	Store      storage.Store
	Queue      Enqueuer
	// Now defaults to time.Now.
	Now func() time.Time
}

type Usecases struct {
	deps UsecasesDeps
	log  *logger.Logger
}

func NewUsecases(deps UsecasesDeps) Usecases {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return Usecases{deps: deps, log: deps.Log.With("service", "DocumentUsecases")}
}

func (u Usecases) CreateCategory(ctx context.Context, userID uuid.UUID, name string) (*types.Category, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_name", fmt.Errorf("category name is required"))
	}
	if len(name) > maxCategoryName {
		return nil, apierr.New(http.StatusBadRequest, "invalid_name", fmt.Errorf("category name exceeds %d characters", maxCategoryName))
	}
	row, err := u.deps.Categories.Create(dbctx.Context{Ctx: ctx}, userID, name)
	if errors.Is(err, docrepos.ErrDuplicateCategory) {
		return nil, apierr.New(http.StatusConflict, "category_exists", err)
	}
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "create_category_failed", err)
	}
	return row, nil
}

func (u Usecases) ListCategories(ctx context.Context, userID uuid.UUID) ([]*types.Category, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	rows, err := u.deps.Categories.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_categories_failed", err)
	}
	return rows, nil
}

func (u Usecases) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil {
		return apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	ok, err := u.deps.Categories.DeleteOwned(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "delete_category_failed", err)
	}
	if !ok {
		return apierr.New(http.StatusNotFound, "category_not_found", nil)
	}
	return nil
}

type UploadInput struct {
	UserID   uuid.UUID
	Filename string
	Body     io.Reader
}

// Upload stores the document, creates its record and queues it for processing.
// The pipeline needs at least one category to classify against.
func (u Usecases) Upload(ctx context.Context, in UploadInput) (*types.File, error) {
	if in.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if strings.TrimSpace(in.Filename) == "" || in.Body == nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_file", nil)
	}
	if _, err := annotate.FormatFromPath(in.Filename); err != nil {
		return nil, apierr.New(http.StatusUnsupportedMediaType, "unsupported_format", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	cats, err := u.deps.Categories.ListByUser(dbc, in.UserID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_categories_failed", err)
	}
	if len(cats) == 0 {
		return nil, apierr.New(http.StatusNotFound, "no_categories", fmt.Errorf("create a category before uploading"))
	}

	stored := storage.StoredName(in.Filename, u.deps.Now())
	size, err := u.deps.Store.Save(ctx, storage.KindUpload, stored, in.Body)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "store_file_failed", err)
	}

	row, err := u.deps.Files.Create(dbc, &types.File{
		UserID:           in.UserID,
		OriginalFilename: in.Filename,
		StoredFilename:   stored,
		SizeBytes:        size,
	})
	if err != nil {
		u.removeStored(ctx, storage.KindUpload, stored)
		return nil, apierr.New(http.StatusInternalServerError, "create_file_failed", err)
	}

	err = u.deps.Queue.Enqueue(processor.Job{
		FileID:   row.ID,
		UserID:   in.UserID,
		FilePath: u.deps.Store.Path(storage.KindUpload, stored),
	})
	if err != nil {
		if _, derr := u.deps.Files.DeleteOwned(dbc, in.UserID, row.ID); derr != nil {
			u.log.Warn("Rolling back file row failed", "file_id", row.ID, "error", derr)
		}
		u.removeStored(ctx, storage.KindUpload, stored)
		if errors.Is(err, processor.ErrQueueFull) {
			return nil, apierr.New(http.StatusServiceUnavailable, "processing_busy", err)
		}
		return nil, apierr.New(http.StatusServiceUnavailable, "processing_unavailable", err)
	}

	u.log.Info("Document uploaded", "file_id", row.ID, "user_id", in.UserID, "size_bytes", size)
	return row, nil
}

func (u Usecases) ListFiles(ctx context.Context, userID uuid.UUID) ([]*types.File, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	rows, err := u.deps.Files.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_files_failed", err)
	}
	return rows, nil
}

func (u Usecases) GetFile(ctx context.Context, userID, id uuid.UUID) (*types.File, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	row, err := u.deps.Files.GetOwned(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_file_failed", err)
	}
	if row == nil {
		return nil, apierr.New(http.StatusNotFound, "file_not_found", nil)
	}
	return row, nil
}

// Download is an open stored file. The caller closes Body.
type Download struct {
	Name string
	Body io.ReadCloser
}

// Open returns the original upload, or the highlighted copy once processing
// produced one.
func (u Usecases) Open(ctx context.Context, userID, id uuid.UUID, kind storage.Kind) (*Download, error) {
	row, err := u.GetFile(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	name, stored := row.OriginalFilename, row.StoredFilename
	if kind == storage.KindHighlighted {
		if row.HighlightedFilename == nil || *row.HighlightedFilename == "" {
			return nil, apierr.New(http.StatusNotFound, "highlight_not_available", nil)
		}
		name, stored = highlightedName(row.OriginalFilename), *row.HighlightedFilename
	}

	rc, err := u.deps.Store.Open(ctx, kind, stored)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierr.New(http.StatusNotFound, "stored_file_missing", err)
	}
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "open_file_failed", err)
	}
	return &Download{Name: name, Body: rc}, nil
}

// DeleteFile removes the record, then the stored upload and highlighted copy.
func (u Usecases) DeleteFile(ctx context.Context, userID, id uuid.UUID) error {
	row, err := u.GetFile(ctx, userID, id)
	if err != nil {
		return err
	}
	ok, err := u.deps.Files.DeleteOwned(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "delete_file_failed", err)
	}
	if !ok {
		return apierr.New(http.StatusNotFound, "file_not_found", nil)
	}
	u.removeStored(ctx, storage.KindUpload, row.StoredFilename)
	if row.HighlightedFilename != nil && *row.HighlightedFilename != "" {
		u.removeStored(ctx, storage.KindHighlighted, *row.HighlightedFilename)
	}
	return nil
}

func (u Usecases) removeStored(ctx context.Context, kind storage.Kind, name string) {
	if err := u.deps.Store.Delete(ctx, kind, name); err != nil {
		u.log.Warn("Removing stored file failed", "kind", string(kind), "name", name, "error", err)
	}
}

func highlightedName(original string) string {
	return annotate.OutputPath("", original)
}
