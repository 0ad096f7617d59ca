package processor

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/data/repos/documents"
	"github.com/yungbote/docintel-backend/internal/data/repos/testutil"
	types "github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/modules/documents/pipeline"
	"github.com/yungbote/docintel-backend/internal/platform/dbctx"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/storage"
)

type stubRunner struct {
	calls atomic.Int32
	fn    func(path string, cats []types.Category) (*pipeline.Result, error)
}

func (s *stubRunner) Process(_ context.Context, path string, cats []types.Category) (*pipeline.Result, error) {
	s.calls.Add(1)
	return s.fn(path, cats)
}

type fixture struct {
	files documents.FileRepo
	cats  documents.CategoryRepo
	store storage.Store
	user  uuid.UUID
	file  *types.File
}

func setup(t *testing.T) fixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := logger.Nop()
	dir := t.TempDir()
	store, err := storage.New(storage.Config{UploadDir: filepath.Join(dir, "uploads"), HighlightDir: filepath.Join(dir, "files")}, nil, log)
	require.NoError(t, err)

	f := fixture{
		files: documents.NewFileRepo(gdb, log),
		cats:  documents.NewCategoryRepo(gdb, log),
		store: store,
		user:  uuid.New(),
	}
	dbc := dbctx.Context{Ctx: context.Background()}
	_, err = f.cats.Create(dbc, f.user, "Finance")
	require.NoError(t, err)
	f.file, err = f.files.Create(dbc, &types.File{UserID: f.user, OriginalFilename: "r.pdf", StoredFilename: "1_r.pdf"})
	require.NoError(t, err)
	return f
}

func (f fixture) reload(t *testing.T) *types.File {
	t.Helper()
	row, err := f.files.GetOwned(dbctx.Context{Ctx: context.Background()}, f.user, f.file.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	return row
}

func TestRunWritesResultOnce(t *testing.T) {
	f := setup(t)
	hl := filepath.Join(t.TempDir(), "highlighted_1_r.pdf")
	runner := &stubRunner{fn: func(path string, cats []types.Category) (*pipeline.Result, error) {
		require.Len(t, cats, 1)
		id := cats[0].ID
		return &pipeline.Result{
			HighlightedPath:   &hl,
			HighlightCount:    2,
			Summary:           types.DocumentSummary{FullSummary: "sum", Classification: types.Classification{Category: "Finance", Confidence: 70}},
			MatchedCategoryID: &id,
			ProcessedAt:       time.Now(),
		}, nil
	}}
	p := New(runner, f.files, f.cats, f.store, Config{Timeout: time.Minute}, logger.Nop())

	require.NoError(t, p.Run(context.Background(), Job{FileID: f.file.ID, UserID: f.user, FilePath: "uploads/1_r.pdf"}))

	row := f.reload(t)
	require.NotNil(t, row.HighlightedFilename)
	assert.Equal(t, "highlighted_1_r.pdf", *row.HighlightedFilename)
	assert.Equal(t, "sum", *row.Summary)
	assert.NotNil(t, row.CategoryID)
	assert.Equal(t, 2, row.HighlightCount)
	assert.NotNil(t, row.ProcessedAt)
}

func TestRunFailureLeavesRecordUntouched(t *testing.T) {
	f := setup(t)
	runner := &stubRunner{fn: func(string, []types.Category) (*pipeline.Result, error) {
		return nil, errors.New("upstream down")
	}}
	p := New(runner, f.files, f.cats, f.store, Config{}, logger.Nop())

	err := p.Run(context.Background(), Job{FileID: f.file.ID, UserID: f.user, FilePath: "x.pdf"})
	require.Error(t, err)

	row := f.reload(t)
	assert.Nil(t, row.Summary)
	assert.Nil(t, row.HighlightedFilename)
	assert.Nil(t, row.ProcessedAt)
}

func TestRunRecoversPanics(t *testing.T) {
	f := setup(t)
	runner := &stubRunner{fn: func(string, []types.Category) (*pipeline.Result, error) { panic("boom") }}
	p := New(runner, f.files, f.cats, f.store, Config{}, logger.Nop())

	err := p.Run(context.Background(), Job{FileID: f.file.ID, UserID: f.user})
	require.Error(t, err)
	assert.Nil(t, f.reload(t).ProcessedAt)
}

func TestEnqueueProcessesInBackground(t *testing.T) {
	f := setup(t)
	runner := &stubRunner{fn: func(string, []types.Category) (*pipeline.Result, error) {
		return &pipeline.Result{Summary: types.DocumentSummary{FullSummary: "bg"}, ProcessedAt: time.Now()}, nil
	}}
	p := New(runner, f.files, f.cats, f.store, Config{Workers: 1, QueueSize: 4}, logger.Nop())
	p.Start(context.Background())

	require.NoError(t, p.Enqueue(Job{FileID: f.file.ID, UserID: f.user, FilePath: "x.pdf"}))
	p.Stop()

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, "bg", *f.reload(t).Summary)
	assert.ErrorIs(t, p.Enqueue(Job{}), ErrStopped)
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	f := setup(t)
	p := New(&stubRunner{}, f.files, f.cats, f.store, Config{QueueSize: 1}, logger.Nop())
	require.NoError(t, p.Enqueue(Job{}))
	assert.ErrorIs(t, p.Enqueue(Job{}), ErrQueueFull)
}
