package documents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/docintel-backend/internal/data/repos/testutil"
	types "github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/platform/dbctx"
)

func dbc() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func TestCategoryRepo(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewCategoryRepo(gdb, testutil.Logger(t))
	alice, bob := uuid.New(), uuid.New()

	c, err := repo.Create(dbc(), alice, "  Finance ")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, "Finance", c.Name)

	_, err = repo.Create(dbc(), alice, "Finance")
	assert.ErrorIs(t, err, ErrDuplicateCategory)
	_, err = repo.Create(dbc(), bob, "Finance")
	require.NoError(t, err)

	list, err := repo.ListByUser(dbc(), alice)
	require.NoError(t, err)
	require.Len(t, list, 1)

	ok, err := repo.DeleteOwned(dbc(), bob, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.DeleteOwned(dbc(), alice, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileRepoApplyProcessingResult(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewFileRepo(gdb, testutil.Logger(t))
	user := uuid.New()

	f, err := repo.Create(dbc(), &types.File{UserID: user, OriginalFilename: "a.pdf", StoredFilename: "1_a.pdf"})
	require.NoError(t, err)

	got, err := repo.GetOwned(dbc(), user, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.ProcessedAt)

	hl := "highlighted_1_a.pdf"
	cat := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.ApplyProcessingResult(dbc(), f.ID, types.ProcessingResult{
		HighlightedFilename: &hl,
		Summary:             "A summary.",
		CategoryID:          &cat,
		HighlightCount:      3,
		Classification:      types.Classification{Category: "Finance", Confidence: 80, Rationale: "numbers"},
		ProcessedAt:         now,
	}))

	got, err = repo.GetOwned(dbc(), user, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HighlightedFilename)
	assert.Equal(t, hl, *got.HighlightedFilename)
	assert.Equal(t, "A summary.", *got.Summary)
	assert.Equal(t, cat, *got.CategoryID)
	assert.Equal(t, 3, got.HighlightCount)
	assert.JSONEq(t, `{"category":"Finance","confidence":80,"explanation":"numbers"}`, string(got.Classification))
	require.NotNil(t, got.ProcessedAt)

	err = repo.ApplyProcessingResult(dbc(), uuid.New(), types.ProcessingResult{})
	assert.Error(t, err)
}

func TestFileRepoOwnership(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewFileRepo(gdb, testutil.Logger(t))
	owner, other := uuid.New(), uuid.New()

	f, err := repo.Create(dbc(), &types.File{UserID: owner, OriginalFilename: "b.docx", StoredFilename: "2_b.docx"})
	require.NoError(t, err)

	got, err := repo.GetOwned(dbc(), other, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := repo.ListByUser(dbc(), owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	ok, err := repo.DeleteOwned(dbc(), other, f.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.DeleteOwned(dbc(), owner, f.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.GetOwned(dbc(), owner, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
