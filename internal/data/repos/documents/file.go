package documents

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/platform/dbctx"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type FileRepo interface {
	Create(dbc dbctx.Context, row *types.File) (*types.File, error)
	GetOwned(dbc dbctx.Context, userID, id uuid.UUID) (*types.File, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.File, error)
	// ApplyProcessingResult writes every processing field in one UPDATE.
	ApplyProcessingResult(dbc dbctx.Context, id uuid.UUID, res types.ProcessingResult) error
	DeleteOwned(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
}

type fileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
	return &fileRepo{db: db, log: baseLog.With("repo", "FileRepo")}
}

func (r *fileRepo) Create(dbc dbctx.Context, row *types.File) (*types.File, error) {
	if row == nil {
		return nil, fmt.Errorf("nil file")
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetOwned returns nil, nil when the file does not exist or belongs to someone else.
func (r *fileRepo) GetOwned(dbc dbctx.Context, userID, id uuid.UUID) (*types.File, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.File
	err := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *fileRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.File, error) {
	var out []*types.File
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fileRepo) ApplyProcessingResult(dbc dbctx.Context, id uuid.UUID, res types.ProcessingResult) error {
	cls, err := json.Marshal(res.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	summary := res.Summary
	processedAt := res.ProcessedAt
	updates := map[string]interface{}{
		"highlighted_filename": res.HighlightedFilename,
		"summary":              &summary,
		"category_id":          res.CategoryID,
		"highlight_count":      res.HighlightCount,
		"classification":       datatypes.JSON(cls),
		"processed_at":         &processedAt,
	}
	q := dbc.DB(r.db).Model(&types.File{}).Where("id = ?", id).Updates(updates)
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *fileRepo) DeleteOwned(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&types.File{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
