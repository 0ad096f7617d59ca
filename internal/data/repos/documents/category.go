package documents

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/docintel-backend/internal/domain/documents"
	"github.com/yungbote/docintel-backend/internal/platform/dbctx"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

var ErrDuplicateCategory = errors.New("category already exists")

type CategoryRepo interface {
	Create(dbc dbctx.Context, userID uuid.UUID, name string) (*types.Category, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Category, error)
	// DeleteOwned reports whether a row owned by userID was deleted.
	DeleteOwned(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(dbc dbctx.Context, userID uuid.UUID, name string) (*types.Category, error) {
	row := &types.Category{UserID: userID, Name: strings.TrimSpace(name)}
	t := dbc.DB(r.db)

	var n int64
	if err := t.Model(&types.Category{}).Where("user_id = ? AND name = ?", userID, row.Name).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateCategory
	}
	if err := t.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *categoryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Category, error) {
	var out []*types.Category
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) DeleteOwned(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&types.Category{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
