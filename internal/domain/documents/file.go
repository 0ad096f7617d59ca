package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// File is an uploaded document. The processing fields stay empty until the
// pipeline has finished and are then written in a single update.
type File struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	OriginalFilename string `gorm:"column:original_filename;not null" json:"original_filename"`
	StoredFilename   string `gorm:"column:stored_filename;not null" json:"stored_filename"`
	SizeBytes        int64  `gorm:"column:size_bytes" json:"size_bytes"`

	HighlightedFilename *string        `gorm:"column:highlighted_filename" json:"highlighted_filename"`
	Summary             *string        `gorm:"column:summary" json:"summary"`
	CategoryID          *uuid.UUID     `gorm:"type:uuid;column:category_id;index" json:"category_id"`
	HighlightCount      int            `gorm:"column:highlight_count;not null;default:0" json:"highlight_count"`
	Classification      datatypes.JSON `gorm:"column:classification" json:"classification,omitempty"`
	ProcessedAt         *time.Time     `gorm:"column:processed_at;index" json:"processed_at"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (File) TableName() string { return "file" }

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ProcessingResult is the one mutation the pipeline applies to a File.
type ProcessingResult struct {
	HighlightedFilename *string
	Summary             string
	CategoryID          *uuid.UUID
	HighlightCount      int
	Classification      Classification
	ProcessedAt         time.Time
}
