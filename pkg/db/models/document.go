package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docurail/metrodocs-backend/pkg/enums"
)

// Document captures an uploaded file plus the enrichment produced by the
// processing pipeline. Metadata holds the pipeline's raw JSON payload.
type Document struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DepartmentID     uuid.UUID            `gorm:"column:department_id;type:uuid;not null;index"`
	UploadedBy       uuid.UUID            `gorm:"column:uploaded_by;type:uuid;not null;index"`
	Title            string               `gorm:"column:title;not null"`
	FileName         string               `gorm:"column:file_name;not null"`
	FilePath         string               `gorm:"column:file_path;not null;unique"`
	ContentType      string               `gorm:"column:content_type;not null"`
	FileSize         int64                `gorm:"column:file_size;not null"`
	Summary          string               `gorm:"column:summary"`
	Classification   enums.Classification `gorm:"column:classification;type:text"`
	Metadata         string               `gorm:"column:metadata"`
	TranslatedText   string               `gorm:"column:translated_text"`
	DetectedLanguage string               `gorm:"column:detected_language"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
