package documents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/enums"
)

// DocumentDTO is the transport shape for a stored document.
type DocumentDTO struct {
	ID               uuid.UUID            `json:"id"`
	DepartmentID     uuid.UUID            `json:"department_id"`
	UploadedBy       uuid.UUID            `json:"uploaded_by"`
	Title            string               `json:"title"`
	FileName         string               `json:"file_name"`
	ContentType      string               `json:"content_type"`
	FileSize         int64                `json:"file_size"`
	Summary          string               `json:"summary,omitempty"`
	Classification   enums.Classification `json:"classification,omitempty"`
	Metadata         json.RawMessage      `json:"metadata,omitempty"`
	TranslatedText   string               `json:"translated_text,omitempty"`
	DetectedLanguage string               `json:"detected_language,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

func fromModel(d *models.Document) *DocumentDTO {
	if d == nil {
		return nil
	}
	dto := &DocumentDTO{
		ID:               d.ID,
		DepartmentID:     d.DepartmentID,
		UploadedBy:       d.UploadedBy,
		Title:            d.Title,
		FileName:         d.FileName,
		ContentType:      d.ContentType,
		FileSize:         d.FileSize,
		Summary:          d.Summary,
		Classification:   d.Classification,
		TranslatedText:   d.TranslatedText,
		DetectedLanguage: d.DetectedLanguage,
		CreatedAt:        d.CreatedAt,
	}
	if d.Metadata != "" && json.Valid([]byte(d.Metadata)) {
		dto.Metadata = json.RawMessage(d.Metadata)
	}
	return dto
}
