package documents

import (
	"context"

	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes document persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a documents repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new document row.
func (r *Repository) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

// FindByID loads a document by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).First(&document, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

type listDocumentsParams struct {
	DepartmentID *uuid.UUID
	Limit        int
	Cursor       *pagination.Cursor
}

// List returns documents newest first with cursor pagination, optionally
// scoped to one department.
func (r *Repository) List(ctx context.Context, params listDocumentsParams) ([]models.Document, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Document{})
	if params.DepartmentID != nil {
		query = query.Where("department_id = ?", *params.DepartmentID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var documents []models.Document
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&documents).Error; err != nil {
		return nil, nil, err
	}

	if len(documents) > normalized {
		documents = documents[:normalized]
		last := documents[normalized-1]
		return documents, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return documents, nil, nil
}

// Delete removes the document row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
