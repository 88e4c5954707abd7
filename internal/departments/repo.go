package departments

import (
	"context"
	"strings"

	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes department persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a departments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new department.
func (r *Repository) Create(ctx context.Context, department *models.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

// FindByID loads a department by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).First(&department, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

// FindByName retrieves the department matching the name, case-insensitively.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		First(&department).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

// Exists reports whether a department with the given id is stored.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Department{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns every department ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

// Update applies name/description changes and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Department, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.Department{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes the department row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Department{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountMembers reports how many users are assigned to the department.
func (r *Repository) CountMembers(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("department_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
