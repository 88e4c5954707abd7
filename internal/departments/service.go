package departments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docurail/metrodocs-backend/pkg/db"
	"github.com/docurail/metrodocs-backend/pkg/db/models"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines department management operations.
type Service interface {
	Create(ctx context.Context, req CreateDepartmentRequest) (*DepartmentDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DepartmentDTO, error)
	List(ctx context.Context) ([]DepartmentDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateDepartmentRequest) (*DepartmentDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type departmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	FindByName(ctx context.Context, name string) (*models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Department, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountMembers(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo departmentRepository
}

// DepartmentDTO is the transport shape for a department.
type DepartmentDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// UpdateDepartmentRequest carries the mutable department fields.
type UpdateDepartmentRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// NewService wires department dependencies.
func NewService(repo departmentRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("departments repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, req CreateDepartmentRequest) (*DepartmentDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "department name is required")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "department already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup department")
	}

	department := &models.Department{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, department); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "department already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create department")
	}
	return fromModel(department), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DepartmentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "department id required")
	}
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "department not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup department")
	}
	return fromModel(department), nil
}

func (s *service) List(ctx context.Context) ([]DepartmentDTO, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list departments")
	}
	dtos := make([]DepartmentDTO, 0, len(departments))
	for i := range departments {
		dtos = append(dtos, *fromModel(&departments[i]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateDepartmentRequest) (*DepartmentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "department id required")
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "department name is required")
		}
		if existing, err := s.repo.FindByName(ctx, name); err == nil && existing.ID != id {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "department already exists")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup department")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}

	department, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "department not found")
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "department already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update department")
	}
	return fromModel(department), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "department id required")
	}

	members, err := s.repo.CountMembers(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	if members > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "department still has members")
	}

	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete department")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "department not found")
	}
	return nil
}

func fromModel(d *models.Department) *DepartmentDTO {
	if d == nil {
		return nil
	}
	return &DepartmentDTO{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
