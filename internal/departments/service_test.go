package departments

import (
	"context"
	"testing"

	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Department{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateTrimsName(t *testing.T) {
	svc, _ := newTestService(t)

	dto, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "  Track Operations  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Track Operations" {
		t.Fatalf("unexpected name %q", dto.Name)
	}
}

func TestCreateRejectsCaseInsensitiveDuplicate(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "Track Operations"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "track operations"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateAllowsSameNameDifferentCase(t *testing.T) {
	svc, _ := newTestService(t)

	dto, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "Track Operations"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	name := "TRACK OPERATIONS"
	updated, err := svc.Update(context.Background(), dto.ID, UpdateDepartmentRequest{Name: &name})
	if err != nil {
		t.Fatalf("renaming to own name should pass: %v", err)
	}
	if updated.Name != "TRACK OPERATIONS" {
		t.Fatalf("unexpected name %q", updated.Name)
	}
}

func TestUpdateRejectsTakenName(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "Track Operations"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	second, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "Rolling Stock"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	name := "Track operations"
	_, err = svc.Update(context.Background(), second.ID, UpdateDepartmentRequest{Name: &name})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteBlockedWhileMembersRemain(t *testing.T) {
	svc, repo := newTestService(t)

	dto, err := svc.Create(context.Background(), CreateDepartmentRequest{Name: "Track Operations"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	member := &models.User{
		Name:         "Dana Ops",
		Email:        "dana@metrorail.example",
		PasswordHash: "$argon2id$hash",
		Role:         enums.UserRoleEmployee,
		DepartmentID: &dto.ID,
		IsActive:     true,
	}
	if err := repo.db.Create(member).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}

	if err := svc.Delete(context.Background(), dto.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := repo.db.Delete(member).Error; err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if err := svc.Delete(context.Background(), dto.ID); err != nil {
		t.Fatalf("delete after members removed: %v", err)
	}
}

func TestGetMissingDepartment(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
