package documents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docurail/metrodocs-backend/pkg/ai"
	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/pubsub"
	"github.com/docurail/metrodocs-backend/pkg/storage/disk"
)

type stubEnricher struct {
	enrichment *ai.Enrichment
	err        error
	calls      int
}

func (s *stubEnricher) ProcessDocument(_ context.Context, _, _ string, _ io.Reader) (*ai.Enrichment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.enrichment, nil
}

type stubPublisher struct {
	events []pubsub.DocumentEvent
	err    error
}

func (s *stubPublisher) PublishDocumentEvent(_ context.Context, event pubsub.DocumentEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type stubAdmins struct {
	admins []models.User
}

func (s stubAdmins) ListByRole(_ context.Context, _ enums.UserRole) ([]models.User, error) {
	return s.admins, nil
}

type stubDepartments struct {
	exists bool
}

func (s stubDepartments) Exists(_ context.Context, _ uuid.UUID) (bool, error) {
	return s.exists, nil
}

type recordedNotification struct {
	userID uuid.UUID
	kind   string
}

type stubNotifier struct {
	sent []recordedNotification
}

func (s *stubNotifier) Notify(_ context.Context, userID uuid.UUID, kind, _, _ string) error {
	s.sent = append(s.sent, recordedNotification{userID: userID, kind: kind})
	return nil
}

type testEnv struct {
	svc       Service
	enricher  *stubEnricher
	publisher *stubPublisher
	notifier  *stubNotifier
	adminID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Document{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := disk.NewStore(config.UploadsConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	enricher := &stubEnricher{enrichment: &ai.Enrichment{
		Summary:          "Quarterly inspection plan for Line 2.",
		Classification:   "Safety Notice",
		Metadata:         json.RawMessage(`{"pages":3}`),
		DetectedLanguage: "en",
	}}
	publisher := &stubPublisher{}
	notifier := &stubNotifier{}
	adminID := uuid.New()

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Store:       store,
		Enricher:    enricher,
		Publisher:   publisher,
		Admins:      stubAdmins{admins: []models.User{{ID: adminID, Role: enums.UserRoleAdmin}}},
		Departments: stubDepartments{exists: true},
		Notifier:    notifier,
		Uploads:     config.UploadsConfig{MaxUploadMB: 1},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{svc: svc, enricher: enricher, publisher: publisher, notifier: notifier, adminID: adminID}
}

func employeeActor(departmentID uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: enums.UserRoleEmployee, DepartmentID: &departmentID}
}

func TestUploadRunsFullPipeline(t *testing.T) {
	env := newTestEnv(t)
	departmentID := uuid.New()
	actor := employeeActor(departmentID)

	dto, err := env.svc.Upload(context.Background(), UploadRequest{
		Actor:        actor,
		DepartmentID: departmentID,
		Title:        "Inspection Plan",
		FileName:     "plan.txt",
		Content:      strings.NewReader("inspection checklist"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if dto.Summary != "Quarterly inspection plan for Line 2." {
		t.Fatalf("expected enrichment applied, got %q", dto.Summary)
	}
	if dto.Classification != enums.Classification("Safety Notice") {
		t.Fatalf("unexpected classification %q", dto.Classification)
	}
	if dto.FileSize != int64(len("inspection checklist")) {
		t.Fatalf("unexpected size %d", dto.FileSize)
	}
	if !strings.HasPrefix(dto.ContentType, "text/plain") {
		t.Fatalf("expected sniffed content type, got %q", dto.ContentType)
	}
	if len(env.publisher.events) != 1 || env.publisher.events[0].DocumentID != dto.ID {
		t.Fatalf("expected one published event, got %+v", env.publisher.events)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].userID != env.adminID {
		t.Fatalf("expected admin notification, got %+v", env.notifier.sent)
	}

	_, reader, err := env.svc.Open(context.Background(), actor, dto.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	raw, _ := io.ReadAll(reader)
	reader.Close()
	if string(raw) != "inspection checklist" {
		t.Fatalf("stored content mismatch: %q", raw)
	}
}

func TestUploadSurvivesEnrichmentFailure(t *testing.T) {
	env := newTestEnv(t)
	env.enricher.err = errors.New("model unavailable")
	departmentID := uuid.New()

	dto, err := env.svc.Upload(context.Background(), UploadRequest{
		Actor:        employeeActor(departmentID),
		DepartmentID: departmentID,
		Title:        "Inspection Plan",
		FileName:     "plan.txt",
		Content:      strings.NewReader("inspection checklist"),
	})
	if err != nil {
		t.Fatalf("upload should survive enrichment failure: %v", err)
	}
	if dto.Summary != "" || dto.Classification != "" {
		t.Fatalf("expected bare document, got %+v", dto)
	}
}

func TestUploadAuthorization(t *testing.T) {
	env := newTestEnv(t)
	departmentID := uuid.New()
	otherDepartment := uuid.New()

	viewer := Actor{ID: uuid.New(), Role: enums.UserRoleViewer, DepartmentID: &departmentID}
	_, err := env.svc.Upload(context.Background(), UploadRequest{
		Actor:        viewer,
		DepartmentID: departmentID,
		Title:        "x",
		FileName:     "x.txt",
		Content:      strings.NewReader("x"),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("viewer upload should be forbidden, got %v", err)
	}

	_, err = env.svc.Upload(context.Background(), UploadRequest{
		Actor:        employeeActor(departmentID),
		DepartmentID: otherDepartment,
		Title:        "x",
		FileName:     "x.txt",
		Content:      strings.NewReader("x"),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("cross-department upload should be forbidden, got %v", err)
	}

	admin := Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}
	if _, err := env.svc.Upload(context.Background(), UploadRequest{
		Actor:        admin,
		DepartmentID: otherDepartment,
		Title:        "x",
		FileName:     "x.txt",
		Content:      strings.NewReader("x"),
	}); err != nil {
		t.Fatalf("admin upload anywhere: %v", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	env := newTestEnv(t)
	departmentID := uuid.New()

	_, err := env.svc.Upload(context.Background(), UploadRequest{
		Actor:        employeeActor(departmentID),
		DepartmentID: departmentID,
		Title:        "big",
		FileName:     "big.bin",
		Content:      strings.NewReader(strings.Repeat("a", (1<<20)+1)),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListScopesNonAdminsToOwnDepartment(t *testing.T) {
	env := newTestEnv(t)
	home := uuid.New()
	other := uuid.New()
	actor := employeeActor(home)

	for _, dept := range []uuid.UUID{home, other} {
		uploader := Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}
		if _, err := env.svc.Upload(context.Background(), UploadRequest{
			Actor:        uploader,
			DepartmentID: dept,
			Title:        "doc",
			FileName:     "doc.txt",
			Content:      strings.NewReader("content " + dept.String()),
		}); err != nil {
			t.Fatalf("seed upload: %v", err)
		}
	}

	result, err := env.svc.List(context.Background(), ListParams{Actor: actor})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].DepartmentID != home {
		t.Fatalf("expected only home department docs, got %+v", result.Items)
	}

	if _, err := env.svc.List(context.Background(), ListParams{Actor: actor, DepartmentID: &other}); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign department filter, got %v", err)
	}

	admin := Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}
	all, err := env.svc.List(context.Background(), ListParams{Actor: admin})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("admin should see both docs, got %d", len(all.Items))
	}
}

func TestDeleteRestrictedToUploaderOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	departmentID := uuid.New()
	uploader := employeeActor(departmentID)

	dto, err := env.svc.Upload(context.Background(), UploadRequest{
		Actor:        uploader,
		DepartmentID: departmentID,
		Title:        "doc",
		FileName:     "doc.txt",
		Content:      strings.NewReader("content"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	colleague := employeeActor(departmentID)
	if err := env.svc.Delete(context.Background(), colleague, dto.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("colleague delete should be forbidden, got %v", err)
	}

	if err := env.svc.Delete(context.Background(), uploader, dto.ID); err != nil {
		t.Fatalf("uploader delete: %v", err)
	}

	if _, err := env.svc.Get(context.Background(), uploader, dto.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
