package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docurail/metrodocs-backend/internal/notifications"
	"github.com/docurail/metrodocs-backend/pkg/ai"
	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/db"
	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/metrics"
	"github.com/docurail/metrodocs-backend/pkg/pagination"
	"github.com/docurail/metrodocs-backend/pkg/pubsub"
	"github.com/docurail/metrodocs-backend/pkg/storage/disk"
)

// Actor identifies the authenticated principal performing a document operation.
type Actor struct {
	ID           uuid.UUID
	Role         enums.UserRole
	DepartmentID *uuid.UUID
}

// UploadRequest carries an incoming file and its target department.
type UploadRequest struct {
	Actor        Actor
	DepartmentID uuid.UUID
	Title        string
	FileName     string
	Content      io.Reader
}

// ListParams configures filtering and pagination of documents.
type ListParams struct {
	Actor        Actor
	DepartmentID *uuid.UUID
	Limit        int
	Cursor       string
}

// ListResult wraps returned documents and the cursor for the next page.
type ListResult struct {
	Items  []DocumentDTO `json:"items"`
	Cursor string        `json:"cursor"`
}

// Service defines the document operations exposed to controllers.
type Service interface {
	Upload(ctx context.Context, req UploadRequest) (*DocumentDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*DocumentDTO, error)
	Open(ctx context.Context, actor Actor, id uuid.UUID) (*DocumentDTO, io.ReadCloser, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type documentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, params listDocumentsParams) ([]models.Document, *pagination.Cursor, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type blobStore interface {
	Save(ctx context.Context, name string, content io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

type enricher interface {
	ProcessDocument(ctx context.Context, fileName, contentType string, file io.Reader) (*ai.Enrichment, error)
}

type eventPublisher interface {
	PublishDocumentEvent(ctx context.Context, event pubsub.DocumentEvent) error
}

type adminDirectory interface {
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

type departmentChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

type service struct {
	repo        documentRepository
	store       blobStore
	enricher    enricher
	publisher   eventPublisher
	admins      adminDirectory
	departments departmentChecker
	notifier    notifier
	metrics     *metrics.APIMetrics
	logg        *logger.Logger
	maxBytes    int64
}

// ServiceParams bundles the dependencies required to build a documents service.
// Enricher, Publisher and Notifier are optional; the pipeline degrades to a
// plain upload when they are absent.
type ServiceParams struct {
	Repo        documentRepository
	Store       blobStore
	Enricher    enricher
	Publisher   eventPublisher
	Admins      adminDirectory
	Departments departmentChecker
	Notifier    notifier
	Metrics     *metrics.APIMetrics
	Logger      *logger.Logger
	Uploads     config.UploadsConfig
}

// NewService constructs a documents service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("documents repository is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if params.Departments == nil {
		return nil, fmt.Errorf("departments checker is required")
	}
	maxBytes := params.Uploads.MaxUploadBytes()
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	return &service{
		repo:        params.Repo,
		store:       params.Store,
		enricher:    params.Enricher,
		publisher:   params.Publisher,
		admins:      params.Admins,
		departments: params.Departments,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		logg:        params.Logger,
		maxBytes:    maxBytes,
	}, nil
}

func (s *service) Upload(ctx context.Context, req UploadRequest) (*DocumentDTO, error) {
	if err := s.authorizeUpload(req.Actor, req.DepartmentID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document title is required")
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if req.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}

	exists, err := s.departments.Exists(ctx, req.DepartmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup department")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "department not found")
	}

	content, err := s.readCapped(req.Content)
	if err != nil {
		return nil, err
	}

	contentType := mimetype.Detect(content).String()
	objectName := disk.ObjectName(time.Now().UTC(), fileName)

	size, err := s.store.Save(ctx, objectName, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	document := &models.Document{
		DepartmentID: req.DepartmentID,
		UploadedBy:   req.Actor.ID,
		Title:        title,
		FileName:     fileName,
		FilePath:     objectName,
		ContentType:  contentType,
		FileSize:     size,
	}

	s.enrich(ctx, document, fileName, contentType, content)

	if err := s.repo.Create(ctx, document); err != nil {
		s.removeBlob(ctx, objectName)
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "file already stored")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist document")
	}

	s.metrics.IncDocumentProcessed("ok")
	s.publishEvent(ctx, document)
	s.notifyAdmins(ctx, document)

	return fromModel(document), nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*DocumentDTO, error) {
	document, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return fromModel(document), nil
}

func (s *service) Open(ctx context.Context, actor Actor, id uuid.UUID) (*DocumentDTO, io.ReadCloser, error) {
	document, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.store.Open(ctx, document.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return fromModel(document), reader, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	scope := params.DepartmentID
	if params.Actor.Role != enums.UserRoleAdmin {
		if params.Actor.DepartmentID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no department assigned")
		}
		if scope != nil && *scope != *params.Actor.DepartmentID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "documents outside your department")
		}
		scope = params.Actor.DepartmentID
	}

	query := listDocumentsParams{
		DepartmentID: scope,
		Limit:        pagination.NormalizeLimit(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}

	items := make([]DocumentDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	document, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if actor.Role != enums.UserRoleAdmin && document.UploadedBy != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the uploader or an administrator can delete a document")
	}

	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}

	s.removeBlob(ctx, document.FilePath)
	return nil
}

func (s *service) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Document, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	document, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document")
	}
	if actor.Role != enums.UserRoleAdmin {
		if actor.DepartmentID == nil || *actor.DepartmentID != document.DepartmentID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "documents outside your department")
		}
	}
	return document, nil
}

func (s *service) authorizeUpload(actor Actor, departmentID uuid.UUID) error {
	if departmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "department id required")
	}
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleEmployee:
		if actor.DepartmentID == nil || *actor.DepartmentID != departmentID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "uploads outside your department")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "your role cannot upload documents")
	}
}

func (s *service) readCapped(content io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the upload size limit")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	return data, nil
}

// enrich calls the processing service and folds the analysis into the row.
// A failed enrichment leaves the document bare rather than failing the upload.
func (s *service) enrich(ctx context.Context, document *models.Document, fileName, contentType string, content []byte) {
	if s.enricher == nil {
		return
	}
	enrichment, err := s.enricher.ProcessDocument(ctx, fileName, contentType, bytes.NewReader(content))
	if err != nil {
		s.metrics.IncDocumentProcessed("enrichment_failed")
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), "document.enrichment.failed")
		}
		return
	}

	document.Summary = enrichment.Summary
	document.Classification = enums.Classification(enrichment.Classification)
	document.TranslatedText = enrichment.TranslatedText
	document.DetectedLanguage = enrichment.DetectedLanguage
	if len(enrichment.Metadata) > 0 {
		document.Metadata = string(enrichment.Metadata)
	}
}

func (s *service) publishEvent(ctx context.Context, document *models.Document) {
	if s.publisher == nil {
		return
	}
	event := pubsub.DocumentEvent{
		Type:           "document.uploaded",
		DocumentID:     document.ID,
		DepartmentID:   document.DepartmentID,
		UploadedBy:     document.UploadedBy,
		Classification: string(document.Classification),
	}
	if err := s.publisher.PublishDocumentEvent(ctx, event); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), "document.event.publish_failed")
	}
}

func (s *service) notifyAdmins(ctx context.Context, document *models.Document) {
	if s.notifier == nil || s.admins == nil {
		return
	}
	admins, err := s.admins.ListByRole(ctx, enums.UserRoleAdmin)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), "document.notify.admin_lookup_failed")
		}
		return
	}
	title := fmt.Sprintf("New document: %s", document.Title)
	for _, admin := range admins {
		if admin.ID == document.UploadedBy {
			continue
		}
		if err := s.notifier.Notify(ctx, admin.ID, notifications.KindDocumentUploaded, title, document.FileName); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), "document.notify.failed")
		}
	}
}

func (s *service) removeBlob(ctx context.Context, name string) {
	if err := s.store.Remove(ctx, name); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"error": err.Error()}), "document.blob.remove_failed")
	}
}
