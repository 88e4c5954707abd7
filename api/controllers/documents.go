package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/docurail/metrodocs-backend/api/middleware"
	"github.com/docurail/metrodocs-backend/api/responses"
	"github.com/docurail/metrodocs-backend/api/validators"
	"github.com/docurail/metrodocs-backend/internal/documents"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/pagination"
)

const (
	uploadMemoryLimit = 10 << 20
	maxTitleLength    = 200
)

// UploadDocument accepts a multipart form with a "file" part plus title and
// departmentId fields and runs it through the ingestion pipeline.
func UploadDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		departmentID, err := uuid.Parse(strings.TrimSpace(r.FormValue("departmentId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid department id"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer file.Close()

		title := strings.TrimSpace(r.FormValue("title"))
		if title == "" {
			title = header.Filename
		}

		document, err := svc.Upload(r.Context(), documents.UploadRequest{
			Actor:        actor,
			DepartmentID: departmentID,
			Title:        validators.SanitizeString(title, maxTitleLength),
			FileName:     header.Filename,
			Content:      file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, document)
	}
}

// ListDocuments returns documents visible to the caller.
func ListDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := documents.ListParams{
			Actor:  actor,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("departmentId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid department id"))
				return
			}
			params.DepartmentID = &id
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListDepartmentDocuments returns a department's documents, subject to the
// caller's scope.
func ListDepartmentDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		departmentID, err := pathUUID(r, "departmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), documents.ListParams{
			Actor:        actor,
			DepartmentID: &departmentID,
			Limit:        limit,
			Cursor:       strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetDocument returns a single document's metadata.
func GetDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		document, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, document)
	}
}

// DownloadDocument streams the stored file back to the caller.
func DownloadDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		document, reader, err := svc.Open(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer reader.Close()

		w.Header().Set("Content-Type", document.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.FileName))
		if document.FileSize > 0 {
			w.Header().Set("Content-Length", fmt.Sprintf("%d", document.FileSize))
		}
		if _, err := io.Copy(w, reader); err != nil && logg != nil {
			logg.Warn(logg.WithFields(r.Context(), map[string]any{"error": err.Error()}), "document.download.stream_failed")
		}
	}
}

// DeleteDocument removes a document and its stored file.
func DeleteDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// requestActor reconstructs the authenticated principal from the context
// seeded by the token middleware.
func requestActor(r *http.Request) (documents.Actor, error) {
	id, err := actorID(r)
	if err != nil {
		return documents.Actor{}, err
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return documents.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid token")
	}
	actor := documents.Actor{ID: id, Role: role}
	if raw := middleware.DepartmentIDFromContext(r.Context()); raw != "" {
		departmentID, err := uuid.Parse(raw)
		if err != nil {
			return documents.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid token")
		}
		actor.DepartmentID = &departmentID
	}
	return actor, nil
}
