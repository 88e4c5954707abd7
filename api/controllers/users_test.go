package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/docurail/metrodocs-backend/internal/users"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
)

type testUsersService struct {
	createFn     func(ctx context.Context, req users.CreateUserRequest) (*users.CreateUserResult, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
	listFn       func(ctx context.Context, params users.ListParams) (*users.ListResult, error)
	updateFn     func(ctx context.Context, id uuid.UUID, req users.UpdateUserRequest) (*users.UserDTO, error)
	deactivateFn func(ctx context.Context, id uuid.UUID) error
}

func (s *testUsersService) Create(ctx context.Context, req users.CreateUserRequest) (*users.CreateUserResult, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return &users.CreateUserResult{}, nil
}

func (s *testUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &users.UserDTO{}, nil
}

func (s *testUsersService) List(ctx context.Context, params users.ListParams) (*users.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &users.ListResult{}, nil
}

func (s *testUsersService) Update(ctx context.Context, id uuid.UUID, req users.UpdateUserRequest) (*users.UserDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, req)
	}
	return &users.UserDTO{}, nil
}

func (s *testUsersService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, id)
	}
	return nil
}

func TestCreateUserReturnsTempPassword(t *testing.T) {
	svc := &testUsersService{
		createFn: func(_ context.Context, req users.CreateUserRequest) (*users.CreateUserResult, error) {
			if req.Role != "Employee" {
				t.Fatalf("unexpected role %q", req.Role)
			}
			return &users.CreateUserResult{
				User:         &users.UserDTO{Name: req.Name},
				TempPassword: "generated-secret",
			}, nil
		},
	}

	body := `{"name":"Dana Ops","email":"dana@metrorail.example","role":"Employee","department_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	CreateUser(svc, newTestLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var data struct {
		TempPassword string `json:"temp_password"`
	}
	decodeEnvelope(t, resp.Body.Bytes(), &data)
	if data.TempPassword != "generated-secret" {
		t.Fatalf("unexpected temp password %q", data.TempPassword)
	}
}

func TestCreateUserRejectsUnknownFields(t *testing.T) {
	body := `{"name":"Dana","email":"dana@metrorail.example","role":"Employee","password":"sneaky"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	CreateUser(&testUsersService{}, newTestLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetUserInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/not-a-uuid", nil)
	req = addRouteParam(req, "userId", "not-a-uuid")
	resp := httptest.NewRecorder()
	GetUser(&testUsersService{}, newTestLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := &testUsersService{
		getFn: func(context.Context, uuid.UUID) (*users.UserDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		},
	}
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id, nil)
	req = addRouteParam(req, "userId", id)
	resp := httptest.NewRecorder()
	GetUser(svc, newTestLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListUsersForwardsFilters(t *testing.T) {
	departmentID := uuid.New()
	var captured users.ListParams
	svc := &testUsersService{
		listFn: func(_ context.Context, params users.ListParams) (*users.ListResult, error) {
			captured = params
			return &users.ListResult{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?role=Viewer&departmentId="+departmentID.String()+"&limit=7", nil)
	resp := httptest.NewRecorder()
	ListUsers(svc, newTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.Role != "Viewer" || captured.Limit != 7 {
		t.Fatalf("filters not forwarded: %+v", captured)
	}
	if captured.DepartmentID == nil || *captured.DepartmentID != departmentID {
		t.Fatal("expected department filter forwarded")
	}
}

func TestDeactivateUserSuccess(t *testing.T) {
	id := uuid.New()
	called := false
	svc := &testUsersService{
		deactivateFn: func(_ context.Context, got uuid.UUID) error {
			called = true
			if got != id {
				t.Fatalf("unexpected id %s", got)
			}
			return nil
		},
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+id.String(), nil)
	req = addRouteParam(req, "userId", id.String())
	resp := httptest.NewRecorder()
	DeactivateUser(svc, newTestLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}
