package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docurail/metrodocs-backend/internal/auth"
	"github.com/docurail/metrodocs-backend/internal/users"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
)

type testAuthService struct {
	loginFn    func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	registerFn func(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error)
}

func (s *testAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return &auth.LoginResponse{}, nil
}

func (s *testAuthService) RegisterAdmin(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, req)
	}
	return &users.UserDTO{}, nil
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			if req.Email != "dana@metrorail.example" {
				t.Fatalf("unexpected email %q", req.Email)
			}
			return &auth.LoginResponse{Token: "signed-token"}, nil
		},
	}

	body := `{"email":"dana@metrorail.example","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthLogin(svc, newTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	decodeEnvelope(t, resp.Body.Bytes(), &data)
	if data.Token != "signed-token" {
		t.Fatalf("unexpected token %q", data.Token)
	}
}

func TestAuthLoginRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthLogin(&testAuthService{}, newTestLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginMapsUnauthorized(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}
	body := `{"email":"dana@metrorail.example","password":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AuthLogin(svc, newTestLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLoginNilService(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	AuthLogin(nil, newTestLogger())(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestAdminRegisterCreated(t *testing.T) {
	svc := &testAuthService{
		registerFn: func(_ context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
			if req.Name != "Root Admin" {
				t.Fatalf("unexpected name %q", req.Name)
			}
			return &users.UserDTO{Name: req.Name}, nil
		},
	}
	body := `{"name":"Root Admin","email":"admin@metrorail.example","password":"a strong password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register-admin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AdminRegister(svc, newTestLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}
