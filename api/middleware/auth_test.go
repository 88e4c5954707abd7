package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docurail/metrodocs-backend/pkg/auth"
	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	"github.com/docurail/metrodocs-backend/pkg/types"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "metrodocs", ExpirationHours: 24}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole, departmentID *uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID:       uuid.New(),
		Email:        "rider@metrorail.example",
		Name:         "Test Rider",
		Role:         role,
		DepartmentID: departmentID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func decodeErrorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body.Error.Message
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(testJWTConfig(), nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := decodeErrorMessage(t, resp); msg != "No token provided" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthRejectsBlankBearerToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := decodeErrorMessage(t, resp); msg != "No token provided" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := decodeErrorMessage(t, resp); msg != "Invalid token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := auth.MintAccessToken(cfg, time.Now().Add(-48*time.Hour), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "rider@metrorail.example",
		Role:   enums.UserRoleEmployee,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := Auth(cfg, nil, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := decodeErrorMessage(t, resp); msg != "Invalid token" {
		t.Fatalf("expired tokens should read as invalid, got %q", msg)
	}
}

func TestAuthRejectsTokenSignedWithOtherSecret(t *testing.T) {
	otherCfg := config.JWTConfig{Secret: "other-secret", Issuer: "metrodocs", ExpirationHours: 24}
	token := mintTestToken(t, otherCfg, enums.UserRoleAdmin, nil)

	handler := Auth(testJWTConfig(), nil, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := decodeErrorMessage(t, resp); msg != "Invalid token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthSeedsContextFromValidToken(t *testing.T) {
	cfg := testJWTConfig()
	departmentID := uuid.New()
	token := mintTestToken(t, cfg, enums.UserRoleEmployee, &departmentID)

	var captured struct {
		user       string
		role       string
		email      string
		department string
	}
	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.email = EmailFromContext(r.Context())
		captured.department = DepartmentIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user == "" {
		t.Fatal("expected user id in context")
	}
	if captured.role != string(enums.UserRoleEmployee) {
		t.Fatalf("expected employee role got %s", captured.role)
	}
	if captured.email != "rider@metrorail.example" {
		t.Fatalf("unexpected email %q", captured.email)
	}
	if captured.department != departmentID.String() {
		t.Fatalf("expected department %s got %s", departmentID, captured.department)
	}
}

func TestAuthAcceptsRawTokenWithoutScheme(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, enums.UserRoleViewer, nil)

	handler := Auth(cfg, nil, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("raw token without scheme should verify, got %d", resp.Code)
	}
}

func TestAuthStripsSchemePrefixOnce(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, enums.UserRoleViewer, nil)

	handler := Auth(cfg, nil, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	// The second prefix becomes part of the token and fails verification.
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if msg := decodeErrorMessage(t, resp); msg != "Invalid token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthTreatsLowercaseSchemeAsRawToken(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, enums.UserRoleViewer, nil)

	handler := Auth(cfg, nil, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("lowercase scheme should not be stripped, got %d", resp.Code)
	}
}
