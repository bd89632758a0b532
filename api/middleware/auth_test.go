package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/auth"
	"github.com/lotepro/lotepro-backend/pkg/config"
	"github.com/lotepro/lotepro-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "lotepro", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole, sellerID *uuid.UUID) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID:   userID,
		Role:     role,
		SellerID: sellerID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsContextFromClaims(t *testing.T) {
	cfg := testJWTConfig()
	sellerID := uuid.New()
	token, userID := mintTestToken(t, cfg, enums.ActorRoleSeller, &sellerID)

	var captured struct {
		user   string
		role   string
		seller string
	}
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.seller = SellerIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != userID.String() {
		t.Fatalf("expected user id %s got %s", userID, captured.user)
	}
	if captured.role != string(enums.ActorRoleSeller) {
		t.Fatalf("expected seller role got %s", captured.role)
	}
	if captured.seller != sellerID.String() {
		t.Fatalf("expected seller id %s got %s", sellerID, captured.seller)
	}
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	cfg := testJWTConfig()
	token, _ := mintTestToken(t, cfg, enums.ActorRoleBuyer, nil)

	handler := Auth(cfg, nil)(RequireRole(nil, string(enums.ActorRoleSeller), string(enums.ActorRoleAdmin))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestJobSecretGuards(t *testing.T) {
	handler := JobSecret("s3cret", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/jobs/release-reserves", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/jobs/release-reserves", nil)
	req.Header.Set("X-Job-Secret", "s3cret")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	disabled := JobSecret("", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req = httptest.NewRequest(http.MethodPost, "/jobs/release-reserves", nil)
	req.Header.Set("X-Job-Secret", "anything")
	resp = httptest.NewRecorder()
	disabled.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
