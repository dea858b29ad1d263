package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/provosthq/provost/internal/rbac"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc.def.ghi", "", "abc.def.ghi"},
		{"lowercase bearer", "bearer abc", "", "abc"},
		{"malformed header", "Token abc", "", ""},
		{"header only no token", "Bearer", "", ""},
		{"cookie fallback", "", "cookie-token", "cookie-token"},
		{"header wins over cookie", "Bearer head-token", "cookie-token", "head-token"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if got := ExtractToken(req); got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func edgeFixture(t *testing.T) (*TokenManager, string) {
	t.Helper()
	tm := testTokenManager(time.Hour)
	record, memberships := testPrincipal() // member of alpha and beta
	token, err := tm.Mint(record, memberships, "t-alpha")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	return tm, token
}

func TestEdgeMiddleware_PublicPaths(t *testing.T) {
	tm, _ := edgeFixture(t)
	handler := EdgeMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/", "/login", "/register", "/healthz", "/metrics", "/api/auth/login", "/api/auth/register", "/static/app.css"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("public path %s: status %d, want 200", path, rec.Code)
		}
	}
}

func TestEdgeMiddleware_MissingToken(t *testing.T) {
	tm, _ := edgeFixture(t)
	handler := EdgeMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	// API path: 401 JSON.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("api path status = %d, want 401", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error.Code != "unauthenticated" {
		t.Errorf("error code = %q, want unauthenticated", body.Error.Code)
	}

	// Page path: redirect to login with callbackUrl.
	req = httptest.NewRequest(http.MethodGet, "/alpha/admin/users?page=2", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("page path status = %d, want 302", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parsing redirect location: %v", err)
	}
	if loc.Path != "/login" {
		t.Errorf("redirect path = %q, want /login", loc.Path)
	}
	if got := loc.Query().Get("callbackUrl"); got != "/alpha/admin/users?page=2" {
		t.Errorf("callbackUrl = %q, want original path", got)
	}
}

func TestEdgeMiddleware_InvalidToken(t *testing.T) {
	tm, _ := edgeFixture(t)
	handler := EdgeMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestEdgeMiddleware_TenantScopedPaths(t *testing.T) {
	tm, token := edgeFixture(t)
	var sawSession *Session
	handler := EdgeMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSession = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Tenant the token includes: request passes and carries the session.
	req := httptest.NewRequest(http.MethodGet, "/alpha/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("member tenant path status = %d, want 200", rec.Code)
	}
	if sawSession == nil || sawSession.PrincipalID != "p-1" {
		t.Error("expected session in handler context")
	}

	// Tenant the token lacks: redirected away, handler untouched.
	sawSession = nil
	req = httptest.NewRequest(http.MethodGet, "/gamma/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("foreign tenant path status = %d, want 302", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "error=tenant") {
		t.Errorf("redirect location = %q, want error=tenant", rec.Header().Get("Location"))
	}
	if sawSession != nil {
		t.Error("handler must not run for a foreign tenant path")
	}
}

func TestEdgeMiddleware_APIPathsSkipCoarseTenantCheck(t *testing.T) {
	// Role/tenant precision for API routes lives in the handler guard; the
	// edge only requires a valid token.
	tm, token := edgeFixture(t)
	handler := EdgeMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tenants/gamma/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("api path status = %d, want 200 (precise check is the handler's job)", rec.Code)
	}
}

func TestEdgeMiddleware_ExpiredTokenRedirects(t *testing.T) {
	tm := testTokenManager(time.Minute)
	record, memberships := testPrincipal()
	token, err := tm.Mint(record, memberships, "t-alpha")
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	tm.now = func() time.Time { return time.Now().Add(time.Hour) }

	handler := EdgeMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/alpha/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302 redirect to login", rec.Code)
	}
}

func TestMembershipMethods(t *testing.T) {
	m := membershipFixture("t-alpha", "alpha", rbac.RoleSupervisor, false)
	m.Permissions = []string{"scholar:read", "scholar:update"}

	if !m.HasRole(rbac.RoleSupervisor) || m.HasRole(rbac.RoleAdmin) {
		t.Error("HasRole mismatch")
	}
	if !m.HasAnyRole(rbac.RoleAdmin, rbac.RoleSupervisor) {
		t.Error("HasAnyRole should match supervisor")
	}
	if m.HasAnyRole(rbac.ManagementRoles...) {
		t.Error("supervisor is not a management role")
	}
	if !m.HasPermission("scholar:read") || m.HasPermission("finance:manage") {
		t.Error("HasPermission mismatch")
	}
}
