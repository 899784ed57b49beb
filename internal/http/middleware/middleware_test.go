package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/checkin/internal/auth"
)

type stubRevocations struct {
	revoked map[string]bool
}

func (s stubRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revoked[jti], nil
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	mgr := auth.NewJWTManager(strings.Repeat("k", 32), time.Hour)
	userID := uuid.New()
	issued, err := mgr.GenerateAccessToken(auth.Identity{ID: userID, Email: "ana@example.com", Admin: true})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	revokedToken, err := mgr.GenerateAccessToken(auth.Identity{ID: userID})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	revocations := stubRevocations{revoked: map[string]bool{revokedToken.ID: true}}

	var gotSubject string
	var gotAdmin bool
	handler := Auth(mgr, revocations)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		gotAdmin = IsAdmin(r.Context())
		if GetTokenID(r.Context()) == "" || GetTokenExpiry(r.Context()).IsZero() {
			t.Error("expected token id and expiry in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"invalid", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"revoked", "Bearer " + revokedToken.Token, http.StatusUnauthorized},
		{"valid", "Bearer " + issued.Token, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}

	if gotSubject != userID.String() || !gotAdmin {
		t.Fatalf("unexpected identity %s admin=%v", gotSubject, gotAdmin)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.NewString(), false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	req = req.WithContext(WithIdentity(req.Context(), uuid.NewString(), true))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestSelfOrAdmin(t *testing.T) {
	owner := uuid.New()
	r := chi.NewRouter()
	r.With(SelfOrAdmin("id")).Get("/users/{id}", okHandler)

	tests := []struct {
		name    string
		subject string
		admin   bool
		path    string
		status  int
	}{
		{"self", owner.String(), false, "/users/" + owner.String(), http.StatusOK},
		{"other", uuid.NewString(), false, "/users/" + owner.String(), http.StatusForbidden},
		{"admin", uuid.NewString(), true, "/users/" + owner.String(), http.StatusOK},
		{"bad id", owner.String(), false, "/users/abc", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req = req.WithContext(WithIdentity(req.Context(), tc.subject, tc.admin))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestIPRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := IPRateLimit(limiter)(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other IP should not be limited, got %d", rec.Code)
	}
	if limiter.Size() != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", limiter.Size())
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"INTERNAL"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:3000", "*.example.com"})(http.HandlerFunc(okHandler))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:3000", true},
		{"https://app.example.com", true},
		{"https://example.com", false},
		{"https://evil.com", false},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/turmas", nil)
		req.Header.Set("Origin", tc.origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for preflight, got %d", rec.Code)
		}
		got := rec.Header().Get("Access-Control-Allow-Origin") == tc.origin
		if got != tc.allowed {
			t.Fatalf("origin %s: expected allowed=%v", tc.origin, tc.allowed)
		}
		if tc.allowed && !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
			t.Fatal("PATCH must be allowed")
		}
	}
}
