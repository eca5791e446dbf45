package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInternalAuthMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		requiredKey string
		providedKey string
		wantStatus  int
	}{
		{"matching key passes", "secret", "secret", http.StatusOK},
		{"wrong key rejected", "secret", "nope", http.StatusUnauthorized},
		{"missing key rejected", "secret", "", http.StatusUnauthorized},
		{"no key configured allows all", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := InternalAuthMiddleware(tt.requiredKey)(okHandler)

			req := httptest.NewRequest(http.MethodPost, "/internal/dunning/run", nil)
			if tt.providedKey != "" {
				req.Header.Set("X-Internal-API-Key", tt.providedKey)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminAuthMiddleware_RejectsMissingOrMalformedToken(t *testing.T) {
	handler := AdminAuthMiddleware("http://localhost/jwks")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached without a valid token")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/customers/abc/cure", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no Authorization header: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/customers/abc/cure", nil)
	req.Header.Set("Authorization", "not-a-bearer-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("malformed Authorization header: status = %d, want 401", rec.Code)
	}
}
