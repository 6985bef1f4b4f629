package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result := extractBearerToken(req)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	result := GetAuthContext(context.Background())
	if result != nil {
		t.Error("expected nil for context without auth")
	}

	authCtx := &domain.AuthContext{Subject: "ci", Role: domain.RoleAdmin}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)
	result = GetAuthContext(ctx)
	if result == nil {
		t.Fatal("expected auth context to be returned")
	}
	if result.Subject != "ci" {
		t.Errorf("expected subject ci, got %s", result.Subject)
	}
	if result.Role != domain.RoleAdmin {
		t.Errorf("expected role admin, got %s", result.Role)
	}
}

// captureLogger returns a JSON logger writing to buf at debug level
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// logLines decodes every JSON log line in buf
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("invalid log line %q: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	middleware := NewLoggingMiddleware(captureLogger(&buf))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestID(r.Context()) == "" {
			t.Error("expected request id in handler context")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rr.Code)
	}
	id := rr.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected generated request id header")
	}

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	line := lines[0]
	if line["msg"] != "http request" || line["path"] != "/test" || line["method"] != "GET" {
		t.Errorf("unexpected log line: %v", line)
	}
	if line["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418 in log, got %v", line["status"])
	}
	if line["bytes"] != float64(len("short and stout")) {
		t.Errorf("expected byte count in log, got %v", line["bytes"])
	}
	if line["request_id"] != id {
		t.Errorf("expected request id %s in log, got %v", id, line["request_id"])
	}
}

func TestLoggingMiddleware_KeepsClientRequestID(t *testing.T) {
	middleware := NewLoggingMiddleware(captureLogger(&bytes.Buffer{}))
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rr := httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if seen != "trace-42" || rr.Header().Get(RequestIDHeader) != "trace-42" {
		t.Errorf("expected client request id to be kept, got %q / %q", seen, rr.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rr = httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if len(seen) == 200 {
		t.Error("expected oversized request id to be replaced")
	}
}

func TestLoggingMiddleware_LogsSubject(t *testing.T) {
	var buf bytes.Buffer
	mockAuth := &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return &domain.AuthContext{Subject: "ci-bot", Role: domain.RoleViewer}, nil
		},
	}
	inner := NewAuthMiddleware(mockAuth).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler := NewLoggingMiddleware(captureLogger(&buf)).Handler(inner)

	req := httptest.NewRequest("GET", "/api/v1/index", nil)
	req.Header.Set("Authorization", "Bearer anything")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	if len(lines) != 1 || lines[0]["subject"] != "ci-bot" {
		t.Errorf("expected subject ci-bot in log, got %v", lines)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)
	recovery := NewRecoveryMiddleware(logger)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	rr := httptest.NewRecorder()

	// Should not panic
	NewLoggingMiddleware(logger).Handler(recovery.Handler(handler)).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected panic and request log lines, got %d", len(lines))
	}
	if lines[0]["msg"] != "panic recovered" || lines[0]["panic"] != "test panic" || lines[0]["request_id"] != "req-7" {
		t.Errorf("unexpected panic log: %v", lines[0])
	}
	if stack, _ := lines[0]["stack"].(string); !strings.Contains(stack, "goroutine") {
		t.Error("expected stack trace in panic log")
	}
	if lines[1]["status"] != float64(http.StatusInternalServerError) || lines[1]["level"] != "ERROR" {
		t.Errorf("expected request logged as 500 error, got %v", lines[1])
	}
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	handler := NewRecoveryMiddleware(captureLogger(&bytes.Buffer{})).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))
}

func TestCORSMiddleware(t *testing.T) {
	middleware := NewCORSMiddleware([]string{"http://localhost:5173"})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("expected CORS origin header to be set")
	}

	req = httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr = httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no CORS header for disallowed origin")
	}
}

func TestResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rw.statusCode)
	}

	// Later status codes are ignored like net/http does
	rw.WriteHeader(http.StatusOK)
	if rw.statusCode != http.StatusNotFound || rr.Code != http.StatusNotFound {
		t.Errorf("expected status to stay 404, got %d", rw.statusCode)
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	mockAuth := &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			switch token {
			case "valid-token":
				return &domain.AuthContext{Subject: "ci", Role: domain.RoleViewer}, nil
			case "expired-token":
				return nil, domain.ErrTokenExpired
			}
			return nil, fmt.Errorf("%w: signature mismatch", domain.ErrTokenInvalid)
		},
	}
	middleware := NewAuthMiddleware(mockAuth)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing token", "", http.StatusUnauthorized, "missing authorization token"},
		{"valid token", "Bearer valid-token", http.StatusOK, ""},
		{"expired token", "Bearer expired-token", http.StatusUnauthorized, "token expired"},
		{"invalid token", "Bearer forged", http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.AuthContext
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetAuthContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			middleware.Authenticate(handler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantError != "" {
				if got := decodeError(t, rr); got != tt.wantError {
					t.Errorf("expected error %q, got %q", tt.wantError, got)
				}
				if !strings.HasPrefix(rr.Header().Get("WWW-Authenticate"), "Bearer") {
					t.Errorf("expected Bearer challenge, got %q", rr.Header().Get("WWW-Authenticate"))
				}
				return
			}
			if seen == nil || seen.Subject != "ci" {
				t.Errorf("expected auth context for ci, got %+v", seen)
			}
		})
	}
}

func TestAuthMiddleware_RequireAdmin(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	tests := []struct {
		name       string
		authCtx    *domain.AuthContext
		wantStatus int
	}{
		{"admin", &domain.AuthContext{Subject: "ops", Role: domain.RoleAdmin}, http.StatusOK},
		{"viewer", &domain.AuthContext{Subject: "dev", Role: domain.RoleViewer}, http.StatusForbidden},
		{"no context", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/api/v1/index", nil)
			if tt.authCtx != nil {
				req = req.WithContext(context.WithValue(req.Context(), authContextKey, tt.authCtx))
			}
			rr := httptest.NewRecorder()
			middleware.RequireAdmin(handler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	middleware := NewAuthMiddleware(nil)

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/api/v1/index", nil)
	rr := httptest.NewRecorder()
	middleware.Authenticate(middleware.RequireAdmin(handler)).ServeHTTP(rr, req)

	if !called {
		t.Error("expected handler to be called without authentication")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}
