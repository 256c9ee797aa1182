package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "middleware-test-secret"

func token(t *testing.T, claims JWTClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(role string) JWTClaims {
	return JWTClaims{
		UserID: "u1",
		Name:   "Meera",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserID),
			"name":    c.GetString(CtxUserName),
			"role":    c.GetString(CtxRole),
		})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter(JWTAuth(secret))

	expired := validClaims("manager")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noRole := validClaims("")

	tests := []struct {
		name   string
		path   string
		bearer string
		status int
	}{
		{"missing", "/x", "", http.StatusUnauthorized},
		{"wrong key", "/x", token(t, validClaims("manager"), "other"), http.StatusUnauthorized},
		{"expired", "/x", token(t, expired, secret), http.StatusUnauthorized},
		{"no role", "/x", token(t, noRole, secret), http.StatusUnauthorized},
		{"header", "/x", token(t, validClaims("manager"), secret), http.StatusOK},
		{"query fallback", "/x?token=" + token(t, validClaims("purchaser"), secret), "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, tt.path, tt.bearer); w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter(JWTAuth(secret), RequireRole("manager", "inventory_manager"))

	if w := do(r, "/x", token(t, validClaims("inventory_manager"), secret)); w.Code != http.StatusOK {
		t.Fatalf("inventory manager should pass, got %d", w.Code)
	}
	if w := do(r, "/x", token(t, validClaims("purchaser"), secret)); w.Code != http.StatusForbidden {
		t.Fatalf("purchaser should be rejected, got %d", w.Code)
	}
}

func TestRequestIDEchoesHeader(t *testing.T) {
	r := newRouter(RequestID())
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("request id not echoed: %q", w.Header().Get("X-Request-ID"))
	}

	w = do(r, "/x", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("a request id should be generated")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
		wantCreds  bool
	}{
		{"open", nil, "https://any.example", "*", false},
		{"listed", []string{"https://app.example/"}, "https://app.example", "https://app.example", true},
		{"unlisted", []string{"https://app.example"}, "https://evil.example", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(CORS(tt.allowed...))
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCreds {
				t.Fatalf("allow-credentials = %v, want %v", got, tt.wantCreds)
			}
		})
	}

	r := newRouter(CORS())
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight should short-circuit with 204, got %d", w.Code)
	}
}

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core), "/health/live"))
	r.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) {
		c.Set(CtxUserID, "u1")
		c.Set(CtxRole, "manager")
		c.Error(errors.New("disk full"))
		c.Status(http.StatusInternalServerError)
	})

	do(r, "/health/live", "")
	if logs.Len() != 0 {
		t.Fatalf("skipped path should not be logged, got %d entries", logs.Len())
	}

	do(r, "/boom", "")
	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zap.ErrorLevel {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
	fields := entries[0].ContextMap()
	if fields["role"] != "manager" || fields["user_id"] != "u1" {
		t.Fatalf("actor fields missing: %v", fields)
	}
	if msg, _ := fields["error"].(string); !strings.Contains(msg, "disk full") {
		t.Fatalf("private error should be logged, got %q", fields["error"])
	}
	if fields["request_id"] == "" {
		t.Fatal("request id should be logged")
	}
}
