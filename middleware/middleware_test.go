package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipnest/backend/auth"
	"github.com/clipnest/backend/database/memory"
	"github.com/clipnest/backend/logging"
	"github.com/clipnest/backend/models"
	"github.com/clipnest/backend/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	access string
	userID bson.ObjectID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := memory.New().Repositories().Users
	id := bson.NewObjectID()
	if err := users.Create(context.Background(), models.User{ID: id, Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	tokens := auth.NewService(users, auth.Options{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
		StoreTimeout:  time.Second,
	})
	pair, err := tokens.IssueTokenPair(context.Background(), id)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	session := NewSession(tokens, users, time.Second)
	r := gin.New()
	r.GET("/private", session.RequireAuth(), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	r.GET("/public", session.OptionalAuth(), func(c *gin.Context) {
		if id := CurrentUserID(c); id != nil {
			c.String(http.StatusOK, id.Hex())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return fixture{router: r, access: pair.AccessToken, userID: id}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: utils.AccessCookie, Value: f.access})
		}, http.StatusOK},
		{"bearer header", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+f.access)
		}, http.StatusOK},
		{"cookie wins over header", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: utils.AccessCookie, Value: f.access})
			r.Header.Set("Authorization", "Bearer garbage")
		}, http.StatusOK},
		{"garbage token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer garbage")
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.setup(req)
			w := f.do(req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK && w.Body.String() != "alice" {
				t.Fatalf("body = %q", w.Body.String())
			}
			if tt.status == http.StatusUnauthorized {
				var env utils.Envelope
				if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
					t.Fatalf("decode envelope: %v", err)
				}
				data, _ := env.Data.(map[string]any)
				if env.Status != http.StatusUnauthorized || data["code"] != "UNAUTHORIZED" {
					t.Fatalf("unexpected envelope %+v", env)
				}
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/public", nil))
	if w.Code != http.StatusOK || w.Body.String() != "anonymous" {
		t.Fatalf("anonymous: %d %q", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = f.do(req)
	if w.Code != http.StatusOK || w.Body.String() != "anonymous" {
		t.Fatalf("invalid token: %d %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	req.AddCookie(&http.Cookie{Name: utils.AccessCookie, Value: f.access})
	w = f.do(req)
	if w.Body.String() != f.userID.Hex() {
		t.Fatalf("authenticated: %q", w.Body.String())
	}
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Minute).(*ipRateLimiter)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("burst should be allowed")
	}
	if limiter.Allow("a") {
		t.Fatal("third request inside the window should be rejected")
	}
	if !limiter.Allow("b") {
		t.Fatal("other keys are limited independently")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("a") {
		t.Fatal("token should refill after the window")
	}
}

func TestIPRateLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(10, time.Minute, 1, time.Minute).(*ipRateLimiter)
	limiter.now = func() time.Time { return now }

	limiter.Allow("idle")
	now = now.Add(30 * time.Second)
	limiter.Allow("busy")
	if len(limiter.visitors) != 2 {
		t.Fatalf("visitors = %d, want 2", len(limiter.visitors))
	}

	// Still inside the sweep interval: nothing is evicted.
	now = now.Add(20 * time.Second)
	limiter.Allow("busy")
	if len(limiter.visitors) != 2 {
		t.Fatalf("visitors = %d before the sweep interval, want 2", len(limiter.visitors))
	}

	now = now.Add(40 * time.Second)
	limiter.Allow("busy")
	if _, ok := limiter.visitors["idle"]; ok || len(limiter.visitors) != 1 {
		t.Fatalf("idle visitor should be swept, have %d", len(limiter.visitors))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(NewIPRateLimiter(1, time.Hour, 1, time.Hour)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", second.Code)
	}
	if !strings.Contains(second.Body.String(), "RATE_LIMITED") {
		t.Fatalf("body = %s", second.Body.String())
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ping", func(c *gin.Context) {
		seen = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "req-123" {
		t.Fatalf("request id in context = %q", seen)
	}
	if w.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("response header = %q", w.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) || !strings.Contains(buf.String(), "request completed") {
		t.Fatalf("log output = %s", buf.String())
	}
}
