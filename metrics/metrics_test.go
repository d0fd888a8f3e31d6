package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipnest/backend/media"
	"github.com/gin-gonic/gin"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", m.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", w.Code)
	}
	return w.Body.String()
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(nil)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/videos/:videoId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/videos/abc", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	body := scrape(t, m)
	want := `http_requests_total{method="GET",route="/videos/:videoId",status="204"} 2`
	if !strings.Contains(body, want) {
		t.Fatalf("missing %q in:\n%s", want, body)
	}
	if !strings.Contains(body, `route="unmatched",status="404"`) {
		t.Fatalf("unmatched route not recorded:\n%s", body)
	}
}

func TestInstrumentStore(t *testing.T) {
	m := New(nil)
	store := m.InstrumentStore(media.Noop())

	store.Upload(context.Background(), "missing")
	store.Delete(context.Background(), "https://x/y")

	body := scrape(t, m)
	for _, want := range []string{
		`blob_operations_total{operation="upload",status="error"} 1`,
		`blob_operations_total{operation="delete",status="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}
