package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ChainPull/internal/analyzer"
	xlogger "ChainPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

type captureCache struct {
	key string
	b   []byte
	ttl time.Duration
}

func (c *captureCache) GetBytes(string) ([]byte, bool, error) { return nil, false, nil }

func (c *captureCache) SetBytes(key string, b []byte, ttl time.Duration) error {
	c.key, c.b, c.ttl = key, b, ttl
	return nil
}

func newTestAnalyzersHandler(t *testing.T, cacheTTL time.Duration) *AnalyzersHandler {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("build test logger: %v", err)
	}
	spread := analyzer.NewSpreadAnalyzer(nil, nil, nil, time.UTC, l)
	condor, err := analyzer.NewCondorAnalyzer(nil, analyzer.DefaultCondorParams(), nil, time.UTC, l)
	if err != nil {
		t.Fatalf("new condor analyzer: %v", err)
	}
	vertical, err := analyzer.NewVerticalAnalyzer(nil, analyzer.VerticalTiers(), nil, time.UTC, l)
	if err != nil {
		t.Fatalf("new vertical analyzer: %v", err)
	}
	return NewAnalyzersHandler(l, spread, condor, vertical, cacheTTL)
}

func TestAnalyzersHandlerCacheTTLDefault(t *testing.T) {
	h := newTestAnalyzersHandler(t, 0)
	if h.cacheTTL != dataCacheTTL {
		t.Fatalf("zero ttl must fall back to %v, got %v", dataCacheTTL, h.cacheTTL)
	}
}

func TestAnalyzersHandlerDataUsesConfiguredTTL(t *testing.T) {
	h := newTestAnalyzersHandler(t, 30*time.Second)
	cache := &captureCache{}
	h.SetCache(cache)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/spread/data", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("analyzer")
	c.SetParamValues("spread")

	if err := h.Data(c); err != nil {
		t.Fatalf("data: %v", err)
	}
	if cache.ttl != 30*time.Second {
		t.Fatalf("cache ttl = %v, want 30s", cache.ttl)
	}
	if cache.key == "" || len(cache.b) == 0 {
		t.Fatalf("data route must populate the cache, got key %q", cache.key)
	}
}
