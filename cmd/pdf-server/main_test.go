package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/pdfbundle/internal/testutil"
	"github.com/Sternrassler/pdfbundle/pkg/cache"
	"github.com/Sternrassler/pdfbundle/pkg/listener"
	"github.com/Sternrassler/pdfbundle/pkg/render"
	"github.com/Sternrassler/pdfbundle/pkg/stylesheet"
)

// failingStore is a cache store whose backend is down.
type failingStore struct {
	*cache.MemoryStore
}

func (failingStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func newTestServer(t *testing.T, store cache.Store, builder *testutil.FakeBuilder) http.Handler {
	t.Helper()

	templates, err := templateFS("")
	if err != nil {
		t.Fatalf("templateFS failed: %v", err)
	}
	engine := stylesheet.NewEngine(templates, stylesheet.WithData(map[string]string{"Accent": "#000"}))

	transformer := listener.NewResponseTransformer(builder,
		listener.WithStylesheets(engine),
		listener.WithCache(store),
	)
	return newRouter(listener.NewMiddleware(newDirectiveTable(), transformer), store)
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		readyHandler(cache.NewMemoryStore(0, time.Minute))(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("not_ready_cache_down", func(t *testing.T) {
		w := httptest.NewRecorder()
		store := failingStore{cache.NewMemoryStore(0, time.Minute)}
		readyHandler(store)(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestDocumentRoutes(t *testing.T) {
	builder := &testutil.FakeBuilder{}
	srv := newTestServer(t, cache.NewMemoryStore(0, time.Minute), builder)

	tests := []struct {
		name            string
		target          string
		wantType        string
		wantDisposition string
		wantBody        string
	}{
		{name: "report html", target: "/reports/7.html", wantType: "text/html", wantBody: "Report 7"},
		{name: "report pdf", target: "/reports/7.pdf", wantType: "application/pdf", wantDisposition: `inline; filename="report.pdf"`, wantBody: "%PDF-"},
		{name: "notes markdown", target: "/notes/3.md", wantType: "text/markdown", wantBody: "# Notes 3"},
		{name: "notes pdf", target: "/notes/3.pdf", wantType: "application/pdf", wantDisposition: `attachment; filename="notes.pdf"`, wantBody: "%PDF-1.7 markdown:# Notes 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest("GET", tt.target, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
			}
			if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.wantType) {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if got := w.Header().Get("Content-Disposition"); got != tt.wantDisposition {
				t.Errorf("Content-Disposition = %q, want %q", got, tt.wantDisposition)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}

	for _, call := range builder.Calls() {
		if call.Stylesheet == "" {
			t.Errorf("%s render got no stylesheet text", call.Parser)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, cache.NewMemoryStore(0, time.Minute), &testutil.FakeBuilder{})

	// Produce at least one conversion so the labelled counters exist.
	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/notes/1.pdf", nil))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "pdf_conversions_total") {
		t.Error("Expected metrics output to contain pdf_conversions_total")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("CHROME_NO_SANDBOX", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PAGE_SIZE", "letter")
	t.Setenv("CACHE_SIZE", "64")

	cfg, err := loadConfig([]string{"--port", "7070", "--optimize"})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Port = %q, flag should override env", cfg.Port)
	}
	if cfg.CacheBackend != "redis" || cfg.CacheTTL != 2*time.Hour {
		t.Errorf("cache config = %s/%s", cfg.CacheBackend, cfg.CacheTTL)
	}
	if !cfg.ChromeNoSandbox || !cfg.PDFOptimize {
		t.Errorf("bool config: no-sandbox=%v optimize=%v", cfg.ChromeNoSandbox, cfg.PDFOptimize)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.CacheSize != 64 {
		t.Errorf("CacheSize = %d, want 64", cfg.CacheSize)
	}
	if pg := pageConfig(cfg); pg.Size != render.Letter {
		t.Errorf("page size = %v, want Letter", pg.Size)
	}
}

func TestPageConfig_Default(t *testing.T) {
	cfg, err := loadConfig(nil)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	pg := pageConfig(cfg)
	if pg.Size != render.A4 || !pg.PreferCSSPageSize {
		t.Errorf("default page config = %+v, want A4 with CSS page size", pg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "unknown backend", env: map[string]string{"CACHE_BACKEND": "memcached"}},
		{name: "gcs without bucket", env: map[string]string{"CACHE_BACKEND": "gcs"}},
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "bad log level", args: []string{"--log-level", "loud"}},
		{name: "unknown page size", args: []string{"--page-size", "B5"}},
		{name: "zero cache size", args: []string{"--cache-size", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := loadConfig(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		addr     string
		wantAddr string
		wantDB   int
	}{
		{addr: "localhost:6379", wantAddr: "localhost:6379"},
		{addr: "redis://cache:6380/2", wantAddr: "cache:6380", wantDB: 2},
	}

	for _, tt := range tests {
		opts, err := redisOptions(tt.addr)
		if err != nil {
			t.Fatalf("redisOptions(%q) failed: %v", tt.addr, err)
		}
		if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
			t.Errorf("redisOptions(%q) = %s/%d, want %s/%d", tt.addr, opts.Addr, opts.DB, tt.wantAddr, tt.wantDB)
		}
	}

	if _, err := redisOptions("redis://cache:notaport"); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestBuiltinTemplates(t *testing.T) {
	templates, err := templateFS("")
	if err != nil {
		t.Fatalf("templateFS failed: %v", err)
	}
	engine := stylesheet.NewEngine(templates, stylesheet.WithData(map[string]string{"Accent": "#123456"}))

	for _, route := range newDirectiveTable().Routes() {
		d, _, _ := newDirectiveTable().Resolve(route)
		text, err := engine.Render(context.Background(), d.Stylesheet)
		if err != nil {
			t.Errorf("route %s: stylesheet %s failed: %v", route, d.Stylesheet, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			t.Errorf("route %s: empty stylesheet", route)
		}
	}

	if _, err := templateFS("/definitely/not/here"); err == nil {
		t.Error("expected error for missing template dir")
	}
}
