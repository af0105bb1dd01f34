package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tubetext/tubetext/internal/cache"
	"github.com/tubetext/tubetext/internal/catalog"
	"github.com/tubetext/tubetext/internal/pages"
	"github.com/tubetext/tubetext/internal/transcript"
)

type fakePageService struct {
	result *pages.Result
	err    error
	gotID  string
}

func (f *fakePageService) Serve(ctx context.Context, videoID string) (*pages.Result, error) {
	f.gotID = videoID
	return f.result, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f *fakeCounter) Count() (int, error) {
	return f.n, f.err
}

type fakeRepo struct {
	pages    []*catalog.Page
	err      error
	gotLimit int
}

func (f *fakeRepo) UpsertPage(ctx context.Context, page *catalog.Page) error {
	f.pages = append(f.pages, page)
	return nil
}

func (f *fakeRepo) GetPage(ctx context.Context, videoID string) (*catalog.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.pages {
		if p.VideoID == videoID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListPages(ctx context.Context, limit int) ([]*catalog.Page, error) {
	f.gotLimit = limit
	return f.pages, f.err
}

func (f *fakeRepo) CountPages(ctx context.Context) (int, error) {
	return len(f.pages), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(svc PageService) ServerConfig {
	return ServerConfig{
		Pages:     svc,
		Cache:     &fakeCounter{n: 3},
		Catalog:   &fakeRepo{},
		Logger:    testLogger(),
		StartTime: time.Now().Add(-10 * time.Second),
		Version:   "test",
	}
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

func TestTranscriptPage_Success(t *testing.T) {
	svc := &fakePageService{result: &pages.Result{VideoID: "abc123", Body: []byte("<html>page</html>")}}
	router := NewRouter(testConfig(svc))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v/abc123.html", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if svc.gotID != "abc123" {
		t.Errorf("video id = %q, want abc123", svc.gotID)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", rr.Header().Get("X-Cache"))
	}
	if rr.Body.String() != "<html>page</html>" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestTranscriptPage_CacheHitHeader(t *testing.T) {
	svc := &fakePageService{result: &pages.Result{VideoID: "abc123", Body: []byte("x"), CacheHit: true}}
	router := NewRouter(testConfig(svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v/abc123.html", nil))

	if rr.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", rr.Header().Get("X-Cache"))
	}
}

func TestTranscriptPage_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"not found", &pages.Error{Status: http.StatusNotFound, Message: "No transcript found for video abc123: disabled"}, http.StatusNotFound, "NOT_FOUND"},
		{"bad request", &pages.Error{Status: http.StatusBadRequest, Message: "Invalid video id"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"internal", &pages.Error{Status: http.StatusInternalServerError, Message: "Internal server error: boom"}, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(testConfig(&fakePageService{err: tt.err}))

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v/abc123.html", nil))

			if rr.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rr.Code, tt.wantCode)
			}
			body := decodeJSONBody(t, rr)
			if body["code"] != tt.wantTag {
				t.Errorf("code = %v, want %s", body["code"], tt.wantTag)
			}
			if body["error"] != tt.err.Error() {
				t.Errorf("error = %v, want %q", body["error"], tt.err.Error())
			}
		})
	}
}

func TestTranscriptPage_UnknownRoute(t *testing.T) {
	router := NewRouter(testConfig(&fakePageService{}))

	for _, path := range []string{"/v/abc123", "/v/abc123.txt", "/watch"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rr.Code)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	router := NewRouter(testConfig(&fakePageService{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["cached_pages"] != float64(3) {
		t.Errorf("cached_pages = %v, want 3", body["cached_pages"])
	}
	if body["catalog_pages"] != float64(0) {
		t.Errorf("catalog_pages = %v, want 0", body["catalog_pages"])
	}
	if uptime, _ := body["uptime_s"].(float64); uptime < 10 {
		t.Errorf("uptime_s = %v, want >= 10", body["uptime_s"])
	}
}

func TestListPagesHandler(t *testing.T) {
	repo := &fakeRepo{pages: []*catalog.Page{
		{VideoID: "abc123", Title: "YouTube Video abc123", SegmentCount: 2, RenderCount: 1, RenderedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
	}}
	cfg := testConfig(&fakePageService{})
	cfg.Catalog = repo
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages?limit=9999", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if repo.gotLimit != maxPagesLimit {
		t.Errorf("limit = %d, want clamp to %d", repo.gotLimit, maxPagesLimit)
	}

	var resp PagesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Pages) != 1 || resp.Pages[0].URL != "/v/abc123.html" {
		t.Errorf("pages = %+v", resp.Pages)
	}
	if resp.Pages[0].RenderedAt != "2026-10-01T00:00:00Z" {
		t.Errorf("rendered_at = %q", resp.Pages[0].RenderedAt)
	}
}

func TestHealthHandler_CatalogPages(t *testing.T) {
	cfg := testConfig(&fakePageService{})
	cfg.Catalog = &fakeRepo{pages: []*catalog.Page{{VideoID: "a"}, {VideoID: "b"}}}
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	body := decodeJSONBody(t, rr)
	if body["catalog_pages"] != float64(2) {
		t.Errorf("catalog_pages = %v, want 2", body["catalog_pages"])
	}
}

func TestGetPageHandler(t *testing.T) {
	cfg := testConfig(&fakePageService{})
	cfg.Catalog = &fakeRepo{pages: []*catalog.Page{
		{VideoID: "abc123", Title: "Rick", Language: "en", SegmentCount: 4, RenderCount: 2},
	}}
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages/abc123", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp PageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "Rick" || resp.RenderCount != 2 || resp.URL != "/v/abc123.html" {
		t.Errorf("page = %+v", resp)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing page status = %d, want 404", rr.Code)
	}
}

func TestGetPageHandler_RepositoryError(t *testing.T) {
	cfg := testConfig(&fakePageService{})
	cfg.Catalog = &fakeRepo{err: errors.New("database is locked")}
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages/abc123", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "locked") {
		t.Errorf("body leaks repository error: %s", rr.Body.String())
	}
}

func TestListPagesHandler_BadLimit(t *testing.T) {
	router := NewRouter(testConfig(&fakePageService{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages?limit=-1", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestListPagesHandler_NoCatalog(t *testing.T) {
	cfg := testConfig(&fakePageService{})
	cfg.Catalog = nil
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"pages":[]`) {
		t.Errorf("body = %s, want empty list", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(testConfig(&fakePageService{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "tubetext_cache_write_failures_total") {
		t.Error("tubetext metrics missing from exposition")
	}
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Fetch(ctx context.Context, videoID string, languages []string) (*transcript.Transcript, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &transcript.Transcript{
		VideoID:  videoID,
		Language: "en",
		Segments: []transcript.Segment{{Start: 0, Text: "Hello"}, {Start: 61.25, Text: "World"}},
	}, nil
}

func TestTranscriptPage_EndToEnd(t *testing.T) {
	store, err := cache.NewStore(filepath.Join(t.TempDir(), "cache"), testLogger())
	if err != nil {
		t.Fatalf("cache.NewStore() error = %v", err)
	}
	provider := &countingProvider{}
	svc := pages.NewService(pages.Config{Store: store, Provider: provider, Logger: testLogger()})

	cfg := testConfig(svc)
	cfg.Cache = store
	router := NewRouter(cfg)

	var bodies []string
	for i, want := range []string{"MISS", "HIT"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v/abc123.html", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rr.Code)
		}
		if got := rr.Header().Get("X-Cache"); got != want {
			t.Errorf("request %d X-Cache = %q, want %q", i, got, want)
		}
		bodies = append(bodies, rr.Body.String())
	}

	if bodies[0] != bodies[1] {
		t.Error("cached response differs from rendered response")
	}
	if !strings.Contains(bodies[0], "061.3  World") {
		t.Errorf("rendered body missing segment line:\n%s", bodies[0])
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v/bad%2Fid.html", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("encoded separator status = %d, want 400", rr.Code)
	}
	if provider.calls != 1 {
		t.Errorf("provider called for an invalid id")
	}
}

func TestTranscriptPage_EndToEndNotFound(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("cache.NewStore() error = %v", err)
	}
	provider := &countingProvider{err: &transcript.UnavailableError{VideoID: "nocaps", Err: transcript.ErrTranscriptsDisabled}}
	svc := pages.NewService(pages.Config{Store: store, Provider: provider, Logger: testLogger()})
	router := NewRouter(testConfig(svc))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v/nocaps.html", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want 404", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "nocaps") || !strings.Contains(msg, "disabled") {
		t.Errorf("error = %q, want video id and reason", msg)
	}
	if store.Exists("nocaps") {
		t.Error("cache entry created for missing transcript")
	}
}
