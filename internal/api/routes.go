package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tubetext/tubetext/internal/catalog"
	"github.com/tubetext/tubetext/internal/pages"
)

const (
	defaultPagesLimit = 50
	maxPagesLimit     = 500
)

// PageService serves transcript pages.
type PageService interface {
	Serve(ctx context.Context, videoID string) (*pages.Result, error)
}

// PageCounter reports how many pages are cached.
type PageCounter interface {
	Count() (int, error)
}

type ServerConfig struct {
	Addr            string
	ProviderTimeout time.Duration
	Pages           PageService
	Cache           PageCounter
	Catalog         catalog.Repository
	Logger          *slog.Logger
	StartTime       time.Time
	Version         string
}

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/pages", listPagesHandler(cfg))
	r.Get("/pages/{videoID}", getPageHandler(cfg))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/v/{videoID}.html", transcriptPageHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		}
		if cfg.Cache != nil {
			if n, err := cfg.Cache.Count(); err == nil {
				resp.CachedPages = n
			} else {
				cfg.Logger.Warn("failed to count cached pages", "error", err)
			}
		}
		if cfg.Catalog != nil {
			if n, err := cfg.Catalog.CountPages(r.Context()); err == nil {
				resp.CatalogPages = n
			} else {
				cfg.Logger.Warn("failed to count catalog pages", "error", err)
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listPagesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Catalog == nil {
			WriteJSON(w, http.StatusOK, PagesResponse{Pages: []PageResponse{}})
			return
		}

		limit := defaultPagesLimit
		if l := r.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = min(n, maxPagesLimit)
		}

		list, err := cfg.Catalog.ListPages(r.Context(), limit)
		if err != nil {
			cfg.Logger.Error("failed to list pages", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list pages", "INTERNAL_ERROR")
			return
		}

		resp := PagesResponse{Pages: make([]PageResponse, len(list))}
		for i, p := range list {
			resp.Pages[i] = PageToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getPageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := chi.URLParam(r, "videoID")
		if cfg.Catalog == nil {
			WriteError(w, http.StatusNotFound, "page not found", "NOT_FOUND")
			return
		}

		page, err := cfg.Catalog.GetPage(r.Context(), videoID)
		if err != nil {
			cfg.Logger.Error("failed to get page", "video_id", videoID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to get page", "INTERNAL_ERROR")
			return
		}
		if page == nil {
			WriteError(w, http.StatusNotFound, "page not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, PageToResponse(page))
	}
}

func transcriptPageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := chi.URLParam(r, "videoID")

		result, err := cfg.Pages.Serve(r.Context(), videoID)
		if err != nil {
			status := pages.StatusCode(err)
			WriteError(w, status, err.Error(), errorCode(status))
			return
		}

		if result.CacheHit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		WriteHTML(w, http.StatusOK, result.Body)
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}
