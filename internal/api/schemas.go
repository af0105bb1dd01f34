package api

import (
	"time"

	"github.com/tubetext/tubetext/internal/catalog"
)

type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	UptimeS      int64  `json:"uptime_s"`
	CachedPages  int    `json:"cached_pages"`
	CatalogPages int    `json:"catalog_pages"`
}

type PageResponse struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Language     string `json:"language"`
	SegmentCount int    `json:"segment_count"`
	SizeBytes    int64  `json:"size_bytes"`
	RenderCount  int    `json:"render_count"`
	RenderedAt   string `json:"rendered_at"`
	URL          string `json:"url"`
}

type PagesResponse struct {
	Pages []PageResponse `json:"pages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func PageToResponse(p *catalog.Page) PageResponse {
	return PageResponse{
		VideoID:      p.VideoID,
		Title:        p.Title,
		Language:     p.Language,
		SegmentCount: p.SegmentCount,
		SizeBytes:    p.SizeBytes,
		RenderCount:  p.RenderCount,
		RenderedAt:   p.RenderedAt.Format(time.RFC3339),
		URL:          "/v/" + p.VideoID + ".html",
	}
}
