package catalog

import "time"

// Page is the catalog record for a rendered transcript page. The page file in
// the cache directory is authoritative; this row only describes it.
type Page struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Language     string    `json:"language"`
	SegmentCount int       `json:"segment_count"`
	SizeBytes    int64     `json:"size_bytes"`
	RenderCount  int       `json:"render_count"`
	RenderedAt   time.Time `json:"rendered_at"`
}
