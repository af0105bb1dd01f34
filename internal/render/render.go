// Package render turns a transcript into a static HTML page.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/tubetext/tubetext/internal/transcript"
)

const watchURLPrefix = "https://youtube.com/watch?v="

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<meta charset="utf-8">
<title>Transcript – {{.Title}}</title>
<link rel="canonical" href="{{.CanonicalURL}}">
<style>body{font:16px/1.5 system-ui} pre{white-space:pre-wrap}</style>
<h1>{{.Title}}</h1>
<pre id=transcript>{{.Body}}</pre>
</html>
`))

type pageData struct {
	Title        string
	CanonicalURL string
	Body         string
}

// DefaultTitle is used when the provider has no display name for the video.
func DefaultTitle(videoID string) string {
	return "YouTube Video " + videoID
}

// WatchURL returns the public watch URL for a video.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// FormatTimestamp renders seconds rounded half away from zero to one decimal,
// zero-padded to six characters including the point: 61.25 -> "0061.3".
func FormatTimestamp(seconds float64) string {
	rounded := math.Round(seconds*10) / 10
	if rounded == 0 {
		// drops the sign of negative zero
		rounded = 0
	}
	return fmt.Sprintf("%06.1f", rounded)
}

// Lines renders one "{timestamp}  {text}" line per segment, in order.
func Lines(segments []transcript.Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(FormatTimestamp(s.Start))
		b.WriteString("  ")
		b.WriteString(s.Text)
	}
	return b.String()
}

// Page renders the full document. Title and segment text are HTML-escaped.
func Page(title, videoID string, segments []transcript.Segment) ([]byte, error) {
	if title == "" {
		title = DefaultTitle(videoID)
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Title:        title,
		CanonicalURL: WatchURL(videoID),
		Body:         Lines(segments),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
