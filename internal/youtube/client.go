// Package youtube implements transcript.Provider against the public YouTube
// watch page and its timedtext caption endpoint.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/tubetext/tubetext/internal/transcript"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	maxWatchPageBytes = 8 << 20
	maxCaptionBytes   = 4 << 20
	playerVar         = "ytInitialPlayerResponse"
)

// StatusError is returned when YouTube answers with an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("youtube request %s failed: HTTP %d", e.URL, e.StatusCode)
}

// Client fetches transcripts from YouTube.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     *bluemonday.Policy
	logger     *slog.Logger
}

// NewClient returns a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy: bluemonday.StrictPolicy(),
		logger: logger,
	}
}

// Fetch implements transcript.Provider.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) (*transcript.Transcript, error) {
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	body, err := c.get(ctx, watchURL, maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	page, err := parseWatchPage(body)
	if err != nil {
		return nil, fmt.Errorf("parse watch page for %s: %w", videoID, err)
	}

	player := page.player
	if status := player.PlayabilityStatus.Status; status != "" && status != "OK" {
		reason := player.PlayabilityStatus.Reason
		if reason == "" {
			reason = status
		}
		return nil, &transcript.UnavailableError{VideoID: videoID, Reason: reason, Err: transcript.ErrVideoUnavailable}
	}

	tracks := player.captionTracks()
	if len(tracks) == 0 {
		return nil, &transcript.UnavailableError{VideoID: videoID, Err: transcript.ErrTranscriptsDisabled}
	}

	track, ok := selectTrack(tracks, languages)
	if !ok {
		return nil, &transcript.UnavailableError{
			VideoID: videoID,
			Reason: fmt.Sprintf("requested languages %s, available languages %s",
				strings.Join(languages, ", "), strings.Join(trackLanguages(tracks), ", ")),
			Err: transcript.ErrNoTranscriptFound,
		}
	}

	captionURL, err := c.resolve(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("caption track url: %w", err)
	}

	raw, err := c.get(ctx, captionURL, maxCaptionBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}

	segments, err := parseTimedText(raw, c.cleanText)
	if err != nil {
		return nil, fmt.Errorf("parse caption track for %s: %w", videoID, err)
	}

	title := page.title
	if title == "" {
		title = player.VideoDetails.Title
	}

	c.logger.Debug("transcript fetched",
		"video_id", videoID,
		"language", track.LanguageCode,
		"kind", track.Kind,
		"segments", len(segments),
	)

	return &transcript.Transcript{
		VideoID:  videoID,
		Title:    title,
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

// captionMarkup matches the escaped styling tags YouTube embeds in caption
// text. Any other escaped '<' is caption content.
var captionMarkup = regexp.MustCompile(`&lt;(/?(?:font|i|b|u)\b.*?)&gt;`)

// cleanText strips caption styling markup and decodes entities. Only the known
// styling tags are turned back into markup before sanitizing, so a literal
// "a&lt;b" in a caption survives as "a<b".
func (c *Client) cleanText(raw string) string {
	marked := captionMarkup.ReplaceAllString(raw, "<$1>")
	return strings.TrimSpace(html.UnescapeString(html.UnescapeString(c.policy.Sanitize(marked))))
}

func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", err
	}
	// srv3 is a richer format with a different schema; ask for the plain one.
	q := u.Query()
	if q.Get("fmt") == "srv3" {
		q.Del("fmt")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: redact(rawURL), StatusCode: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// redact drops the query string, which for caption tracks carries signatures.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

type watchPage struct {
	title  string
	player *playerResponse
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
	Captions *struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (p *playerResponse) captionTracks() []captionTrack {
	if p.Captions == nil {
		return nil
	}
	return p.Captions.Renderer.CaptionTracks
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	// Kind is "asr" for auto-generated tracks and empty for uploaded ones.
	Kind string `json:"kind"`
}

func parseWatchPage(body []byte) (*watchPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := &watchPage{}
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		page.title = strings.TrimSpace(title)
	}
	if page.title == "" {
		if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok {
			page.title = strings.TrimSpace(title)
		}
	}

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerVar)
		if idx < 0 {
			return true
		}
		start := strings.IndexByte(text[idx:], '{')
		if start < 0 {
			return true
		}
		var player playerResponse
		// Decode reads exactly one value and ignores the trailing script.
		if err := json.NewDecoder(strings.NewReader(text[idx+start:])).Decode(&player); err != nil {
			return true
		}
		page.player = &player
		return false
	})

	if page.player == nil {
		return nil, fmt.Errorf("%s not found", playerVar)
	}
	return page, nil
}
