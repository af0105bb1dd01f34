// Package transcript defines timed caption data and the contract for
// services that supply it.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// DefaultLanguages is the language preference used for every fetch.
var DefaultLanguages = []string{"en"}

var (
	// ErrTranscriptsDisabled means the uploader turned captions off.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrNoTranscriptFound means no track exists for the requested languages.
	ErrNoTranscriptFound = errors.New("no transcript found for the requested languages")
	// ErrVideoUnavailable means the video is private, removed or does not exist.
	ErrVideoUnavailable = errors.New("video is unavailable")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidVideoID reports whether id is safe to use as a lookup and storage key.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// Segment is one timed unit of spoken text. Start and Duration are seconds.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Transcript is an ordered list of segments for one video.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Title    string    `json:"title,omitempty"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Provider fetches a transcript for a video. languages is ordered by preference.
type Provider interface {
	Fetch(ctx context.Context, videoID string, languages []string) (*Transcript, error)
}

// UnavailableError carries the upstream reason a transcript could not be produced.
// It unwraps to one of ErrTranscriptsDisabled, ErrNoTranscriptFound or ErrVideoUnavailable.
type UnavailableError struct {
	VideoID string
	Reason  string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("video %s: %s", e.VideoID, e.Detail())
}

// Detail describes the failure without naming the video.
func (e *UnavailableError) Detail() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsMissing reports whether err means the video has no transcript to serve.
// An unavailable video is not included; it is an upstream failure.
func IsMissing(err error) bool {
	return errors.Is(err, ErrTranscriptsDisabled) || errors.Is(err, ErrNoTranscriptFound)
}
