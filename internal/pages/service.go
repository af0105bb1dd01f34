// Package pages serves rendered transcript pages, cache first, and maps
// provider failures to HTTP status codes.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tubetext/tubetext/internal/catalog"
	"github.com/tubetext/tubetext/internal/logging"
	"github.com/tubetext/tubetext/internal/metrics"
	"github.com/tubetext/tubetext/internal/render"
	"github.com/tubetext/tubetext/internal/transcript"
)

// PageStore is the subset of cache.Store the service needs.
type PageStore interface {
	Exists(id string) bool
	Read(id string) ([]byte, error)
	Write(id string, page []byte) error
}

// PageIndex records rendered pages. Optional.
type PageIndex interface {
	UpsertPage(ctx context.Context, page *catalog.Page) error
}

// Error is a request failure with the HTTP status it maps to. Message is safe
// to show to clients.
type Error struct {
	Status  int
	VideoID string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps a Serve error to an HTTP status.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Status
	}
	return http.StatusInternalServerError
}

// Result is a successfully served page.
type Result struct {
	VideoID  string
	Body     []byte
	CacheHit bool
}

type Config struct {
	Store           PageStore
	Provider        transcript.Provider
	Index           PageIndex
	ProviderTimeout time.Duration
	Logger          *slog.Logger
}

// Service is safe for concurrent use. Apart from the cache directory it keeps
// no state between requests.
type Service struct {
	store           PageStore
	provider        transcript.Provider
	index           PageIndex
	providerTimeout time.Duration
	languages       []string
	logger          *slog.Logger
	now             func() time.Time
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:           cfg.Store,
		provider:        cfg.Provider,
		index:           cfg.Index,
		providerTimeout: cfg.ProviderTimeout,
		languages:       transcript.DefaultLanguages,
		logger:          logger,
		now:             time.Now,
	}
}

// Serve returns the page for videoID. A readable cache entry is returned as
// is; otherwise the transcript is fetched, rendered and written through.
func (s *Service) Serve(ctx context.Context, videoID string) (*Result, error) {
	if !transcript.ValidVideoID(videoID) {
		return nil, &Error{
			Status:  http.StatusBadRequest,
			VideoID: videoID,
			Message: "Invalid video id: must be 1-64 characters of A-Z, a-z, 0-9, '-' or '_'",
		}
	}

	logger := logging.WithVideoID(s.logger, videoID)

	if s.store.Exists(videoID) {
		body, err := s.store.Read(videoID)
		if err == nil {
			metrics.RecordCacheLookup(metrics.LookupHit)
			logger.Debug("cache hit")
			return &Result{VideoID: videoID, Body: body, CacheHit: true}, nil
		}
		metrics.RecordCacheLookup(metrics.LookupReadError)
		logger.Warn("cache read failed, regenerating", "error", err)
	} else {
		metrics.RecordCacheLookup(metrics.LookupMiss)
	}

	tr, err := s.fetch(ctx, videoID)
	if err != nil {
		return nil, s.classify(logger, videoID, err)
	}
	metrics.RecordProviderRequest(metrics.OutcomeOK)

	title := tr.Title
	if title == "" {
		title = render.DefaultTitle(videoID)
	}

	start := time.Now()
	body, err := render.Page(title, videoID, tr.Segments)
	if err != nil {
		logger.Error("render failed", "error", err)
		return nil, &Error{
			Status:  http.StatusInternalServerError,
			VideoID: videoID,
			Message: fmt.Sprintf("Internal server error: %v", err),
			Err:     err,
		}
	}
	metrics.ObserveRender(time.Since(start).Seconds())

	if err := s.store.Write(videoID, body); err != nil {
		metrics.RecordCacheWriteFailure()
		logger.Warn("cache write failed", "error", err)
	}

	s.record(ctx, logger, videoID, tr, title, len(body))

	logger.Info("transcript page rendered", "segments", len(tr.Segments), "bytes", len(body))
	return &Result{VideoID: videoID, Body: body}, nil
}

func (s *Service) fetch(ctx context.Context, videoID string) (*transcript.Transcript, error) {
	if s.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()
	}

	tr, err := s.provider.Fetch(ctx, videoID, s.languages)
	if err != nil {
		return nil, err
	}
	if tr == nil || len(tr.Segments) == 0 {
		return nil, &transcript.UnavailableError{
			VideoID: videoID,
			Reason:  "transcript is empty",
			Err:     transcript.ErrNoTranscriptFound,
		}
	}
	return tr, nil
}

func (s *Service) classify(logger *slog.Logger, videoID string, err error) error {
	if transcript.IsMissing(err) {
		metrics.RecordProviderRequest(metrics.OutcomeUnavailable)
		logger.Warn("no transcript available", "error", err)
		reason := err.Error()
		var uerr *transcript.UnavailableError
		if errors.As(err, &uerr) {
			reason = uerr.Detail()
		}
		return &Error{
			Status:  http.StatusNotFound,
			VideoID: videoID,
			Message: fmt.Sprintf("No transcript found for video %s: %s", videoID, reason),
			Err:     err,
		}
	}

	metrics.RecordProviderRequest(metrics.OutcomeError)
	logger.Error("transcript fetch failed", "error", err)
	return &Error{
		Status:  http.StatusInternalServerError,
		VideoID: videoID,
		Message: fmt.Sprintf("Internal server error: %v", err),
		Err:     err,
	}
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, videoID string, tr *transcript.Transcript, title string, size int) {
	if s.index == nil {
		return
	}
	err := s.index.UpsertPage(ctx, &catalog.Page{
		VideoID:      videoID,
		Title:        title,
		Language:     tr.Language,
		SegmentCount: len(tr.Segments),
		SizeBytes:    int64(size),
		RenderedAt:   s.now(),
	})
	if err != nil {
		logger.Warn("catalog update failed", "error", err)
	}
}
