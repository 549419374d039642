// Package session holds the per-stream tracking state: the active color
// window, the accumulated centroid path and frame statistics.
package session

import (
	"image"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shadow1runner/ColorBasedTracking/internal/colorspace"
	"github.com/shadow1runner/ColorBasedTracking/internal/tracker"
)

// ErrNotCalibrated is returned by Process before the first successful calibration.
var ErrNotCalibrated = errors.New("session not calibrated")

// Stats counts processed frames.
type Stats struct {
	Frames             int
	Hits               int
	Misses             int
	Calibrations       int
	FailedCalibrations int
}

// Session drives one tracked object across a frame stream. Calibrate and
// SetRadius may be called from another goroutine; the new window applies from
// the next Process call on.
type Session struct {
	ID uuid.UUID

	tracker    *tracker.Tracker
	calibrator tracker.Calibrator
	logger     *slog.Logger

	mu         sync.Mutex
	radius     tracker.Scalar
	window     tracker.ColorWindow
	calibrated bool
	path       tracker.Path
	last       *tracker.Target
	stats      Stats
}

// New creates a session. A nil logger falls back to slog.Default().
func New(t *tracker.Tracker, c tracker.Calibrator, radius tracker.Scalar, logger *slog.Logger) *Session {
	if t == nil {
		t = tracker.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Session{
		ID:         id,
		tracker:    t,
		calibrator: c,
		radius:     radius,
		logger:     logger.With("session", id.String()),
	}
}

// Calibrate samples the reference color at pt and replaces the active window.
// On failure the previous window stays active.
func (s *Session) Calibrate(frame *colorspace.Image, pt image.Point) (tracker.ColorWindow, error) {
	ref, err := s.calibrator.Calibrate(frame, pt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.stats.FailedCalibrations++
		s.logger.Warn("calibration failed", "point", pt, "error", err)
		return s.window, err
	}

	s.window = tracker.NewColorWindow(ref, s.radius)
	s.calibrated = true
	s.stats.Calibrations++
	s.logger.Info("calibrated", "point", pt, "window", s.window.String())
	return s.window, nil
}

// SetRadius changes the tolerance. An active window is recomputed around its
// current reference color.
func (s *Session) SetRadius(radius tracker.Scalar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.radius = radius
	if s.calibrated {
		s.window = s.window.WithRadius(radius)
	}
}

// Process tracks the calibrated color in frame. A found target is appended to
// the path; a miss leaves the last target unchanged and returns
// tracker.ErrNoRegionFound together with the masks.
func (s *Session) Process(frame *colorspace.Image) (tracker.Result, error) {
	s.mu.Lock()
	if !s.calibrated {
		s.mu.Unlock()
		return tracker.Result{}, ErrNotCalibrated
	}
	window := s.window
	s.mu.Unlock()

	res, err := s.tracker.Track(frame, window)

	s.mu.Lock()
	defer s.mu.Unlock()

	if errors.Is(err, tracker.ErrEmptyFrame) {
		return res, err
	}
	s.stats.Frames++
	if err != nil {
		s.stats.Misses++
		return res, err
	}

	s.stats.Hits++
	s.path.Append(res.Target.Centroid)
	target := *res.Target
	s.last = &target
	return res, nil
}

// Calibrated reports whether a color window is active.
func (s *Session) Calibrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibrated
}

// Window returns the active color window and whether one is set.
func (s *Session) Window() (tracker.ColorWindow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window, s.calibrated
}

// Path returns a copy of the centroids recorded so far.
func (s *Session) Path() []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path.Points()
}

// Last returns the most recent successful target.
func (s *Session) Last() (tracker.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return tracker.Target{}, false
	}
	return *s.last, true
}

// Stats returns the frame counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Reset drops the window, path, last target and counters. The session must be
// calibrated again before Process succeeds.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window = tracker.ColorWindow{}
	s.calibrated = false
	s.path = tracker.Path{}
	s.last = nil
	s.stats = Stats{}
	s.logger.Info("session reset")
}
