package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/example/nail-salon/internal/capture"
	"github.com/example/nail-salon/internal/color"
	"github.com/example/nail-salon/internal/imageprocessor"
	"github.com/example/nail-salon/internal/logging"
)

// ErrSubmitUnavailable is returned by Submit when there is no captured image
// or an upload is already in flight.
var ErrSubmitUnavailable = errors.New("submit unavailable")

// Camera takes a picture after checking permission. capture.Camera
// implements it.
type Camera interface {
	Take(ctx context.Context) (*capture.Image, error)
}

// Session holds the view-state of one hand-photo screen: the captured image,
// the selected color, the loading flag, the last processed image and the
// pending notice. It is safe for concurrent use.
type Session struct {
	camera    Camera
	processor imageprocessor.Client
	logger    *zap.Logger

	mu         sync.Mutex
	image      *capture.Image
	generation uint64 // bumped on every successful capture
	color      color.Color
	loading    bool
	processed  []byte
	notice     *Notice
}

// Option customises a Session.
type Option func(*Session)

// WithInitialColor overrides the default starting selection.
func WithInitialColor(c color.Color) Option {
	return func(s *Session) {
		s.color = c
	}
}

// NewSession creates a session with the default color selected and nothing captured.
func NewSession(camera Camera, processor imageprocessor.Client, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		camera:    camera,
		processor: processor,
		logger:    logger.Named("session"),
		color:     color.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture takes a new photo. On success the previous photo and any processed
// result are replaced. A denied permission leaves a notice offering to open
// the settings; a cancelled capture leaves the state untouched.
func (s *Session) Capture(ctx context.Context) error {
	img, err := s.camera.Take(ctx)
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		s.setNotice(permissionNotice())
		return err
	case errors.Is(err, capture.ErrCancelled):
		return err
	case err != nil:
		return logging.NewOperationError("session.capture", "", err)
	case img == nil || len(img.Data) == 0:
		return logging.NewOperationError("session.capture", "", imageprocessor.ErrEmptyImage)
	}

	s.mu.Lock()
	s.image = img
	s.generation++
	s.processed = nil
	s.mu.Unlock()

	s.logger.Debug("photo captured", zap.String("name", img.Name), zap.Int("bytes", len(img.Data)))
	return nil
}

// SelectColor replaces the current selection.
func (s *Session) SelectColor(c color.Color) {
	s.mu.Lock()
	s.color = c
	s.mu.Unlock()
}

// Color returns the current selection.
func (s *Session) Color() color.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// Loading reports whether an upload is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CanSubmit reports whether the submit action is available: a photo has been
// captured and no upload is in flight.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *Session) canSubmitLocked() bool {
	return s.image != nil && !s.loading
}

// Image returns the captured photo, or nil.
func (s *Session) Image() *capture.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Processed returns the bytes of the last successful upload, or nil.
func (s *Session) Processed() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed
}

type submission struct {
	image      []byte
	color      color.Color
	generation uint64
}

// Submit uploads the captured photo with the selected color and waits for
// the outcome. The upload is not cancelled when ctx is; once started it runs
// to completion or failure. Failures are also left as a notice.
func (s *Session) Submit(ctx context.Context) error {
	sub, err := s.begin()
	if err != nil {
		return err
	}
	return s.run(ctx, sub)
}

// SubmitAsync starts the upload and returns immediately. The loading flag is
// already set when it returns. The channel receives the outcome once.
func (s *Session) SubmitAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	sub, err := s.begin()
	if err != nil {
		done <- err
		close(done)
		return done
	}

	go func() {
		done <- s.run(ctx, sub)
		close(done)
	}()
	return done
}

func (s *Session) begin() (submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canSubmitLocked() {
		return submission{}, ErrSubmitUnavailable
	}
	s.loading = true
	s.notice = nil
	return submission{image: s.image.Data, color: s.color, generation: s.generation}, nil
}

func (s *Session) run(ctx context.Context, sub submission) error {
	s.logger.Debug("submitting photo", zap.String("color", sub.color.String()), zap.Int("bytes", len(sub.image)))

	processed, err := s.processor.Submit(context.WithoutCancel(ctx), sub.image, sub.color)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	if err != nil {
		s.notice = uploadNotice(err)
		return err
	}
	// A photo taken while the upload was in flight wins over the result.
	if sub.generation == s.generation {
		s.processed = processed
	}
	return nil
}
