// Package capture owns the microphone for speaking practice.
//
// A Controller drives one recording attempt at a time against a Source. The
// Source grants a Stream (the platform microphone); the Controller buffers
// the stream's chunks in arrival order, finalizes them into a single
// RecordingArtifact, and always releases the stream's device resources, on
// Stop and on Abort alike.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/core/types"
	"github.com/vango-go/vai-speak/pkg/metrics"
)

var (
	// ErrPermissionDenied is returned when the platform refuses microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable is returned when no usable capture device exists.
	ErrDeviceUnavailable = errors.New("microphone unavailable")
	// ErrAlreadyRecording is returned by Start while an attempt is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording is returned by Stop when no attempt is active.
	ErrNotRecording = errors.New("no recording in progress")
	// ErrEmptyRecording is returned by Stop when no audio was captured.
	ErrEmptyRecording = errors.New("recording is empty")
	// ErrFinalizeTimeout is returned when a stream does not drain in time.
	ErrFinalizeTimeout = errors.New("timed out finalizing recording")
	// ErrAborted is returned by a Start that was aborted while opening.
	ErrAborted = errors.New("recording aborted")
)

// DefaultFinalizeTimeout bounds how long Stop waits for a stream to drain.
const DefaultFinalizeTimeout = 5 * time.Second

// Source grants access to a microphone.
type Source interface {
	// Open acquires the microphone and starts producing audio. Refusals wrap
	// ErrPermissionDenied or ErrDeviceUnavailable.
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live microphone grant.
type Stream interface {
	// Chunks yields audio in arrival order. It is closed after the final
	// chunk once Finalize or Release has been called.
	Chunks() <-chan []byte

	// Finalize asks the recorder to flush and stop producing chunks.
	Finalize()

	// Release stops every acquired device track. It is idempotent.
	Release() error

	// Active reports whether any device track is still live.
	Active() bool

	// Encoding describes the bytes produced on Chunks.
	Encoding() Encoding
}

// Encoding describes how a stream's concatenated chunks become an artifact.
type Encoding struct {
	MIMEType   string
	FileName   string
	SampleRate int
	Channels   int

	// Wrap turns the concatenated chunks into the final file bytes, e.g. by
	// adding a container header. Nil means the chunks are already a file.
	Wrap func(data []byte) []byte
}

// Handle identifies an active recording attempt.
type Handle struct {
	ID        string
	StartedAt time.Time
	MIMEType  string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithFinalizeTimeout bounds how long Stop waits for the stream to drain.
func WithFinalizeTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.finalizeTimeout = d
		}
	}
}

// WithMaxDuration finalizes a recording automatically after d. The artifact
// is still returned by the next Stop.
func WithMaxDuration(d time.Duration) Option {
	return func(c *Controller) {
		c.maxDuration = d
	}
}

// Controller owns the lifetime of one microphone grant per recording attempt.
type Controller struct {
	source          Source
	logger          *zap.Logger
	metrics         *metrics.Metrics
	finalizeTimeout time.Duration
	maxDuration     time.Duration
	now             func() time.Time

	mu        sync.Mutex
	active    *attempt
	opening   bool
	abortOpen bool
}

type attempt struct {
	id        string
	stream    Stream
	encoding  Encoding
	startedAt time.Time
	autoStop  *time.Timer

	mu     sync.Mutex
	chunks [][]byte
	size   int
	done   chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

// NewController creates a Controller reading from source.
func NewController(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:          source,
		logger:          zap.NewNop(),
		finalizeTimeout: DefaultFinalizeTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recording reports whether an attempt is active or opening.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil || c.opening
}

// Start acquires the microphone and begins buffering. It returns once the
// collector is running. The controller lock is not held while the source is
// opening, so Abort can cancel a pending grant.
func (c *Controller) Start(ctx context.Context) (Handle, error) {
	c.mu.Lock()
	if c.active != nil || c.opening {
		c.mu.Unlock()
		return Handle{}, ErrAlreadyRecording
	}
	if c.source == nil {
		c.mu.Unlock()
		return Handle{}, fmt.Errorf("%w: no capture source configured", ErrDeviceUnavailable)
	}
	c.opening = true
	c.abortOpen = false
	c.mu.Unlock()

	stream, err := c.source.Open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	aborted := c.abortOpen
	c.opening = false
	c.abortOpen = false

	if err != nil {
		c.logger.Warn("microphone open failed", zap.Error(err))
		return Handle{}, classifyOpenError(err)
	}
	if aborted {
		_ = stream.Release()
		return Handle{}, ErrAborted
	}
	if !stream.Active() {
		_ = stream.Release()
		return Handle{}, fmt.Errorf("%w: stream has no live tracks", ErrDeviceUnavailable)
	}

	a := &attempt{
		id:        uuid.NewString(),
		stream:    stream,
		encoding:  stream.Encoding(),
		startedAt: c.now(),
		done:      make(chan struct{}),
	}
	go a.collect()

	if c.maxDuration > 0 {
		a.autoStop = time.AfterFunc(c.maxDuration, func() {
			c.logger.Info("recording reached max duration", zap.String("attempt_id", a.id), zap.Duration("max_duration", c.maxDuration))
			stream.Finalize()
		})
	}

	c.active = a
	c.metrics.RecordRecordingStart()
	c.logger.Debug("recording started", zap.String("attempt_id", a.id), zap.String("mime_type", a.encoding.MIMEType))

	return Handle{ID: a.id, StartedAt: a.startedAt, MIMEType: a.encoding.MIMEType}, nil
}

// Stop finalizes the attempt identified by id and returns its artifact. The
// stream is released on every path. An id that does not name the active
// attempt returns ErrNotRecording and leaves the active attempt alone.
func (c *Controller) Stop(ctx context.Context, id string) (*types.RecordingArtifact, error) {
	a := c.takeAttempt(id)
	if a == nil {
		return nil, ErrNotRecording
	}

	a.stream.Finalize()

	timer := time.NewTimer(c.finalizeTimeout)
	defer timer.Stop()

	select {
	case <-a.done:
	case <-ctx.Done():
		c.finish(a, "cancelled")
		return nil, ctx.Err()
	case <-timer.C:
		c.finish(a, "timeout")
		return nil, ErrFinalizeTimeout
	}

	data, size := a.concat()
	if err := c.finish(a, "stopped"); err != nil {
		c.logger.Warn("microphone release failed", zap.String("attempt_id", a.id), zap.Error(err))
	}
	if size == 0 {
		return nil, ErrEmptyRecording
	}
	if a.encoding.Wrap != nil {
		data = a.encoding.Wrap(data)
	}

	return &types.RecordingArtifact{
		Data:      data,
		MIMEType:  a.encoding.MIMEType,
		FileName:  a.encoding.FileName,
		Duration:  c.now().Sub(a.startedAt),
		AttemptID: a.id,
	}, nil
}

// Abort force-stops the active attempt, discarding its audio. A Start still
// waiting on the source fails with ErrAborted. Abort is a no-op when idle.
func (c *Controller) Abort() error {
	c.mu.Lock()
	if c.opening {
		c.abortOpen = true
	}
	c.mu.Unlock()

	a := c.take()
	if a == nil {
		return nil
	}
	return c.finish(a, "aborted")
}

// Cancel aborts the attempt identified by id. It is a no-op when that
// attempt has already ended, so a late caller cannot end a newer recording.
func (c *Controller) Cancel(id string) error {
	a := c.takeAttempt(id)
	if a == nil {
		return nil
	}
	return c.finish(a, "aborted")
}

func (c *Controller) take() *attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.active
	c.active = nil
	return a
}

func (c *Controller) takeAttempt(id string) *attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.active
	if a == nil || a.id != id {
		return nil
	}
	c.active = nil
	return a
}

func (c *Controller) finish(a *attempt, outcome string) error {
	a.releaseOnce.Do(func() {
		if a.autoStop != nil {
			a.autoStop.Stop()
		}
		a.releaseErr = a.stream.Release()

		a.mu.Lock()
		size := a.size
		a.mu.Unlock()

		c.metrics.RecordRecordingEnd(outcome, size, c.now().Sub(a.startedAt))
		c.logger.Debug("recording finished",
			zap.String("attempt_id", a.id),
			zap.String("outcome", outcome),
			zap.Int("bytes", size),
		)
	})
	return a.releaseErr
}

func (a *attempt) collect() {
	defer close(a.done)
	for chunk := range a.stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		a.mu.Lock()
		a.chunks = append(a.chunks, chunk)
		a.size += len(chunk)
		a.mu.Unlock()
	}
}

func (a *attempt) concat() ([]byte, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, 0, a.size)
	for _, chunk := range a.chunks {
		out = append(out, chunk...)
	}
	a.chunks = nil
	return out, len(out)
}

func classifyOpenError(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}
