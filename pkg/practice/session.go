// Package practice implements the speaking-practice session: choose a
// language, fetch a sentence, record the user saying it, and show the
// scorer's feedback.
//
// A Session holds exactly one State value. Transitions run on the caller's
// goroutine; the session lock is never held across a gateway or device call.
// While one asynchronous step is outstanding every other step except
// SelectLanguage, ChangeLanguage and Close fails with ErrBusy. Those three
// start a new epoch, and results belonging to an older epoch are discarded.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/capture"
	"github.com/vango-go/vai-speak/pkg/core"
	"github.com/vango-go/vai-speak/pkg/core/types"
	"github.com/vango-go/vai-speak/pkg/metrics"
)

// SentenceGenerator produces a practice sentence for a language.
type SentenceGenerator interface {
	GenerateSentence(ctx context.Context, language string) (types.Sentence, error)
}

// AudioScorer scores a recording against the sentence it should contain.
type AudioScorer interface {
	SubmitAudio(ctx context.Context, artifact *types.RecordingArtifact, expectedSentence, englishTranslation, language string) (*types.SubmitAudioResponse, error)
}

// Recorder captures one recording at a time. *capture.Controller satisfies it.
//
// Stop and Cancel act only on the attempt named by id; Abort ends whatever
// is active or opening.
type Recorder interface {
	Start(ctx context.Context) (capture.Handle, error)
	Stop(ctx context.Context, id string) (*types.RecordingArtifact, error)
	Cancel(id string) error
	Abort() error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithObserver registers fn to be called after every transition. Observers
// run outside the session lock, on the goroutine that made the transition.
func WithObserver(fn func(Transition)) Option {
	return func(s *Session) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Session is one speaking-practice session.
type Session struct {
	id        string
	generator SentenceGenerator
	scorer    AudioScorer
	recorder  Recorder
	logger    *zap.Logger
	metrics   *metrics.Metrics
	observers []func(Transition)

	mu     sync.Mutex
	state  State
	epoch  uint64
	busy   bool
	closed bool
}

// New creates a Session in the Idle state.
func New(generator SentenceGenerator, scorer AudioScorer, recorder Recorder, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		generator: generator,
		scorer:    scorer,
		recorder:  recorder,
		logger:    zap.NewNop(),
		state:     Idle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether an asynchronous step is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// SelectLanguage moves to LanguageSelected from any state, dropping the
// sentence, the feedback and any recording in progress.
func (s *Session) SelectLanguage(language string) error {
	language = strings.TrimSpace(language)
	if language == "" {
		return core.NewInvalidRequestError("language is required")
	}
	return s.reset(LanguageSelected{Language: language})
}

// ChangeLanguage returns to Idle from any state.
func (s *Session) ChangeLanguage() error {
	return s.reset(Idle{})
}

func (s *Session) reset(to State) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	from := s.state
	s.epoch++
	s.busy = false
	s.state = to
	s.mu.Unlock()

	s.abortCapture()
	s.notify(from, to)
	return nil
}

// RequestSentence fetches a sentence for the current language. It is legal
// from LanguageSelected, SentenceReady and FeedbackShown. A generator
// failure installs a placeholder sentence and still lands in SentenceReady.
func (s *Session) RequestSentence(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	var language string
	switch st := s.state.(type) {
	case LanguageSelected:
		language = st.Language
	case SentenceReady:
		language = st.Language
	case FeedbackShown:
		language = st.Language
	default:
		phase := s.state.Phase()
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot request a sentence while %s", ErrInvalidTransition, phase)
	}
	epoch := s.beginLocked()
	s.mu.Unlock()

	start := time.Now()
	sentence, err := s.generateSentence(ctx, language)
	if err != nil {
		s.logger.Warn("sentence generation failed, using placeholder",
			zap.String("language", language),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		s.metrics.RecordFallback("sentence")
		sentence = types.PlaceholderSentence(language)
	}

	return s.settle(epoch, SentenceReady{Language: language, Sentence: sentence})
}

func (s *Session) generateSentence(ctx context.Context, language string) (types.Sentence, error) {
	if s.generator == nil {
		return types.Sentence{}, core.NewAPIError("sentence generator not configured")
	}
	sentence, err := s.generator.GenerateSentence(ctx, language)
	if err != nil {
		return types.Sentence{}, err
	}
	if strings.TrimSpace(sentence.Text) == "" {
		return types.Sentence{}, core.NewAPIError("generator returned an empty sentence")
	}
	return sentence, nil
}

// BeginRecording starts capturing the user's attempt at the current
// sentence. If the microphone cannot be opened the state is unchanged and
// the returned *MicrophoneError carries MicrophoneNotice.
func (s *Session) BeginRecording(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	st, ok := s.state.(SentenceReady)
	if !ok {
		phase := s.state.Phase()
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot record while %s", ErrInvalidTransition, phase)
	}
	epoch := s.beginLocked()
	s.mu.Unlock()

	if s.recorder == nil {
		s.release(epoch)
		return &MicrophoneError{Err: capture.ErrDeviceUnavailable}
	}

	handle, err := s.recorder.Start(ctx)
	if err != nil {
		if !s.release(epoch) {
			return ErrSuperseded
		}
		if errors.Is(err, capture.ErrPermissionDenied) || errors.Is(err, capture.ErrDeviceUnavailable) {
			s.logger.Warn("microphone unavailable", zap.Error(err))
			return &MicrophoneError{Err: err}
		}
		return err
	}

	if err := s.settle(epoch, Recording{Language: st.Language, Sentence: st.Sentence, Handle: handle}); err != nil {
		// The session moved on while the microphone was opening. Only this
		// attempt is released; a newer recording may already be running.
		if cerr := s.recorder.Cancel(handle.ID); cerr != nil {
			s.logger.Warn("microphone release failed", zap.String("attempt_id", handle.ID), zap.Error(cerr))
		}
		return err
	}
	return nil
}

// EndRecording stops the capture and submits it for scoring. The session
// passes through Submitting and always lands in FeedbackShown; a capture or
// scoring failure produces fallback feedback instead of an error.
func (s *Session) EndRecording(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	st, ok := s.state.(Recording)
	if !ok {
		phase := s.state.Phase()
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop recording while %s", ErrInvalidTransition, phase)
	}
	epoch := s.beginLocked()
	from := s.state
	submitting := Submitting{Language: st.Language, Sentence: st.Sentence}
	s.state = submitting
	s.mu.Unlock()
	s.notify(from, submitting)

	feedback, err := s.score(ctx, epoch, st)
	if err != nil {
		return err
	}
	return s.settle(epoch, FeedbackShown{Language: st.Language, Sentence: st.Sentence, Feedback: feedback})
}

func (s *Session) score(ctx context.Context, epoch uint64, st Recording) (types.Feedback, error) {
	log := s.logger.With(zap.String("attempt_id", st.Handle.ID), zap.String("language", st.Language))

	if !s.current(epoch) {
		return types.Feedback{}, ErrSuperseded
	}
	artifact, err := s.recorder.Stop(ctx, st.Handle.ID)
	if err != nil {
		log.Warn("recording could not be finalized", zap.Error(err))
		s.metrics.RecordFallback("feedback")
		return types.FailedFeedback(st.Sentence, err), nil
	}

	// Do not upload audio for a sentence the user has already left.
	if !s.current(epoch) {
		return types.Feedback{}, ErrSuperseded
	}
	if s.scorer == nil {
		s.metrics.RecordFallback("feedback")
		return types.FailedFeedback(st.Sentence, errors.New("scoring gateway not configured")), nil
	}

	start := time.Now()
	resp, err := s.scorer.SubmitAudio(ctx, artifact, st.Sentence.Text, st.Sentence.Translation, st.Language)
	if err != nil {
		log.Warn("submission failed, using fallback feedback",
			zap.Int("bytes", artifact.Size()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		s.metrics.RecordFallback("feedback")
		return types.FailedFeedback(st.Sentence, userFacing(err)), nil
	}
	log.Debug("recording scored", zap.Float64("accuracy_score", resp.AccuracyScore), zap.String("verdict", resp.IsCorrect))
	return resp.Normalize(st.Sentence), nil
}

// Close tears the session down: any recording is aborted and released,
// outstanding results are discarded, and later calls return ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.epoch++
	s.busy = false
	phase := s.state.Phase()
	s.mu.Unlock()

	s.logger.Debug("session closed", zap.Stringer("phase", phase))
	if s.recorder != nil {
		return s.recorder.Abort()
	}
	return nil
}

func (s *Session) checkLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.busy {
		return ErrBusy
	}
	return nil
}

func (s *Session) beginLocked() uint64 {
	s.busy = true
	return s.epoch
}

// release clears the busy flag for epoch without a transition. It reports
// whether epoch is still current.
func (s *Session) release(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.epoch != epoch {
		return false
	}
	s.busy = false
	return true
}

func (s *Session) current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.epoch == epoch
}

// settle installs to if epoch is still current.
func (s *Session) settle(epoch uint64, to State) error {
	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("discarding stale result", zap.Stringer("to", to.Phase()))
		return ErrSuperseded
	}
	from := s.state
	s.state = to
	s.busy = false
	s.mu.Unlock()

	s.notify(from, to)
	return nil
}

func (s *Session) abortCapture() {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Abort(); err != nil {
		s.logger.Warn("microphone release failed", zap.Error(err))
	}
}

func (s *Session) notify(from, to State) {
	s.metrics.RecordTransition(from.Phase().String(), to.Phase().String())
	s.logger.Debug("state changed",
		zap.Stringer("from", from.Phase()),
		zap.Stringer("to", to.Phase()),
	)
	t := Transition{From: from, To: to}
	for _, fn := range s.observers {
		fn(t)
	}
}

// userFacing strips the error type prefix from gateway errors so the
// message can stand in for a transcription.
func userFacing(err error) error {
	var apiErr *core.Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return errors.New(apiErr.Message)
	}
	return err
}
