// Package capturetest provides a scripted capture.Source for tests.
package capturetest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vango-go/vai-speak/pkg/capture"
)

// Source is a fake microphone. Each Open returns a new Stream preloaded with
// Chunks.
type Source struct {
	// OpenErr, when set, is returned by Open.
	OpenErr error

	// Chunks are delivered in order by every opened stream.
	Chunks [][]byte

	// Encoding describes the emitted bytes. The zero value means WebM.
	Encoding capture.Encoding

	// HoldFinalize keeps Chunks open after Finalize, simulating a recorder
	// that never drains.
	HoldFinalize bool

	// Gate, when non-nil, blocks Open until it is closed or ctx is done.
	// Useful for simulating a pending permission prompt.
	Gate chan struct{}

	mu      sync.Mutex
	streams []*Stream
	opening atomic.Int32
}

// Open implements capture.Source.
func (s *Source) Open(ctx context.Context) (capture.Stream, error) {
	s.opening.Add(1)
	defer s.opening.Add(-1)

	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}

	enc := s.Encoding
	if enc.MIMEType == "" {
		enc = capture.WebMEncoding(capture.DefaultSampleRate)
	}

	st := &Stream{
		chunks:       make(chan []byte, len(s.Chunks)+64),
		encoding:     enc,
		holdFinalize: s.HoldFinalize,
	}
	st.live.Store(true)
	for _, c := range s.Chunks {
		st.chunks <- append([]byte(nil), c...)
	}

	s.mu.Lock()
	s.streams = append(s.streams, st)
	s.mu.Unlock()
	return st, nil
}

// Opening reports how many Open calls are in flight.
func (s *Source) Opening() int {
	return int(s.opening.Load())
}

// Streams returns every stream opened so far.
func (s *Source) Streams() []*Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Stream(nil), s.streams...)
}

// Live returns the number of streams whose tracks are still active.
func (s *Source) Live() int {
	n := 0
	for _, st := range s.Streams() {
		if st.Active() {
			n++
		}
	}
	return n
}

// Stream is a fake microphone grant.
type Stream struct {
	encoding     capture.Encoding
	holdFinalize bool

	mu     sync.Mutex
	chunks chan []byte
	closed bool

	live      atomic.Bool
	finalized atomic.Bool
	releases  atomic.Int32
}

// Emit delivers a chunk if the stream is still producing.
func (s *Stream) Emit(chunk []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.chunks <- append([]byte(nil), chunk...):
		return true
	default:
		return false
	}
}

func (s *Stream) Chunks() <-chan []byte { return s.chunks }

func (s *Stream) Encoding() capture.Encoding { return s.encoding }

func (s *Stream) Active() bool { return s.live.Load() }

func (s *Stream) Finalize() {
	s.finalized.Store(true)
	if s.holdFinalize {
		return
	}
	s.close()
}

func (s *Stream) Release() error {
	s.releases.Add(1)
	s.live.Store(false)
	s.close()
	return nil
}

// Finalized reports whether Finalize was called.
func (s *Stream) Finalized() bool { return s.finalized.Load() }

// Releases returns how many times Release was called.
func (s *Stream) Releases() int { return int(s.releases.Load()) }

func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.chunks)
	}
}
