// Package chat implements the free-form text chat that runs alongside
// speaking practice: an append-only message log guarded by a single pending
// flag.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/core/types"
	"github.com/vango-go/vai-speak/pkg/metrics"
)

// Apology is the assistant message appended when the gateway fails.
const Apology = "Sorry, something went wrong."

var (
	// ErrBusy is returned by Send while a reply is pending.
	ErrBusy = errors.New("chat reply pending")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chat session closed")
)

// Gateway sends one chat message to the backend.
type Gateway interface {
	Chat(ctx context.Context, message string) (*types.ChatResponse, error)
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

// WithObserver registers fn to be called for every appended message.
func WithObserver(fn func(types.ChatMessage)) Option {
	return func(s *Session) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Session is an ordered chat log.
type Session struct {
	gateway   Gateway
	logger    *zap.Logger
	metrics   *metrics.Metrics
	observers []func(types.ChatMessage)

	mu       sync.Mutex
	messages []types.ChatMessage
	pending  bool
	closed   bool
}

// New creates an empty chat session.
func New(gateway Gateway, opts ...Option) *Session {
	s := &Session{
		gateway: gateway,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends text as a user message, waits for the reply and appends it.
// Blank text is ignored. Gateway failures append Apology and return nil.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.pending {
		s.mu.Unlock()
		return ErrBusy
	}
	user := types.UserMessage(text)
	s.messages = append(s.messages, user)
	s.pending = true
	s.mu.Unlock()

	s.notify(user)
	defer s.clearPending()

	start := time.Now()
	reply, err := s.reply(ctx, text)
	if err != nil {
		s.logger.Warn("chat request failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		s.metrics.RecordFallback("chat")
		reply = types.ChatMessage{Role: types.RoleAssistant, Content: Apology, Fallback: true}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.messages = append(s.messages, reply)
	s.mu.Unlock()

	s.notify(reply)
	return nil
}

func (s *Session) reply(ctx context.Context, text string) (types.ChatMessage, error) {
	if s.gateway == nil {
		return types.ChatMessage{}, errors.New("chat gateway not configured")
	}
	resp, err := s.gateway.Chat(ctx, text)
	if err != nil {
		return types.ChatMessage{}, err
	}
	return types.AssistantMessage(resp.ReplyText()), nil
}

func (s *Session) clearPending() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

// Messages returns a copy of the log in display order.
func (s *Session) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.messages...)
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Pending reports whether a reply is outstanding.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Close clears the pending flag and drops any reply still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = false
}

func (s *Session) notify(m types.ChatMessage) {
	s.metrics.RecordChatMessage(string(m.Role))
	for _, fn := range s.observers {
		fn(m)
	}
}
