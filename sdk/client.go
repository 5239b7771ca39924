// Package speak is the Go client for the speaking-practice AI service.
//
// It wraps the three gateway operations the practice and chat sessions depend
// on: sentence generation, audio scoring, and free-form chat.
//
//	client := speak.NewClient(
//		speak.WithBaseURL("http://localhost:8002"),
//		speak.WithTokenSource(auth.EnvToken{Name: "SPEAK_TOKEN"}),
//	)
//	resp, err := client.Sentences.Generate(ctx, "Spanish")
package speak

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/auth"
	"github.com/vango-go/vai-speak/pkg/metrics"
)

// DefaultBaseURL is the AI service address used when none is configured.
const DefaultBaseURL = "http://localhost:8002"

// Client is the main entry point for the SDK.
type Client struct {
	Sentences *SentencesService
	Scoring   *ScoringService
	Chat      *ChatService

	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
	logger     *zap.Logger
	metrics    *metrics.Metrics
	userAgent  string
}

// NewClient creates a new client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: newDefaultHTTPClient(),
		logger:     zap.NewNop(),
		userAgent:  "vai-speak-go",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Sentences = &SentencesService{client: c}
	c.Scoring = &ScoringService{client: c}
	c.Chat = &ChatService{client: c}
	return c
}

// BaseURL returns the configured service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}
