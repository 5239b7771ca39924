package speak

import (
	"context"

	"github.com/vango-go/vai-speak/pkg/chat"
	"github.com/vango-go/vai-speak/pkg/core/types"
	"github.com/vango-go/vai-speak/pkg/practice"
)

// SentenceGenerator returns the client as a practice.SentenceGenerator.
func (c *Client) SentenceGenerator() practice.SentenceGenerator {
	return sentenceGenerator{svc: c.Sentences}
}

// AudioScorer returns the client as a practice.AudioScorer.
func (c *Client) AudioScorer() practice.AudioScorer {
	return audioScorer{svc: c.Scoring}
}

// ChatGateway returns the client as a chat.Gateway.
func (c *Client) ChatGateway() chat.Gateway {
	return chatGateway{svc: c.Chat}
}

type sentenceGenerator struct {
	svc *SentencesService
}

func (g sentenceGenerator) GenerateSentence(ctx context.Context, language string) (types.Sentence, error) {
	resp, err := g.svc.Generate(ctx, language)
	if err != nil {
		return types.Sentence{}, err
	}
	if err := resp.Validate(); err != nil {
		return types.Sentence{}, err
	}
	return resp.ToSentence(), nil
}

type audioScorer struct {
	svc *ScoringService
}

func (a audioScorer) SubmitAudio(ctx context.Context, artifact *types.RecordingArtifact, expectedSentence, englishTranslation, language string) (*types.SubmitAudioResponse, error) {
	return a.svc.Submit(ctx, artifact, expectedSentence, englishTranslation, language)
}

type chatGateway struct {
	svc *ChatService
}

func (g chatGateway) Chat(ctx context.Context, message string) (*types.ChatResponse, error) {
	return g.svc.Send(ctx, message)
}
