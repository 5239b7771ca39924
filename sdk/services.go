package speak

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/vango-go/vai-speak/pkg/core"
	"github.com/vango-go/vai-speak/pkg/core/types"
)

// Gateway paths.
const (
	pathGenerateSentence = "/ai/generate-sentence"
	pathSubmitAudio      = "/ai/submit-audio"
	pathChat             = "/ai/chat"
)

// SentencesService generates practice sentences.
type SentencesService struct {
	client *Client
}

// Generate asks the service for a sentence in language.
func (s *SentencesService) Generate(ctx context.Context, language string) (*types.GenerateSentenceResponse, error) {
	if strings.TrimSpace(language) == "" {
		return nil, core.NewInvalidRequestError("language is required")
	}
	data, err := s.client.postJSON(ctx, "generate_sentence", pathGenerateSentence, types.GenerateSentenceRequest{Language: language})
	if err != nil {
		return nil, err
	}
	var resp types.GenerateSentenceResponse
	if err := decodeBody(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScoringService scores recordings.
type ScoringService struct {
	client *Client
}

// Submit uploads a recording with the sentence it should contain. The audio
// goes in the audio_file part, named and typed from the artifact.
func (s *ScoringService) Submit(ctx context.Context, artifact *types.RecordingArtifact, expectedSentence, englishTranslation, language string) (*types.SubmitAudioResponse, error) {
	if artifact.Size() == 0 {
		return nil, core.NewInvalidRequestError("audio is required")
	}

	body, contentType, err := encodeSubmission(artifact, map[string]string{
		"expected_sentence":   expectedSentence,
		"english_translation": englishTranslation,
		"language":            language,
	})
	if err != nil {
		return nil, core.WrapAPIError("failed to encode audio upload", err)
	}

	data, err := s.client.post(ctx, "submit_audio", pathSubmitAudio, body, contentType)
	if err != nil {
		return nil, err
	}
	var resp types.SubmitAudioResponse
	if err := decodeBody(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

var submissionFields = []string{"expected_sentence", "english_translation", "language"}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeSubmission(artifact *types.RecordingArtifact, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fileName := artifact.FileName
	if fileName == "" {
		fileName = "recording.webm"
	}
	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="audio_file"; filename="`+quoteEscaper.Replace(fileName)+`"`)
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", err
	}

	for _, name := range submissionFields {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ChatService sends free-form chat messages.
type ChatService struct {
	client *Client
}

// Send posts message and returns the reply. The raw body is kept on the
// response for reply fallback.
func (s *ChatService) Send(ctx context.Context, message string) (*types.ChatResponse, error) {
	data, err := s.client.postJSON(ctx, "chat", pathChat, types.ChatRequest{Message: message})
	if err != nil {
		return nil, err
	}
	resp, err := types.UnmarshalChatResponse(data)
	if err != nil {
		return nil, &core.Error{Type: core.ErrAPI, Message: "failed to decode gateway response"}
	}
	return resp, nil
}
