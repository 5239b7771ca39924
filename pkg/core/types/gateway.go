package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateSentenceRequest is the body of POST /ai/generate-sentence.
type GenerateSentenceRequest struct {
	Language string `json:"language"`
}

// GenerateSentenceResponse is the body returned by POST /ai/generate-sentence.
type GenerateSentenceResponse struct {
	Sentence           string `json:"sentence"`
	EnglishTranslation string `json:"english_translation"`
}

// ToSentence converts the response into a Sentence.
func (r *GenerateSentenceResponse) ToSentence() Sentence {
	if r == nil {
		return Sentence{}
	}
	return Sentence{
		Text:        r.Sentence,
		Translation: r.EnglishTranslation,
	}
}

// Validate rejects responses that carry no sentence text.
func (r *GenerateSentenceResponse) Validate() error {
	if r == nil || strings.TrimSpace(r.Sentence) == "" {
		return fmt.Errorf("generate sentence: response has empty sentence")
	}
	return nil
}

// SubmitAudioResponse is the body returned by POST /ai/submit-audio.
type SubmitAudioResponse struct {
	Transcription      string  `json:"transcription"`
	AccuracyScore      float64 `json:"accuracy_score"`
	IsCorrect          string  `json:"is_correct"`
	ExpectedSentence   string  `json:"expected_sentence"`
	EnglishTranslation string  `json:"english_translation"`
	Feedback           string  `json:"feedback"`
}

// Normalize converts the response into Feedback for the sentence that was
// spoken. Missing expected sentence and translation fall back to the
// sentence's own values; the score is clamped to [0, 100].
func (r *SubmitAudioResponse) Normalize(sentence Sentence) Feedback {
	if r == nil {
		return FailedFeedback(sentence, nil)
	}
	fb := Feedback{
		Transcription:    r.Transcription,
		AccuracyScore:    ClampScore(r.AccuracyScore),
		Verdict:          ParseVerdict(r.IsCorrect),
		ExpectedSentence: r.ExpectedSentence,
		Translation:      r.EnglishTranslation,
		Remark:           r.Feedback,
	}
	if strings.TrimSpace(fb.ExpectedSentence) == "" {
		fb.ExpectedSentence = sentence.Text
	}
	if strings.TrimSpace(fb.Translation) == "" {
		fb.Translation = sentence.Translation
	}
	return fb
}

func compactJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
