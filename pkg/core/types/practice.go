package types

import (
	"math"
	"strings"
	"time"
)

// Sentence is a practice sentence in the target language with its English
// translation.
type Sentence struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`

	// Fallback is set when the sentence is a local placeholder installed
	// after the generator failed.
	Fallback bool `json:"fallback,omitempty"`
}

// PlaceholderTranslation is the translation paired with placeholder sentences.
const PlaceholderTranslation = "Sample translation"

// PlaceholderSentence returns the deterministic sentence used when the
// generator cannot be reached.
func PlaceholderSentence(language string) Sentence {
	return Sentence{
		Text:        "Sample sentence in " + language,
		Translation: PlaceholderTranslation,
		Fallback:    true,
	}
}

// Verdict is the binary correctness judgment attached to scored feedback.
type Verdict int

const (
	VerdictIncorrect Verdict = iota
	VerdictCorrect
)

// ParseVerdict maps the wire value ("correct" / "incorrect") to a Verdict.
// Anything other than "correct" is Incorrect.
func ParseVerdict(s string) Verdict {
	if strings.EqualFold(strings.TrimSpace(s), "correct") {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

func (v Verdict) String() string {
	if v == VerdictCorrect {
		return "correct"
	}
	return "incorrect"
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	*v = ParseVerdict(string(text))
	return nil
}

// Feedback is the scoring result for one submitted recording.
type Feedback struct {
	Transcription    string  `json:"transcription"`
	AccuracyScore    float64 `json:"accuracy_score"`
	Verdict          Verdict `json:"verdict"`
	ExpectedSentence string  `json:"expected_sentence"`
	Translation      string  `json:"translation"`
	Remark           string  `json:"remark"`

	// Fallback is set when the feedback was synthesized locally because the
	// recording could not be scored.
	Fallback bool `json:"fallback,omitempty"`
}

// Correct reports whether the verdict is Correct.
func (f Feedback) Correct() bool {
	return f.Verdict == VerdictCorrect
}

const (
	// FailedTranscription is shown in place of a transcription when a
	// submission failed without a usable error message.
	FailedTranscription = "Unable to process audio"
	// FailedRemark is the remark attached to synthesized failure feedback.
	FailedRemark = "Unable to process audio. Please try again."
)

// FailedFeedback synthesizes the feedback shown when a recording could not be
// captured or scored. cause may be nil.
func FailedFeedback(sentence Sentence, cause error) Feedback {
	transcription := FailedTranscription
	if cause != nil {
		if msg := strings.TrimSpace(cause.Error()); msg != "" {
			transcription = msg
		}
	}
	return Feedback{
		Transcription:    transcription,
		AccuracyScore:    0,
		Verdict:          VerdictIncorrect,
		ExpectedSentence: sentence.Text,
		Translation:      sentence.Translation,
		Remark:           FailedRemark,
		Fallback:         true,
	}
}

// ClampScore bounds an accuracy score to [0, 100]. NaN becomes 0.
func ClampScore(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// RecordingArtifact is one finalized microphone recording.
type RecordingArtifact struct {
	Data      []byte        `json:"-"`
	MIMEType  string        `json:"mime_type"`
	FileName  string        `json:"file_name"`
	Duration  time.Duration `json:"duration"`
	AttemptID string        `json:"attempt_id"`
}

// Size returns the artifact size in bytes.
func (a *RecordingArtifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}
