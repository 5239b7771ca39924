package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Verdict
	}{
		{"correct", VerdictCorrect},
		{" Correct ", VerdictCorrect},
		{"CORRECT", VerdictCorrect},
		{"incorrect", VerdictIncorrect},
		{"", VerdictIncorrect},
		{"maybe", VerdictIncorrect},
	}
	for _, tt := range tests {
		if got := ParseVerdict(tt.in); got != tt.want {
			t.Errorf("ParseVerdict(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerdict_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Feedback{Verdict: VerdictCorrect})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded["verdict"] != "correct" {
		t.Fatalf("verdict=%v, want correct", decoded["verdict"])
	}

	var fb Feedback
	if err := json.Unmarshal([]byte(`{"verdict":"incorrect"}`), &fb); err != nil {
		t.Fatalf("Unmarshal feedback error: %v", err)
	}
	if fb.Verdict != VerdictIncorrect {
		t.Fatalf("Verdict=%v, want incorrect", fb.Verdict)
	}
}

func TestPlaceholderSentence(t *testing.T) {
	t.Parallel()

	s := PlaceholderSentence("Spanish")
	if s.Text != "Sample sentence in Spanish" {
		t.Fatalf("Text=%q", s.Text)
	}
	if s.Translation == "" {
		t.Fatalf("placeholder translation must not be empty")
	}
	if !s.Fallback {
		t.Fatalf("placeholder must be flagged as fallback")
	}
}

func TestFailedFeedback(t *testing.T) {
	t.Parallel()

	sentence := Sentence{Text: "Hola", Translation: "Hello"}

	fb := FailedFeedback(sentence, errors.New("gateway request failed with status 500"))
	if fb.Transcription != "gateway request failed with status 500" {
		t.Fatalf("Transcription=%q", fb.Transcription)
	}
	if fb.AccuracyScore != 0 || fb.Correct() {
		t.Fatalf("failed feedback must score 0 and be incorrect: %+v", fb)
	}
	if fb.ExpectedSentence != "Hola" || fb.Translation != "Hello" {
		t.Fatalf("expected sentence/translation not copied: %+v", fb)
	}
	if fb.Remark != FailedRemark || !fb.Fallback {
		t.Fatalf("unexpected remark/fallback: %+v", fb)
	}

	fb = FailedFeedback(sentence, nil)
	if fb.Transcription != FailedTranscription {
		t.Fatalf("Transcription=%q, want generic notice", fb.Transcription)
	}
	fb = FailedFeedback(sentence, errors.New("   "))
	if fb.Transcription != FailedTranscription {
		t.Fatalf("blank error should use generic notice, got %q", fb.Transcription)
	}
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{180, 100},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRecordingArtifact_Size(t *testing.T) {
	t.Parallel()

	var nilArtifact *RecordingArtifact
	if nilArtifact.Size() != 0 {
		t.Fatalf("nil artifact size should be 0")
	}
	a := &RecordingArtifact{Data: []byte{1, 2, 3}}
	if a.Size() != 3 {
		t.Fatalf("Size()=%d, want 3", a.Size())
	}
}
