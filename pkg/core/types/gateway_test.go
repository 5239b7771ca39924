package types

import (
	"encoding/json"
	"testing"
)

func TestGenerateSentenceResponse(t *testing.T) {
	t.Parallel()

	var resp GenerateSentenceResponse
	if err := json.Unmarshal([]byte(`{"sentence":"Hola","english_translation":"Hello"}`), &resp); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if err := resp.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	got := resp.ToSentence()
	if got != (Sentence{Text: "Hola", Translation: "Hello"}) {
		t.Fatalf("ToSentence()=%+v", got)
	}

	empty := GenerateSentenceResponse{Sentence: "  "}
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected error for blank sentence")
	}
}

func TestSubmitAudioResponse_Normalize(t *testing.T) {
	t.Parallel()

	sentence := Sentence{Text: "Hola", Translation: "Hello"}
	var resp SubmitAudioResponse
	body := `{"transcription":"Hola","accuracy_score":95,"is_correct":"correct","expected_sentence":"Hola","english_translation":"Hello","feedback":"Great pronunciation"}`
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	fb := resp.Normalize(sentence)
	if fb.Verdict != VerdictCorrect {
		t.Fatalf("Verdict=%v, want correct", fb.Verdict)
	}
	if fb.AccuracyScore != 95 {
		t.Fatalf("AccuracyScore=%v, want 95", fb.AccuracyScore)
	}
	if fb.Remark != "Great pronunciation" || fb.Fallback {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}

func TestSubmitAudioResponse_NormalizeDefaults(t *testing.T) {
	t.Parallel()

	sentence := Sentence{Text: "Bonjour", Translation: "Hello"}
	resp := &SubmitAudioResponse{Transcription: "Bonsoir", AccuracyScore: 140, IsCorrect: "incorrect"}

	fb := resp.Normalize(sentence)
	if fb.ExpectedSentence != "Bonjour" || fb.Translation != "Hello" {
		t.Fatalf("defaults not applied: %+v", fb)
	}
	if fb.AccuracyScore != 100 {
		t.Fatalf("AccuracyScore=%v, want clamped 100", fb.AccuracyScore)
	}
	if fb.Correct() {
		t.Fatalf("verdict should be incorrect")
	}

	var nilResp *SubmitAudioResponse
	if got := nilResp.Normalize(sentence); !got.Fallback {
		t.Fatalf("nil response should synthesize fallback feedback")
	}
}

func TestChatResponse_ReplyTextPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"response field", `{"response":"primary","message":"secondary"}`, "primary"},
		{"message field", `{"message":"secondary"}`, "secondary"},
		{"empty response falls through", `{"response":"","message":"secondary"}`, "secondary"},
		{"raw serialization", `{ "reply" : "other" }`, `{"reply":"other"}`},
		{"non-object body", `"just text"`, `"just text"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, err := UnmarshalChatResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("UnmarshalChatResponse error: %v", err)
			}
			if got := resp.ReplyText(); got != tt.want {
				t.Fatalf("ReplyText()=%q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalChatResponse_InvalidJSON(t *testing.T) {
	t.Parallel()

	if _, err := UnmarshalChatResponse([]byte(`{not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestChatMessageConstructors(t *testing.T) {
	t.Parallel()

	if m := UserMessage("hi"); m.Role != RoleUser || m.Content != "hi" {
		t.Fatalf("UserMessage=%+v", m)
	}
	if m := AssistantMessage("hello"); m.Role != RoleAssistant || m.String() != "assistant: hello" {
		t.Fatalf("AssistantMessage=%+v", m)
	}
}
