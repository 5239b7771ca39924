package practice

import (
	"github.com/vango-go/vai-speak/pkg/capture"
	"github.com/vango-go/vai-speak/pkg/core/types"
)

// Phase identifies which State variant a session is in.
type Phase int

const (
	// PhaseIdle is the initial phase, before a language is chosen.
	PhaseIdle Phase = iota
	// PhaseLanguageSelected is when a language is chosen but no sentence is loaded.
	PhaseLanguageSelected
	// PhaseSentenceReady is when a sentence is loaded and can be recorded.
	PhaseSentenceReady
	// PhaseRecording is when the microphone is capturing the user's attempt.
	PhaseRecording
	// PhaseSubmitting is when the recording is in flight to the scorer.
	PhaseSubmitting
	// PhaseFeedbackShown is when feedback for the sentence is available.
	PhaseFeedbackShown
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseLanguageSelected:
		return "LANGUAGE_SELECTED"
	case PhaseSentenceReady:
		return "SENTENCE_READY"
	case PhaseRecording:
		return "RECORDING"
	case PhaseSubmitting:
		return "SUBMITTING"
	case PhaseFeedbackShown:
		return "FEEDBACK_SHOWN"
	default:
		return "UNKNOWN"
	}
}

// State is the session state. Exactly one of the variants below is held at a
// time, so feedback can only exist alongside the sentence it scores.
type State interface {
	Phase() Phase
	isState()
}

// Idle has no language.
type Idle struct{}

// LanguageSelected has a language but no sentence.
type LanguageSelected struct {
	Language string
}

// SentenceReady holds a sentence waiting to be recorded.
type SentenceReady struct {
	Language string
	Sentence types.Sentence
}

// Recording holds the sentence being spoken and the active capture.
type Recording struct {
	Language string
	Sentence types.Sentence
	Handle   capture.Handle
}

// Submitting holds the sentence whose recording is being scored.
type Submitting struct {
	Language string
	Sentence types.Sentence
}

// FeedbackShown holds the sentence and its feedback.
type FeedbackShown struct {
	Language string
	Sentence types.Sentence
	Feedback types.Feedback
}

func (Idle) Phase() Phase { return PhaseIdle }
func (LanguageSelected) Phase() Phase { return PhaseLanguageSelected }
func (SentenceReady) Phase() Phase { return PhaseSentenceReady }
func (Recording) Phase() Phase { return PhaseRecording }
func (Submitting) Phase() Phase { return PhaseSubmitting }
func (FeedbackShown) Phase() Phase { return PhaseFeedbackShown }

func (Idle) isState() {}
func (LanguageSelected) isState() {}
func (SentenceReady) isState() {}
func (Recording) isState() {}
func (Submitting) isState() {}
func (FeedbackShown) isState() {}

// LanguageOf returns the language held by s, if any.
func LanguageOf(s State) (string, bool) {
	switch st := s.(type) {
	case LanguageSelected:
		return st.Language, true
	case SentenceReady:
		return st.Language, true
	case Recording:
		return st.Language, true
	case Submitting:
		return st.Language, true
	case FeedbackShown:
		return st.Language, true
	default:
		return "", false
	}
}

// SentenceOf returns the sentence held by s, if any.
func SentenceOf(s State) (types.Sentence, bool) {
	switch st := s.(type) {
	case SentenceReady:
		return st.Sentence, true
	case Recording:
		return st.Sentence, true
	case Submitting:
		return st.Sentence, true
	case FeedbackShown:
		return st.Sentence, true
	default:
		return types.Sentence{}, false
	}
}

// FeedbackOf returns the feedback held by s, if any.
func FeedbackOf(s State) (types.Feedback, bool) {
	if st, ok := s.(FeedbackShown); ok {
		return st.Feedback, true
	}
	return types.Feedback{}, false
}

// Transition is delivered to observers after every state change.
type Transition struct {
	From State
	To   State
}
