package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/vango-go/vai-speak/pkg/core/types"
	"github.com/vango-go/vai-speak/pkg/languages"
	"github.com/vango-go/vai-speak/pkg/practice"
)

const helpText = `Practice:
  /languages           list practice languages
  /lang <name|tag|#>   select a language (e.g. /lang es, /lang 2)
  /change              clear the language and start over
  /next                generate a sentence (or the next one)
  /record              start recording yourself saying the sentence
  /stop                stop recording and get feedback
  /state               show where the session is
Chat:
  /chat <message>      send a chat message
  /mode speak|chat     plain lines go to chat in chat mode
  /history             show the chat transcript
  /help                show this help
  /exit, /quit         leave`

func renderLanguages(w io.Writer) {
	for i, name := range languages.Names() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, name)
	}
}

func renderSentence(w io.Writer, s types.Sentence) {
	fmt.Fprintf(w, "Sentence:    %s\n", s.Text)
	fmt.Fprintf(w, "Translation: %s\n", s.Translation)
	if s.Fallback {
		fmt.Fprintln(w, "(placeholder: the sentence service could not be reached)")
	}
}

func renderFeedback(w io.Writer, fb types.Feedback) {
	if fb.Correct() {
		fmt.Fprintln(w, "Correct!")
	} else {
		fmt.Fprintln(w, "Try Again")
	}
	fmt.Fprintf(w, "You said:    %q\n", fb.Transcription)
	fmt.Fprintf(w, "Accuracy:    %.0f%%\n", fb.AccuracyScore)
	if !fb.Correct() {
		fmt.Fprintf(w, "Expected:    %s\n", fb.ExpectedSentence)
	}
	if fb.Translation != "" {
		fmt.Fprintf(w, "Translation: %s\n", fb.Translation)
	}
	if remark := strings.TrimSpace(fb.Remark); remark != "" {
		fmt.Fprintln(w, remark)
	}
}

func renderState(w io.Writer, st practice.State) {
	fmt.Fprintf(w, "state: %s\n", st.Phase())
	if lang, ok := practice.LanguageOf(st); ok {
		fmt.Fprintf(w, "language: %s\n", lang)
	}
	if s, ok := practice.SentenceOf(st); ok {
		renderSentence(w, s)
	}
	if rec, ok := st.(practice.Recording); ok {
		fmt.Fprintf(w, "recording %s (%s)\n", rec.Handle.ID, rec.Handle.MIMEType)
	}
	if fb, ok := practice.FeedbackOf(st); ok {
		renderFeedback(w, fb)
	}
}

func renderChatMessage(w io.Writer, m types.ChatMessage) {
	fmt.Fprintln(w, m.String())
}
