package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vango-go/vai-speak/pkg/chat"
	"github.com/vango-go/vai-speak/pkg/languages"
	"github.com/vango-go/vai-speak/pkg/practice"
)

const (
	modeSpeak = "speak"
	modeChat  = "chat"
)

// app is the interactive front-end over one practice session and one chat
// session.
type app struct {
	session *practice.Session
	chat    *chat.Session
	logger  *zap.Logger
	timeout time.Duration
	out     io.Writer
	errOut  io.Writer
	mode    string
}

func newApp(session *practice.Session, chatSession *chat.Session, logger *zap.Logger, timeout time.Duration, out, errOut io.Writer) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &app{
		session: session,
		chat:    chatSession,
		logger:  logger,
		timeout: timeout,
		out:     out,
		errOut:  errOut,
		mode:    modeSpeak,
	}
}

// run reads commands from in until EOF, /exit, or ctx is cancelled.
func (a *app) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(a.out, "Speaking practice. Type /help for commands.")
	a.prompt()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(a.out)
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if a.handleLine(ctx, line) {
				fmt.Fprintln(a.out, "bye")
				return nil
			}
			a.prompt()
		}
	}
}

func (a *app) prompt() {
	prefix := ""
	if lang, ok := practice.LanguageOf(a.session.State()); ok {
		prefix = "[" + lang + "] "
	}
	fmt.Fprintf(a.out, "%s%s> ", prefix, a.mode)
}

// handleLine executes one command and reports whether the REPL should exit.
func (a *app) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if a.mode == modeChat {
			a.sendChat(ctx, line)
		} else {
			fmt.Fprintln(a.out, "Type /help for commands, or /mode chat to chat.")
		}
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/exit", "/quit":
		return true
	case "/help":
		fmt.Fprintln(a.out, helpText)
	case "/languages":
		renderLanguages(a.out)
	case "/lang":
		a.selectLanguage(arg)
	case "/change":
		if a.report(a.session.ChangeLanguage()) {
			fmt.Fprintln(a.out, "Language cleared. Choose one with /lang.")
		}
	case "/next":
		a.nextSentence(ctx)
	case "/record":
		a.beginRecording(ctx)
	case "/stop":
		a.endRecording(ctx)
	case "/state":
		renderState(a.out, a.session.State())
	case "/chat":
		a.sendChat(ctx, arg)
	case "/mode":
		switch arg {
		case modeSpeak, modeChat:
			a.mode = arg
		default:
			fmt.Fprintf(a.errOut, "mode must be %s or %s\n", modeSpeak, modeChat)
		}
	case "/history":
		for _, m := range a.chat.Messages() {
			renderChatMessage(a.out, m)
		}
	default:
		fmt.Fprintf(a.errOut, "unknown command %s (try /help)\n", cmd)
	}
	return false
}

func (a *app) selectLanguage(input string) {
	if input == "" {
		fmt.Fprintln(a.errOut, "usage: /lang <name|tag|#>")
		renderLanguages(a.out)
		return
	}
	name, err := languages.Resolve(input)
	if err != nil {
		fmt.Fprintf(a.errOut, "error: %v\n", err)
		return
	}
	if a.report(a.session.SelectLanguage(name)) {
		fmt.Fprintf(a.out, "Language: %s. Type /next for a sentence.\n", name)
	}
}

func (a *app) nextSentence(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	fmt.Fprintln(a.out, "Generating sentence...")
	if !a.report(a.session.RequestSentence(ctx)) {
		return
	}
	if s, ok := practice.SentenceOf(a.session.State()); ok {
		renderSentence(a.out, s)
		fmt.Fprintln(a.out, "Type /record and read it aloud.")
	}
}

func (a *app) beginRecording(ctx context.Context) {
	if !a.report(a.session.BeginRecording(ctx)) {
		return
	}
	fmt.Fprintln(a.out, "Recording... type /stop when you are done.")
}

func (a *app) endRecording(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	fmt.Fprintln(a.out, "Scoring your recording...")
	if !a.report(a.session.EndRecording(ctx)) {
		return
	}
	if fb, ok := practice.FeedbackOf(a.session.State()); ok {
		renderFeedback(a.out, fb)
		fmt.Fprintln(a.out, "Type /next for another sentence.")
	}
}

func (a *app) sendChat(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	before := a.chat.Len()
	if !a.report(a.chat.Send(ctx, text)) {
		return
	}
	msgs := a.chat.Messages()
	// The user's own line is already on screen.
	for _, m := range msgs[before+1:] {
		renderChatMessage(a.out, m)
	}
}

// report prints err for the user and reports whether the call succeeded.
func (a *app) report(err error) bool {
	if err == nil {
		return true
	}
	var micErr *practice.MicrophoneError
	switch {
	case errors.As(err, &micErr):
		fmt.Fprintln(a.errOut, micErr.Error())
		a.logger.Debug("microphone error", zap.Error(micErr.Err))
	case errors.Is(err, practice.ErrBusy), errors.Is(err, chat.ErrBusy):
		fmt.Fprintln(a.errOut, "still working on the previous request")
	default:
		fmt.Fprintf(a.errOut, "error: %v\n", err)
	}
	return false
}
