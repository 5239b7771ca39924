package practice

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is not legal from
	// the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned while another step of the session is outstanding.
	ErrBusy = errors.New("session busy")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
	// ErrSuperseded is returned when a result arrives after the session
	// changed language, reset, or closed. The result is discarded.
	ErrSuperseded = errors.New("result superseded")
)

// MicrophoneNotice is the user-facing text for a refused microphone.
const MicrophoneNotice = "Microphone access is required for speech practice."

// MicrophoneError reports that recording could not start. Err is the
// underlying capture error.
type MicrophoneError struct {
	Err error
}

func (e *MicrophoneError) Error() string {
	return MicrophoneNotice
}

func (e *MicrophoneError) Unwrap() error {
	return e.Err
}
