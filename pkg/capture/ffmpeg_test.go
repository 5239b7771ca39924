package capture

import (
	"strings"
	"testing"
)

func TestFFmpegCaptureArgs(t *testing.T) {
	t.Parallel()

	darwin, err := ffmpegCaptureArgs("darwin", "", 16000)
	if err != nil {
		t.Fatalf("darwin args error: %v", err)
	}
	joined := strings.Join(darwin, " ")
	for _, want := range []string{"-f avfoundation -i :0", "-ar 16000", "-c:a libopus", "-f webm -"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("darwin args %q missing %q", joined, want)
		}
	}

	linux, err := ffmpegCaptureArgs("linux", "alsa_input.usb", 24000)
	if err != nil {
		t.Fatalf("linux args error: %v", err)
	}
	joined = strings.Join(linux, " ")
	if !strings.Contains(joined, "-f pulse -i alsa_input.usb") || !strings.Contains(joined, "-ar 24000") {
		t.Fatalf("unexpected linux args: %q", joined)
	}

	if _, err := ffmpegCaptureArgs("windows", "", 16000); err == nil {
		t.Fatalf("expected unsupported platform error")
	}
}

func TestClassifyDeviceError(t *testing.T) {
	t.Parallel()

	if err := classifyDeviceError("init", errString("Access Denied")); !strings.Contains(err.Error(), ErrPermissionDenied.Error()) {
		t.Fatalf("err=%v, want permission denied", err)
	}
	if err := classifyDeviceError("init", errString("no backend")); !strings.Contains(err.Error(), ErrDeviceUnavailable.Error()) {
		t.Fatalf("err=%v, want unavailable", err)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
