package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// FFmpegSource captures through an ffmpeg child process that encodes
// Opus in a WebM container on stdout.
type FFmpegSource struct {
	SampleRate int

	// Device overrides the platform input, e.g. ":1" on darwin or a pulse
	// source name on linux.
	Device string

	Logger *zap.Logger

	// goos is overridden in tests.
	goos string
}

// Open starts ffmpeg reading from the platform microphone.
func (s *FFmpegSource) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg is required for microphone capture (install ffmpeg and ensure it is in PATH)", ErrDeviceUnavailable)
	}

	goos := s.goos
	if goos == "" {
		goos = runtime.GOOS
	}
	sampleRate := s.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	args, err := ffmpegCaptureArgs(goos, s.Device, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: open ffmpeg stdout: %v", ErrDeviceUnavailable, err)
	}
	st := &ffmpegStream{
		cmd:      cmd,
		stdout:   stdout,
		encoding: WebMEncoding(sampleRate),
		chunks:   make(chan []byte, chunkBuffer),
		released: make(chan struct{}),
		logger:   logger,
	}
	cmd.Stderr = &st.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg capture: %v", ErrDeviceUnavailable, err)
	}
	st.live.Store(true)
	go st.read()

	logger.Debug("ffmpeg capture started", zap.Int("pid", cmd.Process.Pid), zap.Strings("args", args))
	return st, nil
}

func ffmpegCaptureArgs(goos, device string, sampleRate int) ([]string, error) {
	var input []string
	switch goos {
	case "darwin":
		if device == "" {
			device = ":0"
		}
		input = []string{"-f", "avfoundation", "-i", device}
	case "linux":
		if device == "" {
			device = "default"
		}
		input = []string{"-f", "pulse", "-i", device}
	default:
		return nil, fmt.Errorf("ffmpeg microphone capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	args = append(args, input...)
	args = append(args,
		"-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-c:a", "libopus",
		"-f", "webm", "-",
	)
	return args, nil
}

type ffmpegStream struct {
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	encoding Encoding
	logger   *zap.Logger

	chunks   chan []byte
	released chan struct{}

	stderr lockedBuffer

	live         atomic.Bool
	finalizeOnce sync.Once
	releaseOnce  sync.Once
}

// read is the sole writer and closer of chunks.
func (f *ffmpegStream) read() {
	defer close(f.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := f.stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case f.chunks <- chunk:
			case <-f.released:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				f.logger.Debug("ffmpeg stdout read ended", zap.Error(err))
			}
			return
		}
	}
}

func (f *ffmpegStream) Chunks() <-chan []byte { return f.chunks }

func (f *ffmpegStream) Encoding() Encoding { return f.encoding }

func (f *ffmpegStream) Active() bool { return f.live.Load() }

// Finalize interrupts ffmpeg so it writes the container trailer and exits.
func (f *ffmpegStream) Finalize() {
	f.finalizeOnce.Do(func() {
		if f.cmd.Process == nil {
			return
		}
		if err := f.cmd.Process.Signal(os.Interrupt); err != nil {
			_ = f.cmd.Process.Kill()
		}
	})
}

func (f *ffmpegStream) Release() error {
	f.releaseOnce.Do(func() {
		close(f.released)
		if f.cmd.Process != nil {
			_ = f.cmd.Process.Kill()
			_ = f.cmd.Wait()
		}
		f.live.Store(false)
		if msg := bytes.TrimSpace(f.stderr.Bytes()); len(msg) > 0 {
			f.logger.Debug("ffmpeg stderr", zap.ByteString("stderr", msg))
		}
	})
	return nil
}

// lockedBuffer is a bytes.Buffer safe for the exec copier goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() > 8<<10 {
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
