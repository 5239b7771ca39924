package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"
)

// chunkBuffer holds about five seconds of 20ms periods.
const chunkBuffer = 256

// MalgoSource captures 16-bit PCM through miniaudio and finalizes it as WAV.
type MalgoSource struct {
	SampleRate int
	Channels   int

	// Device selects a capture device by name. Empty uses the system default.
	Device string

	Logger *zap.Logger
}

// Open initializes an audio context and starts a capture device.
func (s *MalgoSource) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	enc := WAVEncoding(s.SampleRate, s.Channels)

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	mctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", ErrDeviceUnavailable, err)
	}

	st := &malgoStream{
		mctx:     mctx,
		encoding: enc,
		chunks:   make(chan []byte, chunkBuffer),
		logger:   logger,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(enc.Channels)
	deviceConfig.SampleRate = uint32(enc.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	if s.Device != "" {
		infos, err := mctx.Devices(malgo.Capture)
		if err != nil {
			st.freeContext()
			return nil, fmt.Errorf("%w: list capture devices: %v", ErrDeviceUnavailable, err)
		}
		found := false
		for _, info := range infos {
			if strings.EqualFold(info.Name(), s.Device) {
				deviceConfig.Capture.DeviceID = info.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			st.freeContext()
			return nil, fmt.Errorf("%w: capture device %q not found", ErrDeviceUnavailable, s.Device)
		}
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			st.push(pInputSamples)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		st.freeContext()
		return nil, classifyDeviceError("init microphone", err)
	}
	st.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		st.freeContext()
		return nil, classifyDeviceError("start microphone", err)
	}
	st.live.Store(true)

	logger.Debug("malgo capture started",
		zap.Int("sample_rate", enc.SampleRate),
		zap.Int("channels", enc.Channels),
		zap.String("device", s.Device),
	)
	return st, nil
}

type malgoStream struct {
	mctx     *malgo.AllocatedContext
	device   *malgo.Device
	encoding Encoding
	logger   *zap.Logger

	mu      sync.Mutex
	chunks  chan []byte
	closed  bool
	dropped int

	live         atomic.Bool
	finalizeOnce sync.Once
	releaseOnce  sync.Once
}

// push runs on the audio thread and must not block.
func (m *malgoStream) push(samples []byte) {
	if len(samples) == 0 {
		return
	}
	chunk := make([]byte, len(samples))
	copy(chunk, samples)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.chunks <- chunk:
	default:
		m.dropped++
	}
}

func (m *malgoStream) Chunks() <-chan []byte { return m.chunks }

func (m *malgoStream) Encoding() Encoding { return m.encoding }

func (m *malgoStream) Active() bool { return m.live.Load() }

func (m *malgoStream) Finalize() {
	m.finalizeOnce.Do(func() {
		if m.device != nil {
			_ = m.device.Stop()
		}
		m.mu.Lock()
		m.closed = true
		close(m.chunks)
		dropped := m.dropped
		m.mu.Unlock()

		if dropped > 0 {
			m.logger.Warn("capture dropped audio periods", zap.Int("dropped", dropped))
		}
	})
}

func (m *malgoStream) Release() error {
	m.releaseOnce.Do(func() {
		m.Finalize()
		if m.device != nil {
			m.device.Uninit()
		}
		m.freeContext()
		m.live.Store(false)
	})
	return nil
}

func (m *malgoStream) freeContext() {
	if m.mctx == nil {
		return
	}
	_ = m.mctx.Uninit()
	m.mctx.Free()
	m.mctx = nil
}

func classifyDeviceError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "denied") || strings.Contains(msg, "permission") {
		return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, op, err)
}
