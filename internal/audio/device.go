package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/alkime/onerep/pkg/channels"
	"github.com/alkime/onerep/pkg/collections"
)

// levelWindow is ~50ms of samples at 16kHz.
const levelWindow = 800

// Microphone captures PCM from a malgo capture device. Each Open allocates the
// device and each Close releases it, so the microphone is only held while a
// command is being listened for.
type Microphone struct {
	conf   DeviceConfig
	levels *SampleRingBuffer

	dropped atomic.Int64

	mu       sync.Mutex
	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
	stop     chan struct{}
	released chan struct{}
}

// NewMicrophone creates a microphone. The device is not touched until Open.
func NewMicrophone(conf DeviceConfig) (*Microphone, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device config: %w", err)
	}

	return &Microphone{
		conf:   conf,
		levels: NewSampleRingBuffer(conf.SampleRate),
	}, nil
}

// Open starts capture. The returned channel is closed after Close is called
// or ctx is done and the device has been released.
func (m *Microphone) Open(ctx context.Context) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mgDevice != nil {
		return nil, errors.New("microphone already open")
	}

	dataC := make(chan []byte, m.conf.BufferPackets)

	mgCtx, mgDevice, err := m.allocMGDevice(dataC)
	if err != nil {
		return nil, fmt.Errorf("failed to create malgo capture device: %w", err)
	}

	if err := mgDevice.Start(); err != nil {
		mgDevice.Uninit()
		uninitializeContext(mgCtx)

		return nil, fmt.Errorf("failed to start malgo device: %w", err)
	}

	stop := make(chan struct{})
	released := make(chan struct{})
	m.mgCtx, m.mgDevice, m.stop, m.released = mgCtx, mgDevice, stop, released

	go func() {
		defer close(released)

		select {
		case <-ctx.Done():
		case <-stop:
		}

		m.deallocMGDevice()
		close(dataC)
	}()

	return dataC, nil
}

// Close stops capture and waits for the device to be released. Closing a
// microphone that is not open is a no-op.
func (m *Microphone) Close() error {
	m.mu.Lock()
	stop, released := m.stop, m.released
	m.stop = nil
	m.mu.Unlock()

	if stop == nil {
		return nil
	}

	close(stop)
	<-released

	if n := m.dropped.Swap(0); n > 0 {
		slog.Debug("microphone dropped packets", "count", n)
	}

	return nil
}

// Read returns the most recent samples for level display.
func (m *Microphone) Read() []int16 {
	return m.levels.ReadSamples(levelWindow)
}

// deliver copies a callback buffer, since malgo reuses it, and hands it on
// without ever blocking the audio thread.
func (m *Microphone) deliver(dataC chan<- []byte, samples []byte) {
	buf := make([]byte, len(samples))
	copy(buf, samples)

	m.levels.Write(BytesToInt16(buf))

	if err := channels.SendNonBlock(dataC, buf); err != nil {
		m.dropped.Add(1)
	}
}

func (m *Microphone) allocMGDevice(dataC chan<- []byte) (*malgo.AllocatedContext, *malgo.Device, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = m.conf.Format
	devCnf.Capture.Channels = uint32(m.conf.CaptureChannels) //nolint:gosec // validated as 1
	devCnf.SampleRate = uint32(m.conf.SampleRate)            //nolint:gosec // validated positive

	if m.conf.DeviceName != "" {
		id, err := findCaptureDevice(mgCtx, m.conf.DeviceName)
		if err != nil {
			uninitializeContext(mgCtx)
			return nil, nil, err
		}

		devCnf.Capture.DeviceID = id.Pointer()
	}

	callBacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			m.deliver(dataC, samples)
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callBacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return nil, nil, fmt.Errorf("failed to initialize malgo device: %w", err)
	}

	return mgCtx, mgDevice, nil
}

func (m *Microphone) deallocMGDevice() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mgDevice == nil {
		return
	}

	m.mgDevice.Uninit()
	uninitializeContext(m.mgCtx)
	m.mgDevice = nil
	m.mgCtx = nil
}

func findCaptureDevice(mgCtx *malgo.AllocatedContext, name string) (*malgo.DeviceID, error) {
	devices, err := mgCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	for i := range devices {
		if devices[i].Name() == name {
			return &devices[i].ID, nil
		}
	}

	return nil, fmt.Errorf("capture device %q not found", name)
}

// Info describes a capture device.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

// EnumerateDevices lists available capture devices.
func EnumerateDevices(_ context.Context) ([]Info, error) {
	// An empty context is enough for enumeration.
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, malgoDeviceInfoToDeviceInfo), nil
}

func malgoDeviceInfoToDeviceInfo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(mf.Format),
			mf.Channels, mf.SampleRate)
	}

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}

	deviceCtx.Free()
}
