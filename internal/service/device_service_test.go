package service

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dipcoater-service/internal/config"
	"dipcoater-service/internal/discovery"
	"dipcoater-service/internal/model"
	"dipcoater-service/internal/protocol"
)

type fakeLink struct {
	mu         sync.Mutex
	connected  bool
	port       string
	sent       []model.Settings
	connectErr error
	events     chan model.LinkEvent
	closeOnce  sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{events: make(chan model.LinkEvent, 16)}
}

func (f *fakeLink) Connect(port string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	if f.connected {
		return protocol.ErrAlreadyConnected
	}
	f.connected = true
	f.port = port
	return nil
}

func (f *fakeLink) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeLink) SendSettings(settings model.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return protocol.ErrNotConnected
	}
	f.sent = append(f.sent, settings)
	return nil
}

func (f *fakeLink) Status() protocol.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := protocol.StateIdle
	if f.connected {
		state = protocol.StateConnected
	}
	return protocol.Status{State: state, Connected: f.connected, Port: f.port}
}

func (f *fakeLink) Events() <-chan model.LinkEvent  { return f.events }
func (f *fakeLink) Wait(ctx context.Context) error { return nil }

func (f *fakeLink) Close() error {
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

type staticScanner struct{ ports []*discovery.PortInfo }

func (s staticScanner) Scan(ctx context.Context) ([]*discovery.PortInfo, error) { return s.ports, nil }
func (s staticScanner) GetScannerType() string                                 { return "static" }
func (s staticScanner) IsAvailable() bool                                      { return true }

func testConfig() *config.Config {
	return &config.Config{
		Device: config.DeviceConfig{
			StepsPerMM:          100,
			DriverStepsDivision: 8,
			MaxSpeed:            7.0,
			InvertDirection:     1,
			InvertEnable:        1,
			LogLevel:            "NO_LOG",
		},
	}
}

func newDeviceService(t *testing.T, link *fakeLink, bus *EventBus) *DeviceService {
	t.Helper()
	scanners := discovery.NewScannerManager(zap.NewNop())
	scanners.RegisterScanner(staticScanner{ports: []*discovery.PortInfo{{Name: "/dev/ttyACM0", IsUSB: true}}})

	ds := NewDeviceService(link, scanners, bus, testConfig(), zap.NewNop())
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestDeviceConnectValidatesPort(t *testing.T) {
	ds := newDeviceService(t, newFakeLink(), nil)

	err := ds.Connect(context.Background(), "   ")
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "port", verr.Field)
}

func TestDeviceConnectAndStatus(t *testing.T) {
	link := newFakeLink()
	ds := newDeviceService(t, link, nil)
	ctx := context.Background()

	require.NoError(t, ds.Connect(ctx, "/dev/ttyACM0"))
	assert.ErrorIs(t, ds.Connect(ctx, "/dev/ttyACM0"), protocol.ErrAlreadyConnected)

	status := ds.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "/dev/ttyACM0", status.Port)

	require.NoError(t, ds.Disconnect(ctx))
	assert.False(t, ds.Status().Connected)
}

func TestDeviceConnectPropagatesIOError(t *testing.T) {
	link := newFakeLink()
	link.connectErr = &protocol.IOError{Op: "open", Err: errors.New("permission denied")}
	ds := newDeviceService(t, link, nil)

	err := ds.Connect(context.Background(), "COM9")
	var ioErr *protocol.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestBuildSettingsUsesDefaults(t *testing.T) {
	ds := newDeviceService(t, newFakeLink(), nil)

	settings, err := ds.BuildSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), settings.StepsPerMM)
	assert.Equal(t, uint32(5600), settings.MaxStepsCount)
	assert.Equal(t, uint8(8), settings.DriverStepsDivision)
	assert.Equal(t, uint8(1), settings.InvertDirection)
	assert.Equal(t, uint8(1), settings.InvertEnable)
	assert.Equal(t, model.LogLevelOff, settings.Debug)

	speed := 50.0
	steps := 100
	settings, err = ds.BuildSettings(&SettingsRequest{StepsPerMM: &steps, MaxSpeed: &speed, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, uint32(40000), settings.MaxStepsCount)
	assert.Equal(t, model.LogLevelDebug, settings.Debug)

	_, err = ds.BuildSettings(&SettingsRequest{LogLevel: "VERBOSE"})
	assert.Error(t, err)

	invalid := 2
	_, err = ds.BuildSettings(&SettingsRequest{InvertEnable: &invalid})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invert_enable", verr.Field)
}

func TestSendSettings(t *testing.T) {
	link := newFakeLink()
	ds := newDeviceService(t, link, nil)
	ctx := context.Background()

	_, err := ds.SendSettings(ctx, nil)
	assert.ErrorIs(t, err, protocol.ErrNotConnected)

	require.NoError(t, ds.Connect(ctx, "COM3"))
	result, err := ds.SendSettings(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "64000000e015000008010100", result.Frame)
	assert.InDelta(t, 7.0, result.MaxSpeed, 1e-9)
	require.Len(t, link.sent, 1)

	sent, err := link.sent[0].MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(sent), result.Frame)
}

func TestListPorts(t *testing.T) {
	ds := newDeviceService(t, newFakeLink(), nil)

	ports, err := ds.ListPorts(context.Background())
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, "/dev/ttyACM0", ports[0].Name)

	defaults := ds.SettingsDefaults()
	assert.Equal(t, "NO_LOG", defaults.LogLevel)
	assert.Equal(t, []string{"NO_LOG", "INFO", "DEBUG"}, defaults.LogLevels)
}

func TestLinkEventsReachEventBus(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	subscription := bus.Subscribe(EventTypeLink)
	go bus.Start()
	defer bus.Stop()

	link := newFakeLink()
	newDeviceService(t, link, bus)

	link.events <- model.LinkEvent{Seq: 1, Type: model.EventInfo, Message: "Device ready"}
	link.events <- model.LinkEvent{Seq: 2, Type: model.EventProgressPercent, Percent: 50}

	for _, expected := range []uint64{1, 2} {
		select {
		case event := <-subscription:
			linkEvent, ok := event.Data.(model.LinkEvent)
			require.True(t, ok)
			assert.Equal(t, expected, linkEvent.Seq)
		case <-time.After(time.Second):
			t.Fatalf("link event %d not forwarded", expected)
		}
	}
}
