// internal/protocol/link.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dipcoater-service/internal/model"
)

// State represents the connection handshake state
type State string

const (
	StateIdle          State = "IDLE"
	StateOpening       State = "OPENING"
	StateAwaitingSyn   State = "AWAITING_SYN"
	StateSynSeen       State = "SYN_SEEN"
	StateAwaitingAck   State = "AWAITING_ACK"
	StateConnected     State = "CONNECTED"
	StateDisconnecting State = "DISCONNECTING"
	StateDisconnected  State = "DISCONNECTED"
	StateFailed        State = "FAILED"
)

// LinkConfig represents handshake configuration
type LinkConfig struct {
	// HandshakeTimeout bounds the wait for the device; zero waits indefinitely.
	HandshakeTimeout time.Duration `json:"handshake_timeout"`
}

// DefaultLinkConfig returns the controller defaults
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{}
}

// Status is a snapshot of the link
type Status struct {
	State     State         `json:"state"`
	Connected bool          `json:"connected"`
	Port      string        `json:"port,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	Stats     ProtocolStats `json:"stats"`
}

// session is one connect attempt. The worker owns port until it exits.
type session struct {
	name string
	port Port
	stop atomic.Bool
	done chan struct{}
}

// Link owns the serial channel to the controller and runs the handshake
type Link struct {
	config LinkConfig
	opener PortOpener
	events *EventQueue
	logger *zap.Logger
	stats  statsRecorder

	mu        sync.Mutex
	state     State
	port      Port
	portName  string
	connected bool
	session   *session
	lastErr   error
}

// NewLink creates a link in the Idle state
func NewLink(config LinkConfig, opener PortOpener, logger *zap.Logger) *Link {
	return &Link{
		config: config,
		opener: opener,
		events: NewEventQueue(),
		logger: logger.With(zap.String("component", "device-link")),
		state:  StateIdle,
	}
}

// Events returns the ordered event stream of the link
func (l *Link) Events() <-chan model.LinkEvent {
	return l.events.Events()
}

// Connect opens the port and starts the handshake worker. It returns once the
// port is open; handshake progress is reported through Events.
func (l *Link) Connect(portName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session != nil || l.connected {
		return ErrAlreadyConnected
	}

	l.info(fmt.Sprintf("Opening serial port %s at %d baud", portName, DefaultBaudRate))
	l.emit(model.LinkEvent{Type: model.EventProgressVisible, Visible: true})

	port, err := l.opener(portName, DefaultBaudRate)
	if err != nil {
		ioErr := &IOError{Op: "open", Err: err}
		l.stats.failed()
		l.lastErr = ioErr
		l.state = StateIdle
		l.emit(model.LinkEvent{Type: model.EventError, Message: ioErr.Error()})
		l.emit(model.LinkEvent{Type: model.EventProgressVisible, Visible: false})
		l.emit(model.LinkEvent{Type: model.EventDisconnect})
		return ioErr
	}

	s := &session{name: portName, port: port, done: make(chan struct{})}
	l.session = s
	l.port = port
	l.portName = portName
	l.lastErr = nil
	l.state = StateOpening

	go l.run(s)
	return nil
}

// Disconnect ends the session. While a handshake is running it only raises the
// stop flag; the worker releases the port when it observes it.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s := l.session; s != nil {
		if !s.stop.Load() {
			l.info("Disconnecting...")
			s.stop.Store(true)
			l.state = StateDisconnecting
		}
		return nil
	}

	if l.port == nil && !l.connected {
		l.state = StateIdle
		return nil
	}

	l.info("Disconnecting...")
	err := l.closeLocked(l.connected)
	l.state = StateIdle
	l.emit(model.LinkEvent{Type: model.EventConnectionState, Connected: false})
	if err != nil {
		l.emit(model.LinkEvent{Type: model.EventError, Message: err.Error()})
	}
	return err
}

// SendSettings writes the settings opcode followed by the 12-byte frame
func (l *Link) SendSettings(settings model.Settings) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected || l.port == nil {
		return ErrNotConnected
	}

	frame, err := settings.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	l.info("Writing settings")
	payload := append([]byte{OpSettingsFollow}, frame...)
	if err := l.write(l.port, payload); err != nil {
		l.failLocked(err)
		return err
	}

	l.logger.Debug("Settings frame written",
		zap.Uint32("steps_per_mm", settings.StepsPerMM),
		zap.Uint32("max_steps_count", settings.MaxStepsCount),
		zap.Binary("frame", frame),
	)
	l.emit(model.LinkEvent{Type: model.EventSuccess, Message: "Settings sent"})
	return nil
}

// Wait blocks until the running handshake worker exits
func (l *Link) Wait(ctx context.Context) error {
	l.mu.Lock()
	s := l.session
	l.mu.Unlock()

	if s == nil {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current handshake state
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsConnected reports whether the handshake completed
func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Status returns a snapshot of the link
func (l *Link) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := Status{
		State:     l.state,
		Connected: l.connected,
		Stats:     l.stats.snapshot(),
	}
	if l.port != nil || l.session != nil {
		status.Port = l.portName
	}
	if l.lastErr != nil {
		status.LastError = l.lastErr.Error()
	}
	return status
}

// LastError returns the error that ended the last session, if any
func (l *Link) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Close disconnects and stops event delivery
func (l *Link) Close() error {
	err := l.Disconnect()
	_ = l.Wait(context.Background())
	l.events.Close()
	return err
}

// run is the handshake worker
func (l *Link) run(s *session) {
	defer close(s.done)
	err := l.handshake(s)
	l.finish(s, err)
}

func (l *Link) handshake(s *session) error {
	l.progress(0)

	var deadline time.Time
	if l.config.HandshakeTimeout > 0 {
		deadline = time.Now().Add(l.config.HandshakeTimeout)
	}

	// Reopen to reset the line; some controllers only boot cleanly on a fresh open
	if err := s.port.Close(); err != nil {
		l.logger.Debug("Close before reopen failed", zap.Error(err))
	}
	port, err := l.opener(s.name, DefaultBaudRate)
	if err != nil {
		l.swapPort(s, nil)
		return &IOError{Op: "open", Err: err}
	}
	l.swapPort(s, port)

	if err := port.ResetInputBuffer(); err != nil {
		return &IOError{Op: "reset", Err: err}
	}
	l.info("Serial port open")
	l.info("Waiting for device...")
	l.progress(25)
	l.setState(s, StateAwaitingSyn)

	for {
		b, err := l.readByte(s, deadline)
		if err != nil {
			return err
		}
		if b == OpDeviceReady {
			break
		}
		l.logger.Debug("Ignoring byte before device ready", zap.Uint8("byte", b))
	}

	l.info("Device ready")
	l.setState(s, StateSynSeen)
	l.info("Sending SYN")
	l.progress(50)
	if err := port.ResetInputBuffer(); err != nil {
		return &IOError{Op: "reset", Err: err}
	}
	if err := l.write(port, []byte{OpHostSyn}); err != nil {
		return err
	}

	l.setState(s, StateAwaitingAck)
	l.info("Waiting for ACK byte from device")
	b, err := l.readByte(s, deadline)
	if err != nil {
		return err
	}
	if b != OpDeviceAck {
		return &ProtocolViolation{Stage: "ACK", Expected: OpDeviceAck, Got: b}
	}

	l.info("ACK byte received")
	l.progress(75)
	if err := l.write(port, []byte{OpHostConfirm}); err != nil {
		return err
	}
	l.progress(100)
	return nil
}

// finish settles the link state once the worker is done
func (l *Link) finish(s *session, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.session = nil
	stopped := s.stop.Load()

	switch {
	case err == nil && !stopped:
		l.connected = true
		l.state = StateConnected
		l.stats.connected(true)
		l.emit(model.LinkEvent{Type: model.EventSuccess, Message: "Connection established"})
		l.emit(model.LinkEvent{Type: model.EventProgressVisible, Visible: false})
		l.emit(model.LinkEvent{Type: model.EventConnectionState, Connected: true})
		l.logger.Info("Device connected", zap.String("port", s.name))

	case err == nil:
		// Handshake completed after disconnect was requested; tell the device we leave
		if closeErr := l.closeLocked(true); closeErr != nil {
			l.logger.Warn("Disconnect after handshake failed", zap.Error(closeErr))
		}
		l.state = StateDisconnected
		l.emit(model.LinkEvent{Type: model.EventProgressVisible, Visible: false})
		l.emit(model.LinkEvent{Type: model.EventConnectionState, Connected: false})

	case errors.Is(err, errStopRequested):
		_ = l.closeLocked(false)
		l.state = StateDisconnected
		l.emit(model.LinkEvent{Type: model.EventProgressVisible, Visible: false})
		l.info("Connection attempt cancelled")

	default:
		l.stats.failed()
		_ = l.closeLocked(false)
		l.state = StateFailed
		l.lastErr = err
		l.logger.Warn("Handshake failed", zap.String("port", s.name), zap.Error(err))
		l.emit(model.LinkEvent{Type: model.EventError, Message: err.Error()})
		l.emit(model.LinkEvent{Type: model.EventProgressVisible, Visible: false})
		l.emit(model.LinkEvent{Type: model.EventDisconnect})
	}
}

// readByte polls until one byte arrives, the stop flag is raised, the deadline
// passes or the port fails
func (l *Link) readByte(s *session, deadline time.Time) (byte, error) {
	buf := make([]byte, 1)
	for {
		if s.stop.Load() {
			return 0, errStopRequested
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return 0, ErrHandshakeTimeout
		}

		n, err := s.port.Read(buf)
		if err != nil {
			if s.stop.Load() {
				return 0, errStopRequested
			}
			return 0, &IOError{Op: "read", Err: err}
		}
		if n == 1 {
			l.stats.read(n)
			l.logger.Debug("Byte read from serial port", zap.Binary("data", buf))
			return buf[0], nil
		}
	}
}

func (l *Link) write(port Port, data []byte) error {
	n, err := port.Write(data)
	if err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if n != len(data) {
		return &IOError{Op: "write", Err: fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))}
	}

	l.stats.wrote(n)
	l.logger.Debug("Data written to serial port", zap.Binary("data", data))
	return nil
}

// closeLocked optionally sends the disconnect notice and releases the port
func (l *Link) closeLocked(notify bool) error {
	var err error
	if l.port != nil {
		if notify {
			err = l.write(l.port, []byte{OpDisconnectNotice})
		}
		if closeErr := l.port.Close(); closeErr != nil && err == nil {
			err = &IOError{Op: "close", Err: closeErr}
		}
	}

	l.port = nil
	l.connected = false
	l.stats.connected(false)
	return err
}

// failLocked tears down a connected session after an I/O error
func (l *Link) failLocked(err error) {
	l.stats.failed()
	_ = l.closeLocked(false)
	l.state = StateFailed
	l.lastErr = err
	l.emit(model.LinkEvent{Type: model.EventError, Message: err.Error()})
	l.emit(model.LinkEvent{Type: model.EventConnectionState, Connected: false})
	l.emit(model.LinkEvent{Type: model.EventDisconnect})
}

func (l *Link) swapPort(s *session, port Port) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.port = port
	l.port = port
}

func (l *Link) setState(s *session, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !s.stop.Load() {
		l.state = state
	}
}

func (l *Link) info(message string) {
	l.emit(model.LinkEvent{Type: model.EventInfo, Message: message})
}

func (l *Link) progress(percent int) {
	l.emit(model.LinkEvent{Type: model.EventProgressPercent, Percent: percent})
}

func (l *Link) emit(event model.LinkEvent) {
	l.events.Publish(event)
}
