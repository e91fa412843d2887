// internal/protocol/serial_connection.go
package protocol

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialConfig represents serial line configuration. The line is always 8N1.
type SerialConfig struct {
	ReadTimeout time.Duration `json:"read_timeout"`
}

// DefaultSerialConfig returns a 50ms poll
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		ReadTimeout: 50 * time.Millisecond,
	}
}

// NewSerialOpener returns a PortOpener backed by go.bug.st/serial
func NewSerialOpener(config SerialConfig, logger *zap.Logger) PortOpener {
	logger = logger.With(zap.String("protocol", "serial"))

	return func(name string, baudRate int) (Port, error) {
		mode := &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}

		logger.Info("Opening serial port",
			zap.String("port", name),
			zap.Int("baud_rate", baudRate),
		)

		port, err := serial.Open(name, mode)
		if err != nil {
			logger.Error("Failed to open serial port", zap.Error(err), zap.String("port", name))
			return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
		}

		// Reads must return periodically so the handshake can poll its stop flag
		if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}

		return port, nil
	}
}
