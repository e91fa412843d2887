// 📁 internal/discovery/serial/scanner.go - Serial Scanner Implementation
package serial

import (
	"context"
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"dipcoater-service/internal/discovery"
	"dipcoater-service/internal/discovery/usb"
)

// Scanner lists serial ports present on the host
type Scanner struct {
	logger   *zap.Logger
	bridges  *usb.BridgeDatabase
	detailed func() ([]*enumerator.PortDetails, error)
	plain    func() ([]string, error)
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		logger:   logger.With(zap.String("scanner", "serial")),
		bridges:  usb.NewBridgeDatabase(),
		detailed: enumerator.GetDetailedPortsList,
		plain:    serial.GetPortsList,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists serial ports. USB details are included when the platform
// enumerator provides them; otherwise only port names are returned.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.PortInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details, err := s.detailed()
	if err == nil {
		ports := make([]*discovery.PortInfo, 0, len(details))
		for _, d := range details {
			ports = append(ports, s.describe(d))
		}
		s.logger.Debug("Serial ports enumerated", zap.Int("count", len(ports)))
		return ports, nil
	}

	s.logger.Debug("Detailed enumeration failed, falling back to port names", zap.Error(err))

	names, err := s.plain()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	ports := make([]*discovery.PortInfo, 0, len(names))
	for _, name := range names {
		ports = append(ports, &discovery.PortInfo{Name: name, Source: s.GetScannerType()})
	}
	return ports, nil
}

// describe converts enumerator details, naming known USB serial bridges
func (s *Scanner) describe(d *enumerator.PortDetails) *discovery.PortInfo {
	info := &discovery.PortInfo{
		Name:         d.Name,
		Description:  d.Product,
		IsUSB:        d.IsUSB,
		VID:          d.VID,
		PID:          d.PID,
		SerialNumber: d.SerialNumber,
		Source:       s.GetScannerType(),
	}
	if !d.IsUSB {
		return info
	}

	name, board := s.bridges.Describe(d.VID, d.PID)
	if name == "" {
		return info
	}
	info.KnownBridge = true
	info.Board = board
	if info.Description == "" {
		info.Description = name
	}
	return info
}
