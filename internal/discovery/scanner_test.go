package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScanner struct {
	kind      string
	available bool
	ports     []*PortInfo
	err       error
}

func (s *stubScanner) Scan(ctx context.Context) ([]*PortInfo, error) { return s.ports, s.err }
func (s *stubScanner) GetScannerType() string                       { return s.kind }
func (s *stubScanner) IsAvailable() bool                            { return s.available }

func TestScanAllMergesAndSorts(t *testing.T) {
	manager := NewScannerManager(zap.NewNop())
	manager.RegisterScanner(&stubScanner{kind: "serial", available: true, ports: []*PortInfo{
		{Name: "/dev/ttyUSB1"}, {Name: "/dev/ttyACM0", IsUSB: true},
	}})
	manager.RegisterScanner(&stubScanner{kind: "static", available: true, ports: []*PortInfo{
		{Name: "/dev/ttyUSB1", Description: "duplicate"}, {Name: "/dev/ttyS0"},
	}})
	manager.RegisterScanner(&stubScanner{kind: "broken", available: true, err: errors.New("boom")})
	manager.RegisterScanner(&stubScanner{kind: "offline", available: false, ports: []*PortInfo{{Name: "X"}}})

	ports, err := manager.ScanAll(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"/dev/ttyACM0", "/dev/ttyS0", "/dev/ttyUSB1"}, names)
	assert.Equal(t, []string{"broken", "serial", "static"}, manager.GetAvailableScanners())
}

func TestScanByType(t *testing.T) {
	manager := NewScannerManager(zap.NewNop())
	manager.RegisterScanner(&stubScanner{kind: "offline"})

	_, err := manager.ScanByType(context.Background(), "missing")
	assert.ErrorContains(t, err, "scanner type not found")

	_, err = manager.ScanByType(context.Background(), "offline")
	assert.ErrorContains(t, err, "scanner not available")
}
