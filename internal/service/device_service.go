// internal/service/device_service.go
package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dipcoater-service/internal/config"
	"dipcoater-service/internal/discovery"
	"dipcoater-service/internal/model"
	"dipcoater-service/internal/protocol"
	"dipcoater-service/internal/utils"
)

// DeviceLink is the serial link the service drives
type DeviceLink interface {
	Connect(portName string) error
	Disconnect() error
	SendSettings(settings model.Settings) error
	Status() protocol.Status
	Events() <-chan model.LinkEvent
	Wait(ctx context.Context) error
	Close() error
}

// DeviceService handles the controller connection and settings upload
type DeviceService struct {
	link     DeviceLink
	scanners *discovery.ScannerManager
	eventBus *EventBus
	config   *config.Config
	logger   *utils.ServiceLogger

	mu         sync.Mutex
	linkLogger *utils.LinkLogger
	pumpDone   chan struct{}
}

// NewDeviceService creates a new device service and starts forwarding link events
func NewDeviceService(
	link DeviceLink,
	scanners *discovery.ScannerManager,
	eventBus *EventBus,
	config *config.Config,
	logger *zap.Logger,
) *DeviceService {
	ds := &DeviceService{
		link:       link,
		scanners:   scanners,
		eventBus:   eventBus,
		config:     config,
		logger:     utils.NewServiceLogger(logger, "device-service"),
		linkLogger: utils.NewLinkLogger(logger, ""),
		pumpDone:   make(chan struct{}),
	}

	go ds.pumpEvents()
	return ds
}

// Connect starts the handshake on port. Progress arrives as link events.
func (ds *DeviceService) Connect(ctx context.Context, port string) error {
	port = strings.TrimSpace(port)
	if port == "" {
		return model.NewValidationError("port", "", "must not be empty")
	}

	ds.mu.Lock()
	ds.linkLogger = utils.NewLinkLogger(ds.logger.Logger, port)
	linkLogger := ds.linkLogger
	ds.mu.Unlock()

	if err := ds.link.Connect(port); err != nil {
		linkLogger.LogConnection("connect", false, err)
		return err
	}

	linkLogger.LogConnection("connect", true, nil)
	return nil
}

// Disconnect ends the session or cancels a running handshake
func (ds *DeviceService) Disconnect(ctx context.Context) error {
	err := ds.link.Disconnect()

	ds.mu.Lock()
	linkLogger := ds.linkLogger
	ds.mu.Unlock()
	linkLogger.LogConnection("disconnect", err == nil, err)

	return err
}

// Status returns the link status
func (ds *DeviceService) Status() protocol.Status {
	return ds.link.Status()
}

// ListPorts enumerates serial ports
func (ds *DeviceService) ListPorts(ctx context.Context) ([]*discovery.PortInfo, error) {
	ports, err := ds.scanners.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	if ports == nil {
		ports = []*discovery.PortInfo{}
	}
	return ports, nil
}

// ScanPorts runs a single scanner, or every scanner when scannerType is
// empty or "all"
func (ds *DeviceService) ScanPorts(ctx context.Context, scannerType string) ([]*discovery.PortInfo, error) {
	if scannerType == "" || scannerType == "all" {
		return ds.ListPorts(ctx)
	}

	if !slices.Contains(ds.scanners.GetAvailableScanners(), scannerType) {
		return nil, model.NewValidationError("type", scannerType, "scanner is not available")
	}

	ports, err := ds.scanners.ScanByType(ctx, scannerType)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s ports: %w", scannerType, err)
	}
	if ports == nil {
		ports = []*discovery.PortInfo{}
	}
	return ports, nil
}

// AvailableScanners returns the scanner types usable on this host
func (ds *DeviceService) AvailableScanners() []string {
	return ds.scanners.GetAvailableScanners()
}

// SettingsDefaults returns the configured settings form values
func (ds *DeviceService) SettingsDefaults() SettingsDefaults {
	device := ds.config.Device
	return SettingsDefaults{
		StepsPerMM:          device.StepsPerMM,
		DriverStepsDivision: device.DriverStepsDivision,
		MaxSpeed:            device.MaxSpeed,
		InvertDirection:     device.InvertDirection,
		InvertEnable:        device.InvertEnable,
		LogLevel:            strings.ToUpper(device.LogLevel),
		LogLevels: []string{
			model.LogLevelOff.String(),
			model.LogLevelInfo.String(),
			model.LogLevelDebug.String(),
		},
	}
}

// BuildSettings turns a request into a validated settings frame
func (ds *DeviceService) BuildSettings(req *SettingsRequest) (model.Settings, error) {
	defaults := ds.config.Device
	input := model.SettingsInput{
		StepsPerMM:          defaults.StepsPerMM,
		DriverStepsDivision: defaults.DriverStepsDivision,
		MaxSpeed:            defaults.MaxSpeed,
		InvertDirection:     defaults.InvertDirection,
		InvertEnable:        defaults.InvertEnable,
	}
	levelName := defaults.LogLevel

	if req != nil {
		if req.StepsPerMM != nil {
			input.StepsPerMM = *req.StepsPerMM
		}
		if req.DriverStepsDivision != nil {
			input.DriverStepsDivision = *req.DriverStepsDivision
		}
		if req.MaxSpeed != nil {
			input.MaxSpeed = *req.MaxSpeed
		}
		if req.InvertDirection != nil {
			input.InvertDirection = *req.InvertDirection
		}
		if req.InvertEnable != nil {
			input.InvertEnable = *req.InvertEnable
		}
		if req.LogLevel != "" {
			levelName = req.LogLevel
		}
	}

	level, err := model.ParseLogLevel(levelName)
	if err != nil {
		return model.Settings{}, err
	}
	input.Debug = level

	return model.NewSettings(input)
}

// SendSettings validates the request and uploads the frame
func (ds *DeviceService) SendSettings(ctx context.Context, req *SettingsRequest) (*SettingsResult, error) {
	settings, err := ds.BuildSettings(req)
	if err != nil {
		return nil, err
	}

	frame, err := settings.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := ds.link.SendSettings(settings); err != nil {
		ds.logger.Warn("Failed to send settings", zap.Error(err))
		return nil, err
	}

	ds.logger.Info("Settings sent",
		zap.Uint32("steps_per_mm", settings.StepsPerMM),
		zap.Uint32("max_steps_count", settings.MaxStepsCount),
		zap.Uint8("driver_steps_division", settings.DriverStepsDivision),
		zap.String("debug", settings.Debug.String()),
	)

	return &SettingsResult{
		Settings: settings,
		MaxSpeed: settings.MaxSpeed(),
		Frame:    hex.EncodeToString(frame),
	}, nil
}

// Close disconnects the link and waits for the event pump to drain
func (ds *DeviceService) Close() error {
	err := ds.link.Close()
	<-ds.pumpDone
	return err
}

// pumpEvents renders link events as log lines and republishes them on the bus
func (ds *DeviceService) pumpEvents() {
	defer close(ds.pumpDone)

	for event := range ds.link.Events() {
		ds.mu.Lock()
		linkLogger := ds.linkLogger
		ds.mu.Unlock()

		linkLogger.LogEvent(event)

		if ds.eventBus != nil {
			ds.eventBus.Publish(Event{
				Type:      EventTypeLink,
				Source:    "device-link",
				Data:      event,
				Timestamp: event.Timestamp,
			})
		}
	}
}
