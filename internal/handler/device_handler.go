// internal/handler/device_handler.go
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dipcoater-service/internal/service"
	"dipcoater-service/internal/utils"
)

// DeviceHandler handles controller connection and settings requests
type DeviceHandler struct {
	deviceService *service.DeviceService
	logger        *utils.ServiceLogger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *service.DeviceService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
		logger:        utils.NewServiceLogger(logger, "device-handler"),
	}
}

// ConnectRequest selects the serial port to connect to
type ConnectRequest struct {
	Port string `json:"port" binding:"required"`
}

// RegisterRoutes registers device routes
func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	device := router.Group("/device")
	{
		device.GET("/ports", h.ListPorts)
		device.GET("/status", h.GetStatus)
		device.POST("/connect", h.Connect)
		device.POST("/disconnect", h.Disconnect)
		device.GET("/settings", h.GetSettingsDefaults)
		device.POST("/settings", h.SendSettings)
	}
}

// ListPorts lists serial ports
// @Summary List serial ports
// @Description Enumerate serial ports the controller may be attached to
// @Tags Device
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]discovery.PortInfo} "Serial ports"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /device/ports [get]
func (h *DeviceHandler) ListPorts(c *gin.Context) {
	ports, err := h.deviceService.ListPorts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Serial ports", ports)
}

// GetStatus returns the link status
// @Summary Link status
// @Tags Device
// @Produce json
// @Success 200 {object} utils.APIResponse{data=protocol.Status} "Link status"
// @Router /device/status [get]
func (h *DeviceHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Link status", h.deviceService.Status())
}

// Connect starts the handshake with the controller
// @Summary Connect
// @Description Open the port and start the handshake. Progress is streamed on /ws/events.
// @Tags Device
// @Accept json
// @Produce json
// @Param request body ConnectRequest true "Serial port"
// @Success 202 {object} utils.APIResponse{data=protocol.Status} "Handshake started"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Already connected"
// @Failure 502 {object} utils.APIResponse "Port could not be opened"
// @Router /device/connect [post]
func (h *DeviceHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.deviceService.Connect(c.Request.Context(), req.Port); err != nil {
		utils.DomainErrorResponse(c, "Failed to connect", err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Handshake started", h.deviceService.Status())
}

// Disconnect ends the session
// @Summary Disconnect
// @Description Close the link. A running handshake is cancelled.
// @Tags Device
// @Produce json
// @Success 200 {object} utils.APIResponse{data=protocol.Status} "Disconnected"
// @Failure 502 {object} utils.APIResponse "Port error"
// @Router /device/disconnect [post]
func (h *DeviceHandler) Disconnect(c *gin.Context) {
	if err := h.deviceService.Disconnect(c.Request.Context()); err != nil {
		utils.DomainErrorResponse(c, "Failed to disconnect", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Disconnected", h.deviceService.Status())
}

// GetSettingsDefaults returns the configured settings form
// @Summary Settings defaults
// @Tags Device
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.SettingsDefaults} "Settings defaults"
// @Router /device/settings [get]
func (h *DeviceHandler) GetSettingsDefaults(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Settings defaults", h.deviceService.SettingsDefaults())
}

// SendSettings uploads a settings frame
// @Summary Send settings
// @Description Validate the settings and upload the 12-byte frame. Omitted fields use the configured defaults.
// @Tags Device
// @Accept json
// @Produce json
// @Param request body service.SettingsRequest false "Settings"
// @Success 200 {object} utils.APIResponse{data=service.SettingsResult} "Settings sent"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 422 {object} utils.APIResponse "Invalid settings"
// @Router /device/settings [post]
func (h *DeviceHandler) SendSettings(c *gin.Context) {
	var req service.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.deviceService.SendSettings(c.Request.Context(), &req)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to send settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings sent", result)
}
