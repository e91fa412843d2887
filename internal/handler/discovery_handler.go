// internal/handler/discovery_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dipcoater-service/internal/service"
	"dipcoater-service/internal/utils"
)

// DiscoveryHandler handles serial port discovery requests
type DiscoveryHandler struct {
	deviceService *service.DeviceService
	logger        *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(deviceService *service.DeviceService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		deviceService: deviceService,
		logger:        utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.GET("/scan", h.ScanPorts)
		discovery.GET("/scanners", h.GetScanners)
	}
}

// ScanPorts scans for ports
// @Summary Scan for ports
// @Description Scan for ports with every scanner or a single scanner type
// @Tags Discovery
// @Produce json
// @Param type query string false "Scanner type" default(all)
// @Success 200 {object} utils.APIResponse{data=object{ports_found=int,ports=[]discovery.PortInfo}} "Port scan completed"
// @Failure 422 {object} utils.APIResponse "Unknown scanner"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanPorts(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")

	ports, err := h.deviceService.ScanPorts(c.Request.Context(), scanType)
	if err != nil {
		h.logger.Error("Failed to scan ports", zap.Error(err), zap.String("type", scanType))
		utils.DomainErrorResponse(c, "Failed to scan ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Port scan completed", gin.H{
		"ports_found": len(ports),
		"ports":       ports,
	})
}

// GetScanners returns the scanner types available on this host
// @Summary Get scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string} "Available scanners"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	scanners := h.deviceService.AvailableScanners()
	if scanners == nil {
		scanners = []string{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Available scanners", scanners)
}
