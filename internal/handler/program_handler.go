// internal/handler/program_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dipcoater-service/internal/service"
	"dipcoater-service/internal/utils"
)

// ProgramHandler handles program editing and storage requests
type ProgramHandler struct {
	programService *service.ProgramService
	logger         *utils.ServiceLogger
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(programService *service.ProgramService, logger *zap.Logger) *ProgramHandler {
	return &ProgramHandler{
		programService: programService,
		logger:         utils.NewServiceLogger(logger, "program-handler"),
	}
}

// NewProgramRequest starts a new program
type NewProgramRequest struct {
	Version string `json:"version"`
}

// AddCommandRequest appends a command to the current program
type AddCommandRequest struct {
	Command string    `json:"command" binding:"required"`
	Args    []float64 `json:"args"`
}

// SaveProgramRequest stores the current program
type SaveProgramRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterRoutes registers program routes
func (h *ProgramHandler) RegisterRoutes(router *gin.RouterGroup) {
	program := router.Group("/program")
	{
		program.GET("", h.GetProgram)
		program.POST("", h.NewProgram)
		program.PUT("/version", h.SetVersion)
		program.POST("/commands", h.AddCommand)
		program.DELETE("/commands/:id", h.RemoveCommand)
		program.GET("/estimate", h.Estimate)
	}

	programs := router.Group("/programs")
	{
		programs.GET("", h.ListPrograms)
		programs.POST("", h.SaveProgram)
		programs.GET("/:name", h.ExportProgram)
		programs.PUT("/:name", h.ImportProgram)
		programs.POST("/:name/load", h.LoadProgram)
		programs.DELETE("/:name", h.DeleteProgram)
	}
}

// GetProgram returns the current program
// @Summary Get current program
// @Description Get the program being edited with its duration estimate
// @Tags Program
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.ProgramView} "Current program"
// @Router /program [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Current program", h.programService.Current())
}

// NewProgram replaces the current program with an empty one
// @Summary New program
// @Description Discard the current program and start an empty one
// @Tags Program
// @Accept json
// @Produce json
// @Param request body NewProgramRequest true "Program version"
// @Success 201 {object} utils.APIResponse{data=service.ProgramView} "Program created"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /program [post]
func (h *ProgramHandler) NewProgram(c *gin.Context) {
	var req NewProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Program created", h.programService.New(req.Version))
}

// SetVersion changes the version label
// @Summary Set program version
// @Tags Program
// @Accept json
// @Produce json
// @Param request body NewProgramRequest true "Program version"
// @Success 200 {object} utils.APIResponse{data=service.ProgramView} "Version updated"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /program/version [put]
func (h *ProgramHandler) SetVersion(c *gin.Context) {
	var req NewProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Version updated", h.programService.SetVersion(req.Version))
}

// AddCommand appends a command
// @Summary Add command
// @Description Append an UP, DOWN or IDLE_US command to the current program
// @Tags Program
// @Accept json
// @Produce json
// @Param request body AddCommandRequest true "Command"
// @Success 201 {object} utils.APIResponse{data=object{id=string}} "Command added"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 422 {object} utils.APIResponse "Invalid command or arguments"
// @Router /program/commands [post]
func (h *ProgramHandler) AddCommand(c *gin.Context) {
	var req AddCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.programService.AddCommand(req.Command, req.Args)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to add command", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Command added", gin.H{
		"id":      id.String(),
		"summary": h.programService.Estimate(),
	})
}

// RemoveCommand removes a command by id
// @Summary Remove command
// @Tags Program
// @Produce json
// @Param id path string true "Command ID"
// @Success 200 {object} utils.APIResponse{data=service.Summary} "Command removed"
// @Failure 400 {object} utils.APIResponse "Invalid command ID"
// @Failure 404 {object} utils.APIResponse "Command not found"
// @Router /program/commands/{id} [delete]
func (h *ProgramHandler) RemoveCommand(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid command ID", err)
		return
	}

	if err := h.programService.RemoveCommand(id); err != nil {
		utils.DomainErrorResponse(c, "Failed to remove command", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Command removed", h.programService.Estimate())
}

// Estimate returns the duration estimate
// @Summary Estimate program duration
// @Tags Program
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.Summary} "Duration estimate"
// @Router /program/estimate [get]
func (h *ProgramHandler) Estimate(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Duration estimate", h.programService.Estimate())
}

// ListPrograms lists stored programs
// @Summary List stored programs
// @Tags Programs
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]repository.ProgramInfo} "Stored programs"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /programs [get]
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programService.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list programs", zap.Error(err))
		utils.DomainErrorResponse(c, "Failed to list programs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Stored programs", programs)
}

// SaveProgram stores the current program
// @Summary Save current program
// @Description Store the current program. An existing name gets a name(i) suffix.
// @Tags Programs
// @Accept json
// @Produce json
// @Param request body SaveProgramRequest true "Program name"
// @Success 201 {object} utils.APIResponse{data=object{name=string}} "Program saved"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 422 {object} utils.APIResponse "Program cannot be saved"
// @Router /programs [post]
func (h *ProgramHandler) SaveProgram(c *gin.Context) {
	var req SaveProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	name, err := h.programService.Save(c.Request.Context(), req.Name)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to save program", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Program saved", gin.H{"name": name})
}

// ExportProgram returns the stored document
// @Summary Export program
// @Tags Programs
// @Produce json
// @Param name path string true "Program name"
// @Success 200 {object} object "Stored program document"
// @Failure 404 {object} utils.APIResponse "Program not found"
// @Router /programs/{name} [get]
func (h *ProgramHandler) ExportProgram(c *gin.Context) {
	data, err := h.programService.Export(c.Request.Context(), c.Param("name"))
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to export program", err)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// ImportProgram validates and stores a raw document
// @Summary Import program
// @Description Store a program document under name, replacing any existing one
// @Tags Programs
// @Accept json
// @Produce json
// @Param name path string true "Program name"
// @Param document body object true "Program document"
// @Success 200 {object} utils.APIResponse{data=service.ImportResult} "Program imported"
// @Failure 400 {object} utils.APIResponse "Malformed document"
// @Failure 422 {object} utils.APIResponse "Invalid document"
// @Router /programs/{name} [put]
func (h *ProgramHandler) ImportProgram(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	result, err := h.programService.Import(c.Request.Context(), c.Param("name"), data)
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to import program", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Program imported", result)
}

// LoadProgram makes a stored program the current one
// @Summary Load program
// @Description Replace the current program with a stored one. Commands with invalid arguments are skipped and reported.
// @Tags Programs
// @Produce json
// @Param name path string true "Program name"
// @Success 200 {object} utils.APIResponse{data=service.LoadResult} "Program loaded"
// @Failure 404 {object} utils.APIResponse "Program not found"
// @Failure 422 {object} utils.APIResponse "Invalid document"
// @Router /programs/{name}/load [post]
func (h *ProgramHandler) LoadProgram(c *gin.Context) {
	result, err := h.programService.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		utils.DomainErrorResponse(c, "Failed to load program", err)
		return
	}

	message := "Program loaded"
	if result.SkippedCount > 0 {
		message = "Program loaded with skipped commands"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}

// DeleteProgram removes a stored program
// @Summary Delete program
// @Tags Programs
// @Produce json
// @Param name path string true "Program name"
// @Success 200 {object} utils.APIResponse "Program deleted"
// @Failure 404 {object} utils.APIResponse "Program not found"
// @Router /programs/{name} [delete]
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	name := c.Param("name")
	if err := h.programService.Delete(c.Request.Context(), name); err != nil {
		utils.DomainErrorResponse(c, "Failed to delete program", err)
		return
	}

	h.logger.Info("Program deleted", zap.String("name", name))
	utils.SuccessResponse(c, http.StatusOK, "Program deleted", nil)
}
