package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/freight-sync/internal/http/middleware"
	"github.com/nurpe/freight-sync/internal/model"
	"github.com/nurpe/freight-sync/internal/repository"
	"github.com/nurpe/freight-sync/internal/service"
)

// CycleRunner triggers one full sync cycle (fetch, pricing, notifications).
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

type Handler struct {
	admin  *service.AdminService
	runner CycleRunner
	log    zerolog.Logger
}

func NewHandler(admin *service.AdminService, runner CycleRunner, log zerolog.Logger) *Handler {
	return &Handler{admin: admin, runner: runner, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/handler", h.handlerStatus)
	protected.POST("/handler", h.setupHandler)
	protected.POST("/handler/sync", h.triggerSync)

	protected.GET("/pricings", h.listPricings)
	protected.POST("/pricings", h.createPricing)
	protected.GET("/pricings/:id", h.getPricing)
	protected.PUT("/pricings/:id", h.updatePricing)
	protected.DELETE("/pricings/:id", h.deletePricing)

	protected.GET("/locations", h.listLocations)
	protected.POST("/locations", h.addLocation)
	protected.DELETE("/locations/:id", h.deleteLocation)

	protected.GET("/contracts", h.listContracts)
	protected.POST("/contracts/export", h.exportContracts)
	protected.POST("/contracts/export/pdf", h.exportContractsPDF)
}

func (h *Handler) handlerStatus(c *gin.Context) {
	status, err := h.admin.HandlerStatus(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) setupHandler(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var input service.SetupHandlerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handler, err := h.admin.SetupHandler(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler)
}

func (h *Handler) triggerSync(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	if err := h.runner.RunCycle(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *Handler) listPricings(c *gin.Context) {
	pricings, err := h.admin.ListPricings(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricings)
}

func (h *Handler) getPricing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	pricing, err := h.admin.GetPricing(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricing)
}

func (h *Handler) createPricing(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var pricing model.Pricing
	if err := c.ShouldBindJSON(&pricing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.admin.CreatePricing(c.Request.Context(), &pricing); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pricing)
}

func (h *Handler) updatePricing(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var pricing model.Pricing
	if err := c.ShouldBindJSON(&pricing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pricing.ID = id

	if err := h.admin.UpdatePricing(c.Request.Context(), &pricing); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricing)
}

func (h *Handler) deletePricing(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.admin.DeletePricing(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listLocations(c *gin.Context) {
	locations, err := h.admin.ListLocations(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

type addLocationRequest struct {
	ID int64 `json:"id" binding:"required"`
}

func (h *Handler) addLocation(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req addLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	location, err := h.admin.AddLocation(c.Request.Context(), req.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *Handler) deleteLocation(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.admin.DeleteLocation(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listContracts(c *gin.Context) {
	filter := repository.ContractFilter{
		Status: model.ContractStatus(c.Query("status")),
		Active: c.Query("active") == "true",
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	contracts, err := h.admin.ListContracts(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) exportContracts(c *gin.Context) {
	result, err := h.admin.ExportContracts(c.Request.Context(), false)
	if err != nil {
		h.handleError(c, err)
		return
	}
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) exportContractsPDF(c *gin.Context) {
	result, err := h.admin.ExportContracts(c.Request.Context(), true)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) requireAdmin(c *gin.Context) bool {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return false
	}
	if !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return false
	}
	return true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoHandler):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSyncLeaseHeld):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
