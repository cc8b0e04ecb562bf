package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"quiz-session-backend/internal/model"
	"quiz-session-backend/internal/repository"
	"quiz-session-backend/internal/service"
	"quiz-session-backend/utilities"
)

type CollectorController struct {
	CollectorService service.CollectorService
}

func NewCollectorController(collectorService service.CollectorService) *CollectorController {
	return &CollectorController{CollectorService: collectorService}
}

// Record handles POST /telemetry/results
func (cc *CollectorController) Record(c *gin.Context) {
	var snapshot model.ResultSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	result, err := cc.CollectorService.Record(snapshot)
	switch {
	case errors.Is(err, service.ErrInvalidSnapshot):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateResult):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		utilities.Error("record result %s: %v", snapshot.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record result"})
	default:
		c.JSON(http.StatusCreated, gin.H{"id": result.ID, "percent": result.Percent})
	}
}

// Recent handles GET /telemetry/results?limit=N
func (cc *CollectorController) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	results, err := cc.CollectorService.Recent(limit)
	if err != nil {
		utilities.Error("list results: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// MostMissed handles GET /telemetry/missed?limit=N
func (cc *CollectorController) MostMissed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	stats, err := cc.CollectorService.MostMissed(limit)
	if err != nil {
		utilities.Error("miss stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get handles GET /telemetry/results/:session_id
func (cc *CollectorController) Get(c *gin.Context) {
	result, err := cc.CollectorService.Get(c.Param("session_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not found"})
		return
	}
	if err != nil {
		utilities.Error("get result: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch result"})
		return
	}
	c.JSON(http.StatusOK, result)
}
