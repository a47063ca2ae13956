package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greensidehq/greenside/internal/loader"
	"github.com/greensidehq/greenside/internal/record"
)

// RecordService is the loader surface the record handlers need.
type RecordService interface {
	Snapshot() (record.Collection, error)
	Append(ctx context.Context, rec record.Record) (record.Collection, error)
	Refresh(ctx context.Context) (record.Collection, bool, error)
}

// RecordController serves the tournament collection and its aggregates.
type RecordController struct {
	service RecordService
}

func NewRecordController(service RecordService) *RecordController {
	return &RecordController{service: service}
}

// List handles GET requests for the current collection snapshot.
func (rc *RecordController) List(c *gin.Context) {
	collection, err := rc.service.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read records"})
		return
	}
	c.JSON(http.StatusOK, collection)
}

// Create handles POST requests submitting a new tournament record. The
// record is appended and persisted through the same write-through path as
// fetched data.
func (rc *RecordController) Create(c *gin.Context) {
	var rec record.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	collection, err := rc.service.Append(c.Request.Context(), rec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, collection)
}

// Stats handles GET requests for per-player aggregates.
func (rc *RecordController) Stats(c *gin.Context) {
	collection, err := rc.service.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read records"})
		return
	}
	c.JSON(http.StatusOK, record.Stats(collection))
}

// Refresh handles POST requests forcing a network refresh. A degraded result
// (cached data served because the network is gone) is marked in both the
// body and the X-Served-From header, never presented as fresh.
func (rc *RecordController) Refresh(c *gin.Context) {
	collection, degraded, err := rc.service.Refresh(c.Request.Context())
	if err != nil {
		if errors.Is(err, loader.ErrNoData) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data available", "retry": true})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	servedFrom := "network"
	if degraded {
		servedFrom = "cache"
	}
	c.Header("X-Served-From", servedFrom)
	c.JSON(http.StatusOK, gin.H{"records": collection, "degraded": degraded})
}
