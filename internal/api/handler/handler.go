// Package handler exposes the bot's small ops HTTP surface: a health check
// and the live statistics aggregation.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"osureporter/bot/internal/storage"
)

type Handler struct {
	Store *storage.Service
}

func NewHandler(store *storage.Service) *Handler {
	return &Handler{Store: store}
}

// Router builds the gin engine with the ops routes attached.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", h.Health)
	r.GET("/stats", h.Stats)
	return r
}

func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.Store.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}

	if h.Store.Redis != nil {
		if err := h.Store.Redis.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats returns the aggregation over the trailing N days (default 30).
func (h *Handler) Stats(c *gin.Context) {
	days := 30
	if d, err := strconv.Atoi(c.Query("days")); err == nil && d > 0 {
		days = d
	}

	stats, err := h.Store.Stats(time.Now().AddDate(0, 0, -days))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
