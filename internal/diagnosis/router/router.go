// Package router wires the diagnosis service routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/internal/diagnosis/handler"
)

// Register registers the diagnosis service routes on the engine.
func Register(engine *gin.Engine, h *handler.DiagnosisHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/status", h.Status)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/diagnose", h.Diagnose)
		v1.POST("/ingest", h.Ingest)
		v1.GET("/stats", h.Stats)
	}

	logger.Info("HTTP routes registered")
}
