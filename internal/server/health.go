package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldline/engine"
	"github.com/fieldline/engine/pkg/api"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: engine.Name,
		Version: engine.Version,
		Status:  "healthy",
	})
}
