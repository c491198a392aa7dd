package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldline/engine/pkg/api"
)

func (s *Server) getRun(c *gin.Context) {
	runID := api.RunID(c.Param("runID"))

	sess, err := s.sessions.GetRun(runID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (s *Server) endRun(c *gin.Context) {
	runID := api.RunID(c.Param("runID"))

	if err := s.sessions.EndRun(runID); err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Run ended",
	})
}
