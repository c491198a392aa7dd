package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldline/engine/internal/metrics"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/condition"
	"github.com/fieldline/engine/pkg/run"
)

func (s *Server) evaluateWorkflow(c *gin.Context) {
	wf, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	var req api.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	view := s.derive(wf, req.Data, metrics.OpEvaluate)
	c.JSON(http.StatusOK, view)
}

func (s *Server) nextSection(c *gin.Context) {
	wf, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	var req api.NextSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	var current api.SectionID
	if req.Current != nil {
		current = *req.Current
	}

	view := s.derive(wf, req.Data, metrics.OpNext)
	next, found := view.NextAfter(current)
	s.recordNavDecision(view, found)
	c.JSON(http.StatusOK, api.NextSectionResponse{
		NextSectionID: next,
		Complete:      !found,
	})
}

func (s *Server) recordNavDecision(view *run.View, found bool) {
	if s.metrics == nil {
		return
	}
	switch {
	case !found:
		s.metrics.RecordNavDecision(metrics.NavComplete)
	case view.SkipTo != "":
		s.metrics.RecordNavDecision(metrics.NavSkip)
	default:
		s.metrics.RecordNavDecision(metrics.NavAdvance)
	}
}

func (s *Server) validateRun(c *gin.Context) {
	wf, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	var req api.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	view := s.derive(wf, req.Data, metrics.OpValidate)
	c.JSON(http.StatusOK, view.Validate(req.Data))
}

func (s *Server) describeCondition(c *gin.Context) {
	var req api.DescribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	c.JSON(http.StatusOK, api.DescribeResponse{
		Description: condition.Describe(req.Condition, req.Labels),
	})
}
