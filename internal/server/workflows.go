package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldline/engine/internal/archive"
	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/log"
)

// RevisionsResponse lists the archived revisions of a workflow, oldest
// first
type RevisionsResponse struct {
	Revisions []*archive.Record `json:"revisions"`
	Count     int               `json:"count"`
}

var (
	ErrInvalidJSON    = errors.New("invalid JSON request")
	ErrListWorkflows  = errors.New("failed to list workflows")
	ErrGetWorkflow    = errors.New("failed to get workflow")
	ErrStoreWorkflow  = errors.New("failed to store workflow")
	ErrDeleteWorkflow = errors.New("failed to delete workflow")
	ErrListRevisions  = errors.New("failed to list revisions")
	ErrWorkflowExists = errors.New("workflow already exists")
)

func (s *Server) listWorkflows(c *gin.Context) {
	flows, err := s.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrListWorkflows, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	digests := make([]*api.WorkflowDigest, len(flows))
	for i, wf := range flows {
		digests[i] = wf.Digest()
	}
	c.JSON(http.StatusOK, api.WorkflowsListResponse{
		Workflows: digests,
		Count:     len(digests),
	})
}

func (s *Server) registerWorkflow(c *gin.Context) {
	var wf api.Workflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if wf.ID == "" {
		wf.ID = api.WorkflowID(uuid.New().String())
	} else {
		wf.ID = api.SanitizeID(wf.ID)
	}
	if err := api.ValidateID(wf.ID); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Valid workflow ID is required",
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := wf.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.store.Get(ctx, wf.ID); err == nil {
		c.JSON(http.StatusConflict, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %s", ErrWorkflowExists, wf.ID),
			Status: http.StatusConflict,
		})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrGetWorkflow, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	if err := s.store.Put(ctx, &wf); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrStoreWorkflow, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, api.WorkflowRegisteredResponse{
		Workflow: &wf,
		Message:  "Workflow registered",
	})
}

func (s *Server) getWorkflow(c *gin.Context) {
	if wf, ok := s.loadWorkflow(c); ok {
		c.JSON(http.StatusOK, wf)
	}
}

func (s *Server) updateWorkflow(c *gin.Context) {
	workflowID := api.WorkflowID(c.Param("workflowID"))

	var wf api.Workflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	if wf.ID == "" {
		wf.ID = workflowID
	}
	if wf.ID != workflowID {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Workflow ID in URL does not match workflow ID in body",
			Status: http.StatusBadRequest,
		})
		return
	}

	if err := wf.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	previous, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	s.archive(ctx, previous, archive.ReasonReplaced)

	if err := s.store.Put(ctx, &wf); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrStoreWorkflow, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, api.WorkflowRegisteredResponse{
		Workflow: &wf,
		Message:  "Workflow updated",
	})
}

func (s *Server) deleteWorkflow(c *gin.Context) {
	wf, ok := s.loadWorkflow(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	s.archive(ctx, wf, archive.ReasonDeleted)

	if err := s.store.Delete(ctx, wf.ID); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrDeleteWorkflow, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Workflow deleted",
	})
}

func (s *Server) listRevisions(c *gin.Context) {
	workflowID := api.WorkflowID(c.Param("workflowID"))

	records, err := s.archiver.Revisions(c.Request.Context(), workflowID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrListRevisions, err),
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, RevisionsResponse{
		Revisions: records,
		Count:     len(records),
	})
}

// loadWorkflow resolves the workflowID path parameter against the store,
// writing the error response on failure
func (s *Server) loadWorkflow(c *gin.Context) (*api.Workflow, bool) {
	workflowID := api.WorkflowID(c.Param("workflowID"))

	wf, err := s.store.Get(c.Request.Context(), workflowID)
	if err == nil {
		return wf, true
	}

	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %s", store.ErrNotFound, workflowID),
			Status: http.StatusNotFound,
		})
		return nil, false
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{
		Error:  fmt.Sprintf("%s: %v", ErrGetWorkflow, err),
		Status: http.StatusInternalServerError,
	})
	return nil, false
}

// archive records a revision before a destructive change. Archive failures
// are logged rather than blocking the change itself
func (s *Server) archive(
	ctx context.Context, wf *api.Workflow, reason archive.Reason,
) {
	if err := s.archiver.Archive(ctx, wf, reason); err != nil {
		s.logger.Error("Failed to archive workflow revision",
			log.WorkflowID(wf.ID), log.Error(err))
	}
}
