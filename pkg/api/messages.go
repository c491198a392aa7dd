package api

import (
	"errors"
	"fmt"
)

type (
	// EvaluateRequest carries a run's answers for evaluation
	EvaluateRequest struct {
		Data DataMap `json:"data"`
	}

	// NextSectionRequest asks which section follows Current given the
	// answers in Data. A nil Current asks for the first visible section
	NextSectionRequest struct {
		Current *SectionID `json:"current,omitempty"`
		Data    DataMap    `json:"data"`
	}

	// NextSectionResponse names the next visible section. Complete is true
	// when no further section exists
	NextSectionResponse struct {
		NextSectionID SectionID `json:"nextSectionId,omitempty"`
		Complete      bool      `json:"complete"`
	}

	// DescribeRequest asks for a human-readable rendering of a condition
	DescribeRequest struct {
		Condition *ConditionExpression `json:"condition"`
		Labels    map[Key]string       `json:"labels,omitempty"`
	}

	// DescribeResponse contains the rendered condition text
	DescribeResponse struct {
		Description string `json:"description"`
	}

	// WorkflowDigest provides summary information about a workflow
	WorkflowDigest struct {
		ID       WorkflowID `json:"id"`
		Name     string     `json:"name"`
		Version  string     `json:"version,omitempty"`
		Sections int        `json:"sections"`
		Rules    int        `json:"rules"`
	}

	// WorkflowsListResponse contains a list of workflow summaries
	WorkflowsListResponse struct {
		Workflows []*WorkflowDigest `json:"workflows"`
		Count     int               `json:"count"`
	}

	// WorkflowRegisteredResponse is returned when a registration succeeds
	WorkflowRegisteredResponse struct {
		Workflow *Workflow `json:"workflow"`
		Message  string    `json:"message"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version,omitempty"`
		Status  string `json:"status"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

// Request bounds protect the service from oversized payloads
const (
	MaxWorkflowIDLen = 128
	MaxDataKeys      = 1024
)

var (
	ErrWorkflowIDTooLong = errors.New("workflow ID too long")
	ErrWorkflowIDInvalid = errors.New("workflow ID contains invalid characters")
	ErrTooManyDataKeys   = errors.New("too many data keys")
)

// Digest returns summary information for the workflow
func (w *Workflow) Digest() *WorkflowDigest {
	return &WorkflowDigest{
		ID:       w.ID,
		Name:     w.Name,
		Version:  w.Version,
		Sections: len(w.Sections),
		Rules:    len(w.Rules),
	}
}

// ValidateID checks a client-supplied workflow ID against request bounds
func ValidateID(id WorkflowID) error {
	if id == "" {
		return ErrWorkflowIDEmpty
	}
	if len(id) > MaxWorkflowIDLen {
		return fmt.Errorf("%w: %d chars", ErrWorkflowIDTooLong, len(id))
	}
	if SanitizeID(id) != id {
		return fmt.Errorf("%w: %s", ErrWorkflowIDInvalid, id)
	}
	return nil
}

func (r *EvaluateRequest) Validate() error {
	if len(r.Data) > MaxDataKeys {
		return fmt.Errorf("%w: %d", ErrTooManyDataKeys, len(r.Data))
	}
	return nil
}

func (r *NextSectionRequest) Validate() error {
	if len(r.Data) > MaxDataKeys {
		return fmt.Errorf("%w: %d", ErrTooManyDataKeys, len(r.Data))
	}
	return nil
}
