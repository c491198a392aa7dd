package api

import "encoding/json"

type (
	// RunRequest is sent by clients over the run socket. A start message
	// opens a session against a workflow; a patch message merges answer
	// changes into the session's data
	RunRequest struct {
		Type       string     `json:"type"`
		WorkflowID WorkflowID `json:"workflowId,omitempty"`
		RunID      RunID      `json:"runId,omitempty"`
		Data       DataMap    `json:"data,omitempty"`
	}

	// RunEvent is pushed to clients whenever a session's view changes
	RunEvent struct {
		Type     string          `json:"type"`
		RunID    RunID           `json:"runId"`
		Sequence int64           `json:"sequence"`
		Data     json.RawMessage `json:"data"`
	}
)

const (
	RunMessageStart = "start"
	RunMessagePatch = "patch"
	RunMessageView  = "view"
	RunMessageError = "error"
)
