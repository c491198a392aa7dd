// Package archive preserves workflow revisions in object storage before a
// definition is replaced or deleted, so a bad publish can be recovered
package archive

import (
	"context"
	"time"

	"github.com/fieldline/engine/pkg/api"
)

type (
	// Reason states why a revision was archived
	Reason string

	// Archiver preserves workflow revisions
	Archiver interface {
		// Archive writes one revision record. A nil workflow is a no-op
		Archive(ctx context.Context, wf *api.Workflow, reason Reason) error

		// Revisions returns the archived records for a workflow, oldest
		// first
		Revisions(
			ctx context.Context, id api.WorkflowID,
		) ([]*Record, error)

		// Close releases the underlying storage
		Close() error
	}

	// Record is the envelope written for each archived revision
	Record struct {
		ArchivedAt time.Time     `json:"archivedAt"`
		Reason     Reason        `json:"reason"`
		Workflow   *api.Workflow `json:"workflow"`
	}
)

const (
	ReasonReplaced Reason = "replaced"
	ReasonDeleted  Reason = "deleted"
)

// Noop discards archive requests. Used when no bucket is configured
type Noop struct{}

var _ Archiver = Noop{}

func (Noop) Archive(context.Context, *api.Workflow, Reason) error {
	return nil
}

func (Noop) Revisions(context.Context, api.WorkflowID) ([]*Record, error) {
	return nil, nil
}

func (Noop) Close() error {
	return nil
}
