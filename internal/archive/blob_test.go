package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/engine/internal/archive"
	"github.com/fieldline/engine/internal/assert/helpers"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

func TestBlobArchive(t *testing.T) {
	ctx := context.Background()

	a, err := archive.NewBlob(ctx, "mem://", "revisions/")
	require.NoError(t, err)
	defer a.Close()

	wf := helpers.NewSimpleWorkflow("wf-123")

	t.Run("no revisions for unarchived workflow", func(t *testing.T) {
		records, err := a.Revisions(ctx, "wf-123")
		assert.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("archive and list round-trip", func(t *testing.T) {
		err := a.Archive(ctx, wf, archive.ReasonReplaced)
		assert.NoError(t, err)

		renamed := helpers.NewSimpleWorkflow("wf-123")
		renamed.Name = "Renamed"
		err = a.Archive(ctx, renamed, archive.ReasonDeleted)
		assert.NoError(t, err)

		records, err := a.Revisions(ctx, "wf-123")
		assert.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, archive.ReasonReplaced, records[0].Reason)
		assert.Equal(t, "Test Workflow", records[0].Workflow.Name)
		assert.Equal(t, archive.ReasonDeleted, records[1].Reason)
		assert.Equal(t, "Renamed", records[1].Workflow.Name)

		assert.False(t, records[0].ArchivedAt.IsZero())
		assert.False(t, records[0].ArchivedAt.After(records[1].ArchivedAt))
		assert.WithinDuration(
			t, time.Now(), records[1].ArchivedAt, time.Minute,
		)
	})

	t.Run("revisions are scoped by workflow", func(t *testing.T) {
		other := helpers.NewSimpleWorkflow("wf-456")
		err := a.Archive(ctx, other, archive.ReasonReplaced)
		assert.NoError(t, err)

		records, err := a.Revisions(ctx, "wf-456")
		assert.NoError(t, err)
		assert.Len(t, records, 1)

		records, err = a.Revisions(ctx, "wf-123")
		assert.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("nil workflow is a no-op", func(t *testing.T) {
		err := a.Archive(ctx, nil, archive.ReasonDeleted)
		assert.NoError(t, err)
	})
}

func TestBlobArchiveFileBucket(t *testing.T) {
	ctx := context.Background()

	a, err := archive.NewBlob(ctx, "file://"+t.TempDir(), "revisions/")
	require.NoError(t, err)
	defer a.Close()

	wf := helpers.NewTestWorkflow()
	require.NoError(t, a.Archive(ctx, wf, archive.ReasonReplaced))

	records, err := a.Revisions(ctx, wf.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, wf.ID, records[0].Workflow.ID)
	assert.Len(t, records[0].Workflow.Sections, 3)
}

func TestBlobArchiveBadURL(t *testing.T) {
	_, err := archive.NewBlob(
		context.Background(), "carrier-pigeon://coop", "revisions/",
	)
	assert.Error(t, err)
}

func TestNoopArchiver(t *testing.T) {
	ctx := context.Background()
	var a archive.Archiver = archive.Noop{}

	assert.NoError(t, a.Archive(
		ctx, helpers.NewSimpleWorkflow("wf-1"), archive.ReasonReplaced,
	))

	records, err := a.Revisions(ctx, "wf-1")
	assert.NoError(t, err)
	assert.Empty(t, records)

	assert.NoError(t, a.Close())
}

func TestReasonValues(t *testing.T) {
	assert.Equal(t, archive.Reason("replaced"), archive.ReasonReplaced)
	assert.Equal(t, archive.Reason("deleted"), archive.ReasonDeleted)
}
