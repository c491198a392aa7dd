package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/fieldline/engine/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Blob archives revisions through gocloud.dev/blob, supporting S3, GCS,
// Azure Blob Storage, and S3-compatible stores. Each revision is written
// to <prefix><workflow-id>/<timestamp>.json, so keys list oldest first
type Blob struct {
	bucket *blob.Bucket
	prefix string
}

var _ Archiver = (*Blob)(nil)

const keyTimeFormat = "20060102T150405.000000000Z"

// NewBlob opens the bucket at bucketURL for revision archiving
func NewBlob(ctx context.Context, bucketURL, prefix string) (*Blob, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Blob{bucket: bucket, prefix: prefix}, nil
}

func (b *Blob) Archive(
	ctx context.Context, wf *api.Workflow, reason Reason,
) error {
	if wf == nil {
		return nil
	}
	archivedAt := time.Now().UTC()
	record := &Record{
		ArchivedAt: archivedAt,
		Reason:     reason,
		Workflow:   wf,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return b.bucket.WriteAll(ctx, b.keyFor(wf.ID, archivedAt), data, nil)
}

func (b *Blob) Revisions(
	ctx context.Context, id api.WorkflowID,
) ([]*Record, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix: b.keyPrefix(id),
	})

	var records []*Record
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		data, err := b.bucket.ReadAll(ctx, obj.Key)
		if err != nil {
			// Bucket lifecycle rules may remove keys mid-listing
			if gcerrors.Code(err) == gcerrors.NotFound {
				continue
			}
			return nil, err
		}

		record := &Record{}
		if err := json.Unmarshal(data, record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (b *Blob) Close() error {
	return b.bucket.Close()
}

func (b *Blob) keyPrefix(id api.WorkflowID) string {
	return b.prefix + string(id) + "/"
}

func (b *Blob) keyFor(id api.WorkflowID, at time.Time) string {
	return b.keyPrefix(id) + at.Format(keyTimeFormat) + ".json"
}
