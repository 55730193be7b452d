package objectstore

import (
	"bytes"
	"context"
	"io"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/storage"
	"principal-sync/core/sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Writer stores the desired snapshot as an object in the configured bucket.
type Writer struct {
	client storage.Client
	bucket string
	object string
	log    *zap.Logger
}

// NewWriter creates an object store writer targeting one object.
func NewWriter(client storage.Client, bucket, object string, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{client: client, bucket: bucket, object: object, log: log}
}

func (w *Writer) Name() string { return "objectstore" }

func (w *Writer) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: sync.OptionApplyChanges, Description: "store the object (otherwise only report)"},
	}
}

// FetchCurrent loads the previously stored snapshot, if any. A missing
// bucket or object means empty current state, not an error.
func (w *Writer) FetchCurrent(ctx context.Context) (*model.Snapshot, error) {
	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(w.bucket, err)
	}
	if !exists {
		return model.NewSnapshot(), nil
	}

	obj, err := w.client.GetObject(ctx, w.bucket, w.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, serrors.NewTargetUnavailable(w.object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// The minio client surfaces a missing key on first read.
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return model.NewSnapshot(), nil
		}
		return nil, serrors.NewTargetUnavailable(w.object, err)
	}

	snap, err := model.ParsePrincipals(data, model.DuplicateError)
	if err != nil {
		return nil, serrors.NewSourceFormat(w.object, "stored snapshot", err)
	}
	return snap, nil
}

func (w *Writer) Write(ctx context.Context, desired, current *model.Snapshot, opts sync.Options) (*sync.Report, error) {
	report := sync.NewReport(!opts.ApplyChanges)
	for range desired.Groups() {
		report.Attempt(sync.OpCreateGroup)
	}
	for range desired.Users() {
		report.Attempt(sync.OpCreateUser)
	}

	if !opts.ApplyChanges {
		w.log.Info("Dry run, not storing object",
			zap.String("bucket", w.bucket), zap.String("object", w.object))
		return report, nil
	}

	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(w.bucket, err)
	}
	if !exists {
		if err := w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, serrors.NewTargetUnavailable(w.bucket, err)
		}
		w.log.Info("Created bucket", zap.String("bucket", w.bucket))
	}

	data, err := model.MarshalPrincipals(desired)
	if err != nil {
		return nil, err
	}

	_, err = w.client.PutObject(ctx, w.bucket, w.object,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return nil, serrors.NewTargetUnavailable(w.object, err)
	}

	for range desired.Groups() {
		report.Succeed(sync.OpCreateGroup)
	}
	for range desired.Users() {
		report.Succeed(sync.OpCreateUser)
	}

	w.log.Info("Stored principals snapshot",
		zap.String("bucket", w.bucket),
		zap.String("object", w.object),
		zap.Int("bytes", len(data)),
	)
	return report, nil
}
