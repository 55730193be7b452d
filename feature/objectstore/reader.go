package objectstore

import (
	"context"
	"io"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/storage"
	"principal-sync/core/sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// OptionObject names the object holding the principals JSON snapshot.
const OptionObject = "object"

// Reader loads a snapshot from an object in the configured bucket.
type Reader struct {
	client storage.Client
	bucket string
	log    *zap.Logger
}

// NewReader creates an object store reader.
func NewReader(client storage.Client, bucket string, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{client: client, bucket: bucket, log: log}
}

func (r *Reader) Name() string { return "objectstore" }

func (r *Reader) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: OptionObject, Description: "object name of the principals JSON snapshot", Required: true},
	}
}

func (r *Reader) Read(ctx context.Context, opts sync.Options) (*model.Snapshot, error) {
	object, ok := opts.Option(OptionObject)
	if !ok || object == "" {
		return nil, serrors.NewMissingOption(OptionObject, r.Name())
	}

	obj, err := r.client.GetObject(ctx, r.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, serrors.NewSourceUnavailable(object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, serrors.NewSourceUnavailable(object, err)
	}

	snap, err := model.ParsePrincipals(data, model.DuplicateError)
	if err != nil {
		return nil, serrors.NewSourceFormat(object, "principals array", err)
	}

	r.log.Info("Read principals from object store",
		zap.String("bucket", r.bucket),
		zap.String("object", object),
		zap.Int("users", snap.UserCount()),
		zap.Int("groups", snap.GroupCount()),
	)
	return snap, nil
}
