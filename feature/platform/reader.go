package platform

import (
	"context"

	"principal-sync/core/model"
	"principal-sync/core/platform"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// Reader sources the desired state from a live platform.
type Reader struct {
	client platform.Client
	log    *zap.Logger
}

// NewReader creates a platform reader over an authenticated client.
func NewReader(client platform.Client, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{client: client, log: log}
}

func (r *Reader) Name() string { return "platform" }

func (r *Reader) DescribeOptions() []sync.OptionSpec {
	// Connection details come from the platform section of the
	// configuration, not from per-run options.
	return nil
}

func (r *Reader) Read(ctx context.Context, opts sync.Options) (*model.Snapshot, error) {
	return r.client.FetchUsersAndGroups(ctx)
}
