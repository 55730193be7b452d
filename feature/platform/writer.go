package platform

import (
	"context"
	"time"

	"principal-sync/core/model"
	"principal-sync/core/platform"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// OptionUpdatePasswords also pushes password updates for users that carry a
// password in the desired state.
const OptionUpdatePasswords = "updatePasswords"

// Writer converges a live platform to the desired snapshot.
type Writer struct {
	client platform.Client
	retry  sync.RetryPolicy
	log    *zap.Logger
}

// NewWriter creates a platform writer over an authenticated client.
func NewWriter(client platform.Client, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{
		client: client,
		retry:  sync.RetryPolicy{Attempts: 3, Backoff: 2 * time.Second},
		log:    log,
	}
}

func (w *Writer) Name() string { return "platform" }

func (w *Writer) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: sync.OptionApplyChanges, Description: "apply the plan (otherwise report it)"},
		{Name: sync.OptionRemoveDeleted, Description: "delete principals absent from the desired state"},
		{Name: sync.OptionBatchSize, Description: "user chunk size for apply requests"},
		{Name: sync.OptionMergeGroups, Description: "union desired and current memberships"},
		{Name: sync.OptionCreateGroups, Description: "synthesize groups referenced but defined nowhere"},
		{Name: OptionUpdatePasswords, Description: "push password updates for users that carry one"},
	}
}

// FetchCurrent downloads the live principal population.
func (w *Writer) FetchCurrent(ctx context.Context) (*model.Snapshot, error) {
	return w.client.FetchUsersAndGroups(ctx)
}

// Write computes the plan and applies it in batches. A diff failure is
// systemic and aborts the run; apply failures are per-chunk and end up in
// the report.
func (w *Writer) Write(ctx context.Context, desired, current *model.Snapshot, opts sync.Options) (*sync.Report, error) {
	plan, err := sync.Diff(desired, current, opts)
	if err != nil {
		return nil, err
	}

	w.log.Info("Computed change plan",
		zap.Int("changes", len(plan.Changes)),
		zap.Bool("apply_changes", opts.ApplyChanges),
	)

	a := &applier{
		client:          w.client,
		desired:         desired,
		current:         current,
		updatePasswords: opts.OptionBool(OptionUpdatePasswords),
		log:             w.log,
	}
	return sync.ApplyPlan(ctx, plan, a, opts, w.retry, w.log), nil
}
