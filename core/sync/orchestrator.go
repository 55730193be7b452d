package sync

import (
	"context"
	stderrors "errors"
	"fmt"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"

	"go.uber.org/zap"
)

// Reader produces a complete desired-state snapshot from an external source.
//
// Read must be total: either a fully validated snapshot is returned or an
// error is raised, never a snapshot with dangling references. Given an
// unchanged source it is idempotent.
type Reader interface {
	// Name identifies the reader in logs and option-validation errors.
	Name() string
	// DescribeOptions declares the configuration keys the reader requires or
	// accepts.
	DescribeOptions() []OptionSpec
	// Read produces the desired snapshot.
	Read(ctx context.Context, opts Options) (*model.Snapshot, error)
}

// Writer applies a desired snapshot to a target system.
type Writer interface {
	// Name identifies the writer in logs, reports, and option errors.
	Name() string
	// DescribeOptions declares the configuration keys the writer requires or
	// accepts, including the universally recognized ones.
	DescribeOptions() []OptionSpec
	// FetchCurrent obtains the live state the desired state is diffed
	// against. Failure here is fatal to this writer's run.
	FetchCurrent(ctx context.Context) (*model.Snapshot, error)
	// Write runs the full reconciliation pipeline (diff, then batched apply
	// unless the run is a dry run) and reports per-entity outcomes. It only
	// returns an error on systemic failure.
	Write(ctx context.Context, desired, current *model.Snapshot, opts Options) (*Report, error)
}

// Orchestrator wires one reader to one or more writers and runs the sync
// pipeline once. Writers are independent: they run sequentially, share no
// mutable state beyond the immutable desired snapshot, and a failure in one
// does not prevent the others from running.
type Orchestrator struct {
	reader  Reader
	writers []Writer
	log     *zap.Logger
}

// NewOrchestrator creates an orchestrator. At least one writer is required.
func NewOrchestrator(reader Reader, writers []Writer, log *zap.Logger) (*Orchestrator, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if len(writers) == 0 {
		return nil, fmt.Errorf("at least one writer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{reader: reader, writers: writers, log: log}, nil
}

// Run validates configuration, reads the desired state once, and hands it to
// every writer. It returns one report per writer that produced one; writer
// errors are joined and returned alongside whatever reports succeeded.
func (o *Orchestrator) Run(ctx context.Context, opts Options) ([]*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := o.validateOptions(opts); err != nil {
		return nil, err
	}

	o.log.Info("reading desired state", zap.String("reader", o.reader.Name()))
	desired, err := o.reader.Read(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("reader %s: %w", o.reader.Name(), err)
	}
	o.log.Info("desired state read",
		zap.Int("users", desired.UserCount()),
		zap.Int("groups", desired.GroupCount()))

	var reports []*Report
	var errs []error
	for _, w := range o.writers {
		current, err := w.FetchCurrent(ctx)
		if err != nil {
			o.log.Error("fetch-current failed", zap.String("writer", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("writer %s: %w", w.Name(), err))
			continue
		}

		report, err := w.Write(ctx, desired, current, opts)
		if err != nil {
			o.log.Error("write failed", zap.String("writer", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("writer %s: %w", w.Name(), err))
			continue
		}
		if report != nil {
			report.Target = w.Name()
			reports = append(reports, report)
		}
	}

	return reports, stderrors.Join(errs...)
}

// validateOptions checks that every option a participant declares as required
// is satisfiable from the provided configuration, before any I/O happens.
func (o *Orchestrator) validateOptions(opts Options) error {
	check := func(component string, specs []OptionSpec) error {
		for _, spec := range specs {
			if spec.Required && !opts.has(spec.Name) {
				return serrors.NewMissingOption(spec.Name, component)
			}
		}
		return nil
	}
	if err := check(o.reader.Name(), o.reader.DescribeOptions()); err != nil {
		return err
	}
	for _, w := range o.writers {
		if err := check(w.Name(), w.DescribeOptions()); err != nil {
			return err
		}
	}
	return nil
}
