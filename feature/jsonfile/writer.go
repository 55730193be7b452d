package jsonfile

import (
	"context"
	"os"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// Writer dumps the desired snapshot to a principals JSON file. There is no
// current state to diff against; every principal counts as a create.
type Writer struct {
	log *zap.Logger
}

// NewWriter creates a JSON file writer.
func NewWriter(log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{log: log}
}

func (w *Writer) Name() string { return "jsonfile" }

func (w *Writer) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: sync.OptionApplyChanges, Description: "write the file (otherwise only report)"},
		{Name: OptionFilename, Description: "path of the principals JSON file to write", Required: true},
	}
}

// FetchCurrent returns an empty snapshot; a file target has no live state.
func (w *Writer) FetchCurrent(ctx context.Context) (*model.Snapshot, error) {
	return model.NewSnapshot(), nil
}

func (w *Writer) Write(ctx context.Context, desired, current *model.Snapshot, opts sync.Options) (*sync.Report, error) {
	filename, ok := opts.Option(OptionFilename)
	if !ok || filename == "" {
		return nil, serrors.NewMissingOption(OptionFilename, w.Name())
	}

	report := sync.NewReport(!opts.ApplyChanges)
	for range desired.Groups() {
		report.Attempt(sync.OpCreateGroup)
	}
	for range desired.Users() {
		report.Attempt(sync.OpCreateUser)
	}

	if !opts.ApplyChanges {
		w.log.Info("Dry run, not writing file", zap.String("filename", filename))
		return report, nil
	}

	data, err := model.MarshalPrincipals(desired)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return nil, serrors.NewTargetUnavailable(filename, err)
	}

	for range desired.Groups() {
		report.Succeed(sync.OpCreateGroup)
	}
	for range desired.Users() {
		report.Succeed(sync.OpCreateUser)
	}

	w.log.Info("Wrote principals to JSON file",
		zap.String("filename", filename),
		zap.Int("users", desired.UserCount()),
		zap.Int("groups", desired.GroupCount()),
	)
	return report, nil
}
