package csvfile

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// Writer dumps the desired snapshot's users to a delimited file.
type Writer struct {
	log *zap.Logger
}

// NewWriter creates a CSV writer.
func NewWriter(log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{log: log}
}

func (w *Writer) Name() string { return "csvfile" }

func (w *Writer) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: sync.OptionApplyChanges, Description: "write the file (otherwise only report)"},
		{Name: OptionFilename, Description: "path of the CSV file to write", Required: true},
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
	for range desired.Users() {
		report.Attempt(sync.OpCreateUser)
	}

	if !opts.ApplyChanges {
		w.log.Info("Dry run, not writing file", zap.String("filename", filename))
		return report, nil
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(filename, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return nil, err
	}
	for _, u := range desired.Users() {
		record := []string{
			u.Name,
			u.Password,
			u.Email,
			strings.Join(u.GroupNames, GroupSeparator),
			string(u.Visibility),
		}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
		report.Succeed(sync.OpCreateUser)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, serrors.NewTargetUnavailable(filename, err)
	}

	w.log.Info("Wrote users to CSV file",
		zap.String("filename", filename),
		zap.Int("users", desired.UserCount()),
	)
	return report, nil
}
