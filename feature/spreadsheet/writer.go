package spreadsheet

import (
	"context"
	"encoding/json"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Writer dumps the desired snapshot to an Excel workbook in the same layout
// the reader consumes.
type Writer struct {
	log *zap.Logger
}

// NewWriter creates a spreadsheet writer.
func NewWriter(log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{log: log}
}

func (w *Writer) Name() string { return "spreadsheet" }

func (w *Writer) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: sync.OptionApplyChanges, Description: "write the workbook (otherwise only report)"},
		{Name: OptionFilename, Description: "path of the Excel workbook to write", Required: true},
	}
}

// FetchCurrent returns an empty snapshot; a workbook has no live state.
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
		w.log.Info("Dry run, not writing workbook", zap.String("filename", filename))
		return report, nil
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeUsers(f, desired); err != nil {
		return nil, err
	}
	if err := w.writeGroups(f, desired); err != nil {
		return nil, err
	}

	// Drop the default sheet so only Users and Groups remain.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := f.SaveAs(filename); err != nil {
		return nil, serrors.NewTargetUnavailable(filename, err)
	}

	for range desired.Groups() {
		report.Succeed(sync.OpCreateGroup)
	}
	for range desired.Users() {
		report.Succeed(sync.OpCreateUser)
	}

	w.log.Info("Wrote principals to workbook",
		zap.String("filename", filename),
		zap.Int("users", desired.UserCount()),
		zap.Int("groups", desired.GroupCount()),
	)
	return report, nil
}

func (w *Writer) writeUsers(f *excelize.File, snap *model.Snapshot) error {
	if _, err := f.NewSheet(SheetUsers); err != nil {
		return err
	}
	if err := setRow(f, SheetUsers, 1, toAny(userColumns)); err != nil {
		return err
	}

	for i, u := range snap.Users() {
		row := []any{
			u.Name,
			u.Password,
			u.DisplayName,
			u.Email,
			listCell(u.GroupNames),
			string(u.Visibility),
		}
		if err := setRow(f, SheetUsers, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeGroups(f *excelize.File, snap *model.Snapshot) error {
	if _, err := f.NewSheet(SheetGroups); err != nil {
		return err
	}
	if err := setRow(f, SheetGroups, 1, toAny(groupColumns)); err != nil {
		return err
	}

	for i, g := range snap.Groups() {
		row := []any{
			g.Name,
			g.DisplayName,
			g.Description,
			listCell(g.GroupNames),
			string(g.Visibility),
			listCell(g.Privileges),
		}
		if err := setRow(f, SheetGroups, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// listCell encodes a string list as a JSON array cell.
func listCell(values []string) string {
	if values == nil {
		values = []string{}
	}
	encoded, _ := json.Marshal(values)
	return string(encoded)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
