package spreadsheet

import (
	"context"
	"encoding/json"
	"fmt"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// OptionFilename names the workbook to read from or write to.
const OptionFilename = "filename"

// Reader loads a desired-state snapshot from an Excel workbook.
type Reader struct {
	log *zap.Logger
}

// NewReader creates a spreadsheet reader.
func NewReader(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log}
}

func (r *Reader) Name() string { return "spreadsheet" }

func (r *Reader) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: OptionFilename, Description: "path of the Excel workbook to read", Required: true},
	}
}

func (r *Reader) Read(ctx context.Context, opts sync.Options) (*model.Snapshot, error) {
	filename, ok := opts.Option(OptionFilename)
	if !ok || filename == "" {
		return nil, serrors.NewMissingOption(OptionFilename, r.Name())
	}

	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, serrors.NewSourceUnavailable(filename, err)
	}
	defer f.Close()

	snap := model.NewSnapshot()
	if err := r.readUsers(f, filename, snap); err != nil {
		return nil, err
	}
	if err := r.readGroups(f, filename, snap); err != nil {
		return nil, err
	}

	r.log.Info("Read principals from workbook",
		zap.String("filename", filename),
		zap.Int("users", snap.UserCount()),
		zap.Int("groups", snap.GroupCount()),
	)
	return snap, nil
}

func (r *Reader) readUsers(f *excelize.File, filename string, snap *model.Snapshot) error {
	rows, idx, err := sheetRows(f, filename, SheetUsers, userColumns)
	if err != nil {
		return err
	}

	for n, row := range rows {
		name := cell(row, idx[colName])
		if name == "" {
			continue
		}

		u := model.NewUser(name)
		u.Password = cell(row, idx[colPassword])
		if dn := cell(row, idx[colDisplayName]); dn != "" {
			u.DisplayName = dn
		}
		u.Email = cell(row, idx[colEmail])
		if v := cell(row, idx[colVisibility]); v != "" {
			u.Visibility = model.Visibility(v)
		}

		groups, err := parseListCell(cell(row, idx[colGroups]))
		if err != nil {
			return serrors.NewSourceFormat(filename,
				fmt.Sprintf("sheet %s row %d: bad Groups cell", SheetUsers, n+2), err)
		}
		for _, g := range groups {
			u.AddGroup(g)
		}

		if err := snap.AddUser(u, model.DuplicateError); err != nil {
			return serrors.NewSourceFormat(filename,
				fmt.Sprintf("sheet %s row %d", SheetUsers, n+2), err)
		}
	}
	return nil
}

func (r *Reader) readGroups(f *excelize.File, filename string, snap *model.Snapshot) error {
	rows, idx, err := sheetRows(f, filename, SheetGroups, groupColumns)
	if err != nil {
		return err
	}

	for n, row := range rows {
		name := cell(row, idx[colName])
		if name == "" {
			continue
		}

		g := model.NewGroup(name)
		if dn := cell(row, idx[colDisplayName]); dn != "" {
			g.DisplayName = dn
		}
		g.Description = cell(row, idx[colDescription])
		if v := cell(row, idx[colVisibility]); v != "" {
			g.Visibility = model.Visibility(v)
		}

		parents, err := parseListCell(cell(row, idx[colGroups]))
		if err != nil {
			return serrors.NewSourceFormat(filename,
				fmt.Sprintf("sheet %s row %d: bad Groups cell", SheetGroups, n+2), err)
		}
		for _, p := range parents {
			g.AddGroup(p)
		}

		privileges, err := parseListCell(cell(row, idx[colPrivileges]))
		if err != nil {
			return serrors.NewSourceFormat(filename,
				fmt.Sprintf("sheet %s row %d: bad Privileges cell", SheetGroups, n+2), err)
		}
		g.Privileges = privileges

		if err := snap.AddGroup(g, model.DuplicateError); err != nil {
			return serrors.NewSourceFormat(filename,
				fmt.Sprintf("sheet %s row %d", SheetGroups, n+2), err)
		}
	}
	return nil
}

// sheetRows returns the data rows of a sheet plus a header-name to column
// index map, verifying all required columns exist.
func sheetRows(f *excelize.File, filename, sheet string, required []string) ([][]string, map[string]int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, serrors.NewSourceFormat(filename, fmt.Sprintf("missing sheet %s", sheet), err)
	}
	if len(rows) == 0 {
		return nil, nil, serrors.NewSourceFormat(filename, fmt.Sprintf("sheet %s has no header row", sheet), nil)
	}

	idx := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		idx[header] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, serrors.NewSourceFormat(filename,
				fmt.Sprintf("sheet %s is missing column %q", sheet, col), nil)
		}
	}
	return rows[1:], idx, nil
}

// cell returns the trimmed-by-excelize cell value, tolerating short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseListCell decodes a JSON array cell. Empty cells mean an empty list.
func parseListCell(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, err
	}
	return out, nil
}
