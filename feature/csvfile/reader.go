package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// OptionFilename names the delimited file to read from or write to.
const OptionFilename = "filename"

// GroupSeparator splits the groups column into group names.
const GroupSeparator = ";"

var columns = []string{"name", "password", "mail", "groups", "visibility"}

// Reader loads users from a delimited file.
type Reader struct {
	log *zap.Logger
}

// NewReader creates a CSV reader.
func NewReader(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log}
}

func (r *Reader) Name() string { return "csvfile" }

func (r *Reader) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: OptionFilename, Description: "path of the CSV file to read", Required: true},
	}
}

func (r *Reader) Read(ctx context.Context, opts sync.Options) (*model.Snapshot, error) {
	filename, ok := opts.Option(OptionFilename)
	if !ok || filename == "" {
		return nil, serrors.NewMissingOption(OptionFilename, r.Name())
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, serrors.NewSourceUnavailable(filename, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, serrors.NewSourceFormat(filename, "missing header row", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			return nil, serrors.NewSourceFormat(filename, fmt.Sprintf("missing column %q", col), nil)
		}
	}

	snap := model.NewSnapshot()
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, serrors.NewSourceFormat(filename, fmt.Sprintf("row %d", row+1), err)
		}
		row++

		name := record[idx["name"]]
		if strings.TrimSpace(name) == "" {
			continue
		}

		u := model.NewUser(name)
		u.Password = record[idx["password"]]
		u.Email = record[idx["mail"]]
		if v := record[idx["visibility"]]; v != "" {
			u.Visibility = model.Visibility(v)
		}

		for _, g := range strings.Split(record[idx["groups"]], GroupSeparator) {
			g = strings.TrimSpace(g)
			if g == "" {
				continue
			}
			u.AddGroup(g)
			// Synthesize the group so the snapshot validates standalone.
			if !snap.HasGroup(g) {
				if err := snap.AddGroup(model.NewGroup(g), model.DuplicateError); err != nil {
					return nil, err
				}
			}
		}

		if err := snap.AddUser(u, model.DuplicateError); err != nil {
			return nil, serrors.NewSourceFormat(filename, fmt.Sprintf("row %d", row), err)
		}
	}

	r.log.Info("Read users from CSV file",
		zap.String("filename", filename),
		zap.Int("users", snap.UserCount()),
		zap.Int("groups", snap.GroupCount()),
	)
	return snap, nil
}
