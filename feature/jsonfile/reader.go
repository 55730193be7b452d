package jsonfile

import (
	"context"
	"os"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/sync"

	"go.uber.org/zap"
)

// OptionFilename names the JSON file to read from or write to.
const OptionFilename = "filename"

// Reader loads a desired-state snapshot from a principals JSON file.
type Reader struct {
	log *zap.Logger
}

// NewReader creates a JSON file reader.
func NewReader(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log}
}

func (r *Reader) Name() string { return "jsonfile" }

func (r *Reader) DescribeOptions() []sync.OptionSpec {
	return []sync.OptionSpec{
		{Name: OptionFilename, Description: "path of the principals JSON file to read", Required: true},
	}
}

// Read parses the file into a snapshot. Duplicate names in the file are an
// error; the file is the source of truth and must be unambiguous.
func (r *Reader) Read(ctx context.Context, opts sync.Options) (*model.Snapshot, error) {
	filename, ok := opts.Option(OptionFilename)
	if !ok || filename == "" {
		return nil, serrors.NewMissingOption(OptionFilename, r.Name())
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, serrors.NewSourceUnavailable(filename, err)
	}

	snap, err := model.ParsePrincipals(data, model.DuplicateError)
	if err != nil {
		return nil, serrors.NewSourceFormat(filename, "principals array", err)
	}

	r.log.Info("Read principals from JSON file",
		zap.String("filename", filename),
		zap.Int("users", snap.UserCount()),
		zap.Int("groups", snap.GroupCount()),
	)
	return snap, nil
}
