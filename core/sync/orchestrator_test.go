package sync

import (
	"context"
	"errors"
	"testing"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	name  string
	specs []OptionSpec
	snap  *model.Snapshot
	err   error
	reads int
}

func (r *stubReader) Name() string                  { return r.name }
func (r *stubReader) DescribeOptions() []OptionSpec { return r.specs }
func (r *stubReader) Read(ctx context.Context, opts Options) (*model.Snapshot, error) {
	r.reads++
	return r.snap, r.err
}

type stubWriter struct {
	name     string
	specs    []OptionSpec
	fetchErr error
	writeErr error
	writes   int
}

func (w *stubWriter) Name() string                  { return w.name }
func (w *stubWriter) DescribeOptions() []OptionSpec { return w.specs }
func (w *stubWriter) FetchCurrent(ctx context.Context) (*model.Snapshot, error) {
	if w.fetchErr != nil {
		return nil, w.fetchErr
	}
	return model.NewSnapshot(), nil
}
func (w *stubWriter) Write(ctx context.Context, desired, current *model.Snapshot, opts Options) (*Report, error) {
	w.writes++
	if w.writeErr != nil {
		return nil, w.writeErr
	}
	return NewReport(!opts.ApplyChanges), nil
}

func TestOrchestrator(t *testing.T) {
	t.Run("Requires Reader And Writer", func(t *testing.T) {
		_, err := NewOrchestrator(nil, []Writer{&stubWriter{name: "w"}}, nil)
		assert.Error(t, err)

		_, err = NewOrchestrator(&stubReader{name: "r"}, nil, nil)
		assert.Error(t, err)
	})

	t.Run("Missing Required Option Fails Before Any IO", func(t *testing.T) {
		reader := &stubReader{
			name:  "jsonfile",
			specs: []OptionSpec{{Name: "filename", Required: true}},
			snap:  model.NewSnapshot(),
		}
		writer := &stubWriter{name: "platform"}

		orch, err := NewOrchestrator(reader, []Writer{writer}, nil)
		require.NoError(t, err)

		_, err = orch.Run(context.Background(), Options{})
		require.Error(t, err)
		assert.True(t, serrors.IsMissingOption(err))
		assert.Equal(t, 0, reader.reads)
		assert.Equal(t, 0, writer.writes)
	})

	t.Run("Option Conflict Fails Before Any IO", func(t *testing.T) {
		reader := &stubReader{name: "r", snap: model.NewSnapshot()}
		writer := &stubWriter{name: "w"}

		orch, err := NewOrchestrator(reader, []Writer{writer}, nil)
		require.NoError(t, err)

		_, err = orch.Run(context.Background(), Options{RemoveDeleted: true, BatchSize: 5})
		require.Error(t, err)
		assert.True(t, serrors.IsConflict(err))
		assert.Equal(t, 0, reader.reads)
	})

	t.Run("Reader Error Stops The Run", func(t *testing.T) {
		reader := &stubReader{name: "r", err: errors.New("file corrupted")}
		writer := &stubWriter{name: "w"}

		orch, err := NewOrchestrator(reader, []Writer{writer}, nil)
		require.NoError(t, err)

		_, err = orch.Run(context.Background(), Options{})
		require.Error(t, err)
		assert.ErrorContains(t, err, "file corrupted")
		assert.Equal(t, 0, writer.writes)
	})

	t.Run("Reads Once For Multiple Writers", func(t *testing.T) {
		reader := &stubReader{name: "r", snap: model.NewSnapshot()}
		first := &stubWriter{name: "first"}
		second := &stubWriter{name: "second"}

		orch, err := NewOrchestrator(reader, []Writer{first, second}, nil)
		require.NoError(t, err)

		reports, err := orch.Run(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, reader.reads)
		require.Len(t, reports, 2)
		assert.Equal(t, "first", reports[0].Target)
		assert.Equal(t, "second", reports[1].Target)
	})

	t.Run("Writer Failure Does Not Stop Siblings", func(t *testing.T) {
		reader := &stubReader{name: "r", snap: model.NewSnapshot()}
		broken := &stubWriter{name: "broken", fetchErr: errors.New("target down")}
		healthy := &stubWriter{name: "healthy"}

		orch, err := NewOrchestrator(reader, []Writer{broken, healthy}, nil)
		require.NoError(t, err)

		reports, err := orch.Run(context.Background(), Options{})
		require.Error(t, err)
		assert.ErrorContains(t, err, "target down")
		require.Len(t, reports, 1)
		assert.Equal(t, "healthy", reports[0].Target)
		assert.Equal(t, 1, healthy.writes)
	})
}
