package objectstore_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	"principal-sync/core/storage/mocks"
	"principal-sync/core/sync"
	"principal-sync/feature/objectstore"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const storedSnapshot = `[
	{"principalTypeEnum":"LOCAL_GROUP","name":"analysts","displayName":"Analysts","groupNames":[]},
	{"principalTypeEnum":"LOCAL_USER","name":"alice","displayName":"Alice","groupNames":["analysts"]}
]`

func desiredSnapshot(t *testing.T) *model.Snapshot {
	t.Helper()

	snap := model.NewSnapshot()
	require.NoError(t, snap.AddGroup(model.NewGroup("analysts"), model.DuplicateError))
	u := model.NewUser("alice")
	u.AddGroup("analysts")
	require.NoError(t, snap.AddUser(u, model.DuplicateError))
	return snap
}

func TestReader_Read(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "principals", "desired.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(storedSnapshot))), nil)

	snap, err := objectstore.NewReader(client, "principals", nil).Read(context.Background(), sync.Options{
		Extra: map[string]string{objectstore.OptionObject: "desired.json"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.UserCount())
	assert.Equal(t, 1, snap.GroupCount())
	client.AssertExpectations(t)
}

func TestReader_Read_MissingOption(t *testing.T) {
	_, err := objectstore.NewReader(new(mocks.Client), "principals", nil).Read(context.Background(), sync.Options{})
	assert.True(t, serrors.IsMissingOption(err))
}

func TestWriter_FetchCurrent(t *testing.T) {
	t.Run("No Bucket Means Empty", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "principals").Return(false, nil)

		w := objectstore.NewWriter(client, "principals", "current.json", nil)
		snap, err := w.FetchCurrent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, snap.UserCount())
	})

	t.Run("Existing Object", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "principals").Return(true, nil)
		client.On("GetObject", mock.Anything, "principals", "current.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(storedSnapshot))), nil)

		w := objectstore.NewWriter(client, "principals", "current.json", nil)
		snap, err := w.FetchCurrent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, snap.UserCount())
		assert.Equal(t, 1, snap.GroupCount())
	})
}

func TestWriter_Write(t *testing.T) {
	t.Run("Creates Bucket And Stores", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "principals").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "principals", mock.Anything).Return(nil)
		client.On("PutObject", mock.Anything, "principals", "desired.json",
			mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, nil)

		w := objectstore.NewWriter(client, "principals", "desired.json", nil)
		report, err := w.Write(context.Background(), desiredSnapshot(t), model.NewSnapshot(), sync.Options{ApplyChanges: true})
		require.NoError(t, err)

		assert.Equal(t, 2, report.TotalSucceeded())
		client.AssertExpectations(t)
	})

	t.Run("Dry Run Stores Nothing", func(t *testing.T) {
		client := new(mocks.Client)

		w := objectstore.NewWriter(client, "principals", "desired.json", nil)
		report, err := w.Write(context.Background(), desiredSnapshot(t), model.NewSnapshot(), sync.Options{})
		require.NoError(t, err)

		assert.True(t, report.DryRun)
		assert.Equal(t, 2, report.TotalAttempted())
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
