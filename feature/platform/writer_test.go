package platform_test

import (
	"context"
	"errors"
	"testing"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
	coreplatform "principal-sync/core/platform"
	"principal-sync/core/platform/mocks"
	"principal-sync/core/sync"
	"principal-sync/feature/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func desiredSnapshot(t *testing.T) *model.Snapshot {
	t.Helper()

	snap := model.NewSnapshot()
	require.NoError(t, snap.AddGroup(model.NewGroup("analysts"), model.DuplicateError))

	alice := model.NewUser("alice")
	alice.Email = "alice@example.com"
	alice.AddGroup("analysts")
	require.NoError(t, snap.AddUser(alice, model.DuplicateError))

	bob := model.NewUser("bob")
	bob.Password = "hunter2"
	require.NoError(t, snap.AddUser(bob, model.DuplicateError))

	return snap
}

func TestWriter_Write_Creates(t *testing.T) {
	client := new(mocks.Client)
	client.On("SyncPrincipals", mock.Anything, mock.Anything, true, false).
		Return(&coreplatform.SyncResult{}, nil)

	w := platform.NewWriter(client, nil)
	report, err := w.Write(context.Background(), desiredSnapshot(t), model.NewSnapshot(), sync.Options{
		ApplyChanges: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalFailed())
	assert.Equal(t, 1, report.Counts[sync.OpCreateGroup].Succeeded)
	assert.Equal(t, 2, report.Counts[sync.OpCreateUser].Succeeded)
	// alice gains a membership; bob has none to set.
	assert.Equal(t, 1, report.Counts[sync.OpSetMembership].Succeeded)

	// Two chunks: groups first, then users.
	client.AssertNumberOfCalls(t, "SyncPrincipals", 2)

	// The user chunk carries the referenced group along.
	userBatch := client.Calls[1].Arguments.Get(1).(*model.Snapshot)
	assert.True(t, userBatch.HasGroup("analysts"))
	assert.True(t, userBatch.HasUser("alice"))
}

func TestWriter_Write_DryRun(t *testing.T) {
	client := new(mocks.Client)

	w := platform.NewWriter(client, nil)
	report, err := w.Write(context.Background(), desiredSnapshot(t), model.NewSnapshot(), sync.Options{})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 4, report.TotalAttempted())
	assert.Equal(t, 0, report.TotalSucceeded())
	client.AssertNotCalled(t, "SyncPrincipals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWriter_Write_RemoveDeleted(t *testing.T) {
	current := model.NewSnapshot()
	require.NoError(t, current.AddUser(model.NewUser("stale"), model.DuplicateError))
	require.NoError(t, current.AddGroup(model.NewGroup("old-group"), model.DuplicateError))

	client := new(mocks.Client)
	client.On("SyncPrincipals", mock.Anything, mock.Anything, true, false).
		Return(&coreplatform.SyncResult{}, nil)
	client.On("DeleteUsers", mock.Anything, []string{"stale"}).Return(nil)
	client.On("DeleteGroups", mock.Anything, []string{"old-group"}).Return(nil)

	w := platform.NewWriter(client, nil)
	report, err := w.Write(context.Background(), desiredSnapshot(t), current, sync.Options{
		ApplyChanges:  true,
		RemoveDeleted: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Counts[sync.OpDeleteUser].Succeeded)
	assert.Equal(t, 1, report.Counts[sync.OpDeleteGroup].Succeeded)
	client.AssertExpectations(t)
}

func TestWriter_Write_UpdatePasswords(t *testing.T) {
	client := new(mocks.Client)
	client.On("SyncPrincipals", mock.Anything, mock.Anything, true, false).
		Return(&coreplatform.SyncResult{}, nil)
	client.On("UpdateUserPassword", mock.Anything, "bob", "hunter2").
		Return(errors.New("password rejected"))

	w := platform.NewWriter(client, nil)
	report, err := w.Write(context.Background(), desiredSnapshot(t), model.NewSnapshot(), sync.Options{
		ApplyChanges: true,
		Extra:        map[string]string{platform.OptionUpdatePasswords: "true"},
	})
	require.NoError(t, err)

	// The password failure is attributed to bob alone.
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bob", report.Failures[0].Name)
	assert.Equal(t, 1, report.Counts[sync.OpCreateUser].Succeeded)
	assert.Equal(t, 1, report.Counts[sync.OpCreateUser].Failed)
	client.AssertExpectations(t)
}

func TestWriter_Write_BatchSize(t *testing.T) {
	desired := model.NewSnapshot()
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		require.NoError(t, desired.AddUser(model.NewUser(name), model.DuplicateError))
	}

	client := new(mocks.Client)
	client.On("SyncPrincipals", mock.Anything, mock.Anything, true, false).
		Return(&coreplatform.SyncResult{}, nil)

	w := platform.NewWriter(client, nil)
	report, err := w.Write(context.Background(), desired, model.NewSnapshot(), sync.Options{
		ApplyChanges: true,
		BatchSize:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Counts[sync.OpCreateUser].Succeeded)
	// 5 users in chunks of 2 users each: 2, 2, 1.
	client.AssertNumberOfCalls(t, "SyncPrincipals", 3)
}

func TestWriter_Write_DiffErrorIsSystemic(t *testing.T) {
	desired := model.NewSnapshot()
	u := model.NewUser("alice")
	u.AddGroup("missing")
	require.NoError(t, desired.AddUser(u, model.DuplicateError))

	client := new(mocks.Client)
	w := platform.NewWriter(client, nil)

	_, err := w.Write(context.Background(), desired, model.NewSnapshot(), sync.Options{ApplyChanges: true})
	assert.True(t, serrors.IsUnresolvedReference(err))
	client.AssertNotCalled(t, "SyncPrincipals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReader_Read(t *testing.T) {
	snap := model.NewSnapshot()
	require.NoError(t, snap.AddUser(model.NewUser("alice"), model.DuplicateError))

	client := new(mocks.Client)
	client.On("FetchUsersAndGroups", mock.Anything).Return(snap, nil)

	got, err := platform.NewReader(client, nil).Read(context.Background(), sync.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.UserCount())
}
