package mocks

import (
	"context"

	"principal-sync/core/model"
	"principal-sync/core/platform"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of platform.Client
type Client struct {
	mock.Mock
}

func (m *Client) FetchUsersAndGroups(ctx context.Context) (*model.Snapshot, error) {
	args := m.Called(ctx)
	if snap, ok := args.Get(0).(*model.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) SyncPrincipals(ctx context.Context, snap *model.Snapshot, applyChanges, removeDeleted bool) (*platform.SyncResult, error) {
	args := m.Called(ctx, snap, applyChanges, removeDeleted)
	if res, ok := args.Get(0).(*platform.SyncResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) DeleteUsers(ctx context.Context, names []string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}

func (m *Client) DeleteGroups(ctx context.Context, names []string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}

func (m *Client) TransferOwnership(ctx context.Context, fromUser, toUser string) error {
	args := m.Called(ctx, fromUser, toUser)
	return args.Error(0)
}

func (m *Client) UpdateUserPassword(ctx context.Context, name, password string) error {
	args := m.Called(ctx, name, password)
	return args.Error(0)
}
