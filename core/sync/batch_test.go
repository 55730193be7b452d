package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"principal-sync/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedApplier records every chunk it receives and answers according to
// the optional respond function.
type scriptedApplier struct {
	calls   [][]Change
	respond func(call int, chunk []Change) ([]EntityError, error)
}

func (a *scriptedApplier) Apply(ctx context.Context, chunk []Change) ([]EntityError, error) {
	a.calls = append(a.calls, chunk)
	if a.respond == nil {
		return nil, nil
	}
	return a.respond(len(a.calls), chunk)
}

func unbatchedPlan(userCount int) *Plan {
	plan := &Plan{}
	plan.add(Change{Op: OpCreateGroup, Name: "analysts", Group: model.NewGroup("analysts")})
	for i := 0; i < userCount; i++ {
		name := fmt.Sprintf("user-%d", i)
		plan.add(Change{Op: OpCreateUser, Name: name, User: model.NewUser(name)})
		plan.add(Change{Op: OpSetMembership, Name: name, Members: []string{"analysts"}})
	}
	plan.add(Change{Op: OpDeleteUser, Name: "ghost"})
	return plan
}

func TestApplyPlan(t *testing.T) {
	t.Run("Dry Run Applies Nothing", func(t *testing.T) {
		applier := &scriptedApplier{}

		report := ApplyPlan(context.Background(), unbatchedPlan(2), applier, Options{}, RetryPolicy{}, nil)

		assert.Empty(t, applier.calls)
		assert.True(t, report.DryRun)
		assert.Equal(t, 6, report.TotalAttempted())
		assert.Equal(t, 0, report.TotalSucceeded())
		assert.Equal(t, 0, report.TotalFailed())
	})

	t.Run("Groups Then Users Then Deletes", func(t *testing.T) {
		applier := &scriptedApplier{}

		report := ApplyPlan(context.Background(), unbatchedPlan(2), applier,
			Options{ApplyChanges: true}, RetryPolicy{}, nil)

		require.Len(t, applier.calls, 3)
		assert.Equal(t, OpCreateGroup, applier.calls[0][0].Op)
		for _, c := range applier.calls[1] {
			assert.True(t, c.Op.UserLevel())
		}
		assert.Equal(t, OpDeleteUser, applier.calls[2][0].Op)
		assert.Equal(t, 6, report.TotalSucceeded())
	})

	t.Run("Users Chunked By Distinct User", func(t *testing.T) {
		applier := &scriptedApplier{}
		plan := &Plan{}
		for i := 0; i < 5; i++ {
			name := fmt.Sprintf("user-%d", i)
			plan.add(Change{Op: OpCreateUser, Name: name, User: model.NewUser(name)})
			plan.add(Change{Op: OpSetMembership, Name: name, Members: nil})
		}

		ApplyPlan(context.Background(), plan, applier,
			Options{ApplyChanges: true, BatchSize: 2}, RetryPolicy{}, nil)

		// 5 users at 2 per chunk: chunks of 2, 2, and 1 users, each user's
		// create and membership in the same chunk.
		require.Len(t, applier.calls, 3)
		assert.Len(t, applier.calls[0], 4)
		assert.Len(t, applier.calls[1], 4)
		assert.Len(t, applier.calls[2], 2)
		assert.Equal(t, applier.calls[0][0].Name, applier.calls[0][1].Name)
	})

	t.Run("Chunk Failure Is Isolated", func(t *testing.T) {
		applier := &scriptedApplier{
			respond: func(call int, chunk []Change) ([]EntityError, error) {
				if chunk[0].Op.UserLevel() && chunk[0].Name == "user-1" {
					return nil, errors.New("connection reset")
				}
				return nil, nil
			},
		}
		plan := &Plan{}
		plan.add(Change{Op: OpCreateGroup, Name: "analysts", Group: model.NewGroup("analysts")})
		for i := 0; i < 4; i++ {
			name := fmt.Sprintf("user-%d", i)
			plan.add(Change{Op: OpCreateUser, Name: name, User: model.NewUser(name)})
		}

		report := ApplyPlan(context.Background(), plan, applier,
			Options{ApplyChanges: true, BatchSize: 1}, RetryPolicy{}, nil)

		// Chunk for user-1 failed; the group chunk and the other three user
		// chunks still succeeded.
		assert.Equal(t, 4, report.TotalSucceeded())
		assert.Equal(t, 1, report.TotalFailed())
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "user-1", report.Failures[0].Name)
		assert.Equal(t, "connection reset", report.Failures[0].Message)
	})

	t.Run("Entity Errors Spare Chunk Siblings", func(t *testing.T) {
		applier := &scriptedApplier{
			respond: func(call int, chunk []Change) ([]EntityError, error) {
				return []EntityError{{Op: OpCreateUser, Name: "user-1", Message: "name taken"}}, nil
			},
		}
		plan := &Plan{}
		plan.add(Change{Op: OpCreateUser, Name: "user-0", User: model.NewUser("user-0")})
		plan.add(Change{Op: OpCreateUser, Name: "user-1", User: model.NewUser("user-1")})

		report := ApplyPlan(context.Background(), plan, applier,
			Options{ApplyChanges: true}, RetryPolicy{}, nil)

		assert.Equal(t, 1, report.TotalSucceeded())
		assert.Equal(t, 1, report.TotalFailed())
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "name taken", report.Failures[0].Message)
	})

	t.Run("Retries Transient Chunk Failures", func(t *testing.T) {
		applier := &scriptedApplier{
			respond: func(call int, chunk []Change) ([]EntityError, error) {
				if call < 3 {
					return nil, errors.New("timeout")
				}
				return nil, nil
			},
		}
		plan := &Plan{}
		plan.add(Change{Op: OpCreateUser, Name: "user-0", User: model.NewUser("user-0")})

		report := ApplyPlan(context.Background(), plan, applier,
			Options{ApplyChanges: true}, RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, nil)

		assert.Len(t, applier.calls, 3)
		assert.Equal(t, 1, report.TotalSucceeded())
		assert.Equal(t, 0, report.TotalFailed())
	})

	t.Run("Exhausted Retries Fail The Chunk", func(t *testing.T) {
		applier := &scriptedApplier{
			respond: func(call int, chunk []Change) ([]EntityError, error) {
				return nil, errors.New("timeout")
			},
		}
		plan := &Plan{}
		plan.add(Change{Op: OpCreateUser, Name: "user-0", User: model.NewUser("user-0")})

		report := ApplyPlan(context.Background(), plan, applier,
			Options{ApplyChanges: true}, RetryPolicy{Attempts: 2, Backoff: time.Millisecond}, nil)

		assert.Len(t, applier.calls, 2)
		assert.Equal(t, 1, report.TotalFailed())
	})

	t.Run("Cancellation Stops Between Chunks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		applier := &scriptedApplier{
			respond: func(call int, chunk []Change) ([]EntityError, error) {
				cancel()
				return nil, nil
			},
		}

		report := ApplyPlan(ctx, unbatchedPlan(2), applier,
			Options{ApplyChanges: true}, RetryPolicy{}, nil)

		// The group chunk ran to completion; the user and delete chunks were
		// never started.
		assert.Len(t, applier.calls, 1)
		assert.Equal(t, 1, report.TotalAttempted())
		assert.Equal(t, 1, report.TotalSucceeded())
	})
}
