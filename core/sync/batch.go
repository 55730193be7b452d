package sync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Applier is the target-apply primitive. One call applies one chunk.
//
// A returned error marks the whole chunk as failed (network error, auth
// expiry) and is subject to retry. Per-entity validation errors reported
// inline by the target are returned as EntityErrors instead; they are
// attributed to those entities only and the rest of the chunk stands.
type Applier interface {
	Apply(ctx context.Context, changes []Change) ([]EntityError, error)
}

// RetryPolicy controls how a failed chunk is retried before its entities are
// marked failed and processing moves on.
type RetryPolicy struct {
	// Attempts is the total number of tries per chunk. Zero or one means no
	// retry.
	Attempts int

	// Backoff is the pause between tries, grown linearly per attempt.
	Backoff time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// ApplyPlan applies a change plan through the given applier and returns the
// resulting report.
//
// Group-level operations are applied first as a single chunk; user-level
// operations follow in chunks of opts.BatchSize users (a user's create or
// update travels with their membership set); deletes come last. Chunks are
// applied sequentially, chunk failures are isolated, and cancellation is
// honored between chunks: an in-flight chunk runs to completion.
//
// When opts.ApplyChanges is false the full plan is reported as attempted with
// zero apply calls.
func ApplyPlan(ctx context.Context, plan *Plan, applier Applier, opts Options, retry RetryPolicy, log *zap.Logger) *Report {
	if log == nil {
		log = zap.NewNop()
	}
	report := NewReport(!opts.ApplyChanges)

	chunks := chunkPlan(plan, opts.BatchSize)

	if !opts.ApplyChanges {
		for _, chunk := range chunks {
			for _, c := range chunk {
				report.Attempt(c.Op)
			}
		}
		log.Info("dry run, no changes applied",
			zap.String("run_id", report.RunID),
			zap.Int("planned", report.TotalAttempted()))
		return report
	}

	for i, chunk := range chunks {
		// Cooperative checkpoint: abort between chunks only.
		if ctx.Err() != nil {
			log.Warn("run aborted between chunks",
				zap.String("run_id", report.RunID),
				zap.Int("chunks_remaining", len(chunks)-i))
			break
		}

		for _, c := range chunk {
			report.Attempt(c.Op)
		}

		entityErrs, err := applyWithRetry(ctx, applier, chunk, retry, log)
		if err != nil {
			// Chunk failed after retries: mark its entities and continue, so
			// one bad chunk never abandons the rest of the plan.
			log.Warn("chunk failed",
				zap.String("run_id", report.RunID),
				zap.Int("chunk", i+1),
				zap.Int("size", len(chunk)),
				zap.Error(err))
			for _, c := range chunk {
				report.Fail(c.Op, c.Name, err.Error())
			}
			continue
		}

		failed := make(map[Op]map[string]string)
		for _, ee := range entityErrs {
			if failed[ee.Op] == nil {
				failed[ee.Op] = make(map[string]string)
			}
			failed[ee.Op][ee.Name] = ee.Message
		}
		for _, c := range chunk {
			if msg, ok := failed[c.Op][c.Name]; ok {
				report.Fail(c.Op, c.Name, msg)
			} else {
				report.Succeed(c.Op)
			}
		}
	}

	return report
}

func applyWithRetry(ctx context.Context, applier Applier, chunk []Change, retry RetryPolicy, log *zap.Logger) ([]EntityError, error) {
	var lastErr error
	for attempt := 1; attempt <= retry.attempts(); attempt++ {
		entityErrs, err := applier.Apply(ctx, chunk)
		if err == nil {
			return entityErrs, nil
		}
		lastErr = err
		if attempt == retry.attempts() {
			break
		}
		log.Warn("chunk apply failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-time.After(retry.Backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// chunkPlan splits a plan into apply chunks: all group-level operations as
// one leading chunk, user-level operations grouped per user and chunked by
// size users, and deletes as one trailing chunk (user deletes precede group
// deletes by plan order).
func chunkPlan(plan *Plan, size int) [][]Change {
	var groupOps, userOps, deleteOps []Change
	for _, c := range plan.Changes {
		switch {
		case c.Op.IsDelete():
			deleteOps = append(deleteOps, c)
		case c.Op.UserLevel():
			userOps = append(userOps, c)
		default:
			groupOps = append(groupOps, c)
		}
	}

	var chunks [][]Change
	if len(groupOps) > 0 {
		chunks = append(chunks, groupOps)
	}

	if len(userOps) > 0 {
		if size <= 0 {
			chunks = append(chunks, userOps)
		} else {
			// Chunk by distinct user so that a user's operations always land
			// in the same request unit.
			var order []string
			seen := make(map[string]int)
			for _, c := range userOps {
				if _, ok := seen[c.Name]; !ok {
					seen[c.Name] = len(order)
					order = append(order, c.Name)
				}
			}
			for start := 0; start < len(order); start += size {
				end := start + size
				if end > len(order) {
					end = len(order)
				}
				var chunk []Change
				for _, c := range userOps {
					if idx := seen[c.Name]; idx >= start && idx < end {
						chunk = append(chunk, c)
					}
				}
				chunks = append(chunks, chunk)
			}
		}
	}

	if len(deleteOps) > 0 {
		chunks = append(chunks, deleteOps)
	}
	return chunks
}
