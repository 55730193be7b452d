// Package sync implements the reconciliation and batched-application engine.
//
// The engine compares a desired snapshot of users and groups against the
// current state of a target system and produces an ordered change plan, which
// a batch controller then applies in bounded chunks so large synchronizations
// survive rate-limited or timeout-prone targets.
//
// # Components
//
//  1. Contracts: Reader produces a model.Snapshot; Writer fetches current
//     state and applies a desired snapshot to a target. Both declare the
//     options they accept so the orchestrator can validate configuration
//     before any I/O happens.
//
//  2. Diff engine: a pure function from (desired, current, options) to a
//     Plan. It never mutates a snapshot and never performs I/O, which keeps
//     merge-vs-replace and dry-run trivially testable.
//
//  3. Batch controller: slices the plan's user-level operations into chunks,
//     applies them sequentially through an Applier, retries failed chunks,
//     and isolates failures so one bad chunk never abandons the rest.
//
//  4. Orchestrator: wires one Reader to one or more Writers and runs the
//     pipeline once per invocation.
//
// # Plan Ordering
//
// Group creates precede user creates, membership sets follow both, and
// deletes come last (users before groups). Target systems reject memberships
// referencing absent groups and reject deleting groups that still have
// members; the emitted order respects both without requiring transactions.
package sync
