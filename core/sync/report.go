package sync

import "github.com/google/uuid"

// Counter tracks the outcome of one operation kind.
type Counter struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// EntityError records one per-entity apply failure. It never aborts sibling
// operations; the batch controller records it and continues.
type EntityError struct {
	Op      Op     `json:"op"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Report is the externally consumed result of one writer's run: per-op
// counters plus every per-entity failure.
type Report struct {
	// RunID identifies the run the report belongs to.
	RunID string `json:"run_id"`

	// Target names the writer that produced the report.
	Target string `json:"target,omitempty"`

	// DryRun is true when the plan was computed but not applied. Counters
	// then carry attempted counts with zero successes and zero mutations.
	DryRun bool `json:"dry_run"`

	// Counts holds one counter per operation kind that appeared in the plan.
	Counts map[Op]*Counter `json:"counts"`

	// Failures lists every (entity, error) pair recorded during apply.
	Failures []EntityError `json:"failures,omitempty"`
}

// NewReport creates an empty report with a fresh run id.
func NewReport(dryRun bool) *Report {
	return &Report{
		RunID:  uuid.NewString(),
		DryRun: dryRun,
		Counts: make(map[Op]*Counter),
	}
}

func (r *Report) counter(op Op) *Counter {
	c, ok := r.Counts[op]
	if !ok {
		c = &Counter{}
		r.Counts[op] = c
	}
	return c
}

// Attempt records that an operation is about to be applied (or, in a dry
// run, would be applied).
func (r *Report) Attempt(op Op) {
	r.counter(op).Attempted++
}

// Succeed records a successful apply for an operation kind.
func (r *Report) Succeed(op Op) {
	r.counter(op).Succeeded++
}

// Fail records a per-entity failure and keeps going.
func (r *Report) Fail(op Op, name, message string) {
	r.counter(op).Failed++
	r.Failures = append(r.Failures, EntityError{Op: op, Name: name, Message: message})
}

// TotalAttempted sums attempted operations across all kinds.
func (r *Report) TotalAttempted() int {
	n := 0
	for _, c := range r.Counts {
		n += c.Attempted
	}
	return n
}

// TotalFailed sums failed operations across all kinds.
func (r *Report) TotalFailed() int {
	n := 0
	for _, c := range r.Counts {
		n += c.Failed
	}
	return n
}

// TotalSucceeded sums successful operations across all kinds.
func (r *Report) TotalSucceeded() int {
	n := 0
	for _, c := range r.Counts {
		n += c.Succeeded
	}
	return n
}
