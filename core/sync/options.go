package sync

import (
	"fmt"

	serrors "principal-sync/core/errors"
)

// Universally recognized option names. Every writer understands these;
// anything else rides in Options.Extra untouched and is interpreted only by
// the reader or writer that declared it.
const (
	// OptionApplyChanges applies the plan when true; otherwise the run is a
	// dry run that reports the plan without mutating the target.
	OptionApplyChanges = "applyChanges"
	// OptionRemoveDeleted deletes entities present in the target but absent
	// from the desired state. Mutually exclusive with OptionBatchSize.
	OptionRemoveDeleted = "removeDeleted"
	// OptionBatchSize chunks user operations into batches of this many users.
	OptionBatchSize = "batchSize"
	// OptionMergeGroups unions desired memberships with current memberships
	// instead of replacing them.
	OptionMergeGroups = "mergeGroups"
	// OptionCreateGroups synthesizes groups that users reference but that are
	// present in neither the desired nor the current state.
	OptionCreateGroups = "createGroups"
)

// Options is the flat configuration surface shared by readers and writers.
type Options struct {
	ApplyChanges  bool
	RemoveDeleted bool
	MergeGroups   bool
	CreateGroups  bool

	// BatchSize is the user chunk size. Zero means a single unbounded batch.
	BatchSize int

	// Extra holds options the engine does not interpret, keyed by name.
	Extra map[string]string
}

// Validate checks internal consistency. It runs before any I/O.
func (o Options) Validate() error {
	if o.BatchSize < 0 {
		return fmt.Errorf("batch size must be positive, got %d", o.BatchSize)
	}
	if o.RemoveDeleted && o.BatchSize > 0 {
		return serrors.NewConflict(OptionRemoveDeleted, OptionBatchSize,
			"deletion by difference requires a full view of current vs desired state")
	}
	return nil
}

// Option returns the value of a pass-through option, if set.
func (o Options) Option(name string) (string, bool) {
	v, ok := o.Extra[name]
	return v, ok
}

// OptionBool reads a pass-through option as a boolean. Unset or anything but
// "true" and "1" is false.
func (o Options) OptionBool(name string) bool {
	v, ok := o.Extra[name]
	return ok && (v == "true" || v == "1")
}

// has reports whether an option is satisfied. Universal options always carry
// a value; pass-through options must be present and non-empty.
func (o Options) has(name string) bool {
	switch name {
	case OptionApplyChanges, OptionRemoveDeleted, OptionBatchSize, OptionMergeGroups, OptionCreateGroups:
		return true
	}
	v, ok := o.Extra[name]
	return ok && v != ""
}

// OptionSpec declares one configuration key a reader or writer accepts.
type OptionSpec struct {
	// Name is the option key.
	Name string
	// Description is a short human-readable explanation.
	Description string
	// Required marks options the component cannot run without.
	Required bool
}
