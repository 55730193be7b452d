package sync

import "principal-sync/core/model"

// Op identifies the kind of a planned change.
type Op string

const (
	// OpCreateGroup creates a group that is absent from the target.
	OpCreateGroup Op = "create_group"
	// OpUpdateGroup replaces a group's attributes with the desired set.
	OpUpdateGroup Op = "update_group"
	// OpCreateUser creates a user that is absent from the target.
	OpCreateUser Op = "create_user"
	// OpUpdateUser replaces a user's non-membership attributes.
	OpUpdateUser Op = "update_user"
	// OpSetMembership sets a user's group membership to a computed set.
	OpSetMembership Op = "set_membership"
	// OpDeleteUser deletes a user present in the target but not desired.
	OpDeleteUser Op = "delete_user"
	// OpDeleteGroup deletes a group present in the target but not desired.
	OpDeleteGroup Op = "delete_group"
)

// UserLevel reports whether the op belongs to the user-level phase that the
// batch controller chunks by user.
func (op Op) UserLevel() bool {
	switch op {
	case OpCreateUser, OpUpdateUser, OpSetMembership:
		return true
	}
	return false
}

// IsDelete reports whether the op removes an entity from the target.
func (op Op) IsDelete() bool {
	return op == OpDeleteUser || op == OpDeleteGroup
}

// MembershipMode selects how a user's desired memberships combine with the
// memberships already present in the target.
type MembershipMode string

const (
	// MembershipReplace makes the target set exactly the desired set.
	MembershipReplace MembershipMode = "replace"
	// MembershipMerge unions desired and current memberships, never removing
	// a membership the source did not mention.
	MembershipMerge MembershipMode = "merge"
)

// Change is one planned operation against the target system.
type Change struct {
	// Op is the operation kind.
	Op Op `json:"op"`

	// Name is the login name or group name the operation targets.
	Name string `json:"name"`

	// User carries the full desired user for create/update operations.
	User *model.User `json:"user,omitempty"`

	// Group carries the full desired group for create/update operations.
	Group *model.Group `json:"group,omitempty"`

	// Members is the computed membership set for OpSetMembership, sorted
	// for deterministic plans.
	Members []string `json:"members,omitempty"`

	// Mode records which membership policy produced Members.
	Mode MembershipMode `json:"mode,omitempty"`

	// Reason explains why the change is needed.
	Reason string `json:"reason,omitempty"`
}

// Plan is the ordered list of changes needed to converge the target to the
// desired state, with aggregate counts.
type Plan struct {
	Changes []Change    `json:"changes"`
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate counts per operation kind.
type PlanSummary struct {
	GroupCreates   int `json:"group_creates"`
	GroupUpdates   int `json:"group_updates"`
	UserCreates    int `json:"user_creates"`
	UserUpdates    int `json:"user_updates"`
	MembershipSets int `json:"membership_sets"`
	UserDeletes    int `json:"user_deletes"`
	GroupDeletes   int `json:"group_deletes"`
}

// Empty reports whether the plan contains no changes.
func (p *Plan) Empty() bool {
	return len(p.Changes) == 0
}

func (p *Plan) add(c Change) {
	p.Changes = append(p.Changes, c)
	switch c.Op {
	case OpCreateGroup:
		p.Summary.GroupCreates++
	case OpUpdateGroup:
		p.Summary.GroupUpdates++
	case OpCreateUser:
		p.Summary.UserCreates++
	case OpUpdateUser:
		p.Summary.UserUpdates++
	case OpSetMembership:
		p.Summary.MembershipSets++
	case OpDeleteUser:
		p.Summary.UserDeletes++
	case OpDeleteGroup:
		p.Summary.GroupDeletes++
	}
}
