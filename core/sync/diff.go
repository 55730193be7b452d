package sync

import (
	"fmt"
	"sort"
	"strings"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"
)

// Diff compares the desired snapshot against the current state of a target
// and produces the ordered change plan that converges the two. It is a pure
// function: no I/O, and neither snapshot is mutated.
//
// The computation fails as a whole on a configuration conflict, a supergroup
// cycle, or a group reference that will not resolve after the sync; a
// structurally invalid plan is never partially emitted.
func Diff(desired, current *model.Snapshot, opts Options) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if desired == nil {
		return nil, fmt.Errorf("desired snapshot is nil")
	}
	if current == nil {
		current = model.NewSnapshot()
	}

	implicit := collectImplicitGroups(desired, current, opts)

	if err := checkReferences(desired, current, implicit, opts); err != nil {
		return nil, err
	}
	if err := checkHierarchy(desired); err != nil {
		return nil, err
	}

	plan := &Plan{}

	// Group creation pass. Implicit groups first so explicitly defined
	// groups that nest under them stay valid, then desired order.
	for _, name := range implicit {
		g := model.NewGroup(name)
		g.Description = "Implicitly created group."
		plan.add(Change{Op: OpCreateGroup, Name: name, Group: g, Reason: "referenced by a user but defined nowhere"})
	}
	for _, g := range desired.Groups() {
		if !current.HasGroup(g.Name) {
			plan.add(Change{Op: OpCreateGroup, Name: g.Name, Group: g.Clone(), Reason: "absent from target"})
		}
	}

	// Group update pass: replace semantics at the attribute level.
	for _, g := range desired.Groups() {
		cur := current.Group(g.Name)
		if cur == nil {
			continue
		}
		if fields := groupDiffFields(g, cur); len(fields) > 0 {
			plan.add(Change{
				Op:     OpUpdateGroup,
				Name:   g.Name,
				Group:  g.Clone(),
				Reason: "differs in: " + strings.Join(fields, ", "),
			})
		}
	}

	// User creation pass.
	for _, u := range desired.Users() {
		if !current.HasUser(u.Name) {
			plan.add(Change{Op: OpCreateUser, Name: u.Name, User: u.Clone(), Reason: "absent from target"})
		}
	}

	// User update pass: non-membership attributes only.
	for _, u := range desired.Users() {
		cur := current.User(u.Name)
		if cur == nil {
			continue
		}
		if fields := userDiffFields(u, cur); len(fields) > 0 {
			plan.add(Change{
				Op:     OpUpdateUser,
				Name:   u.Name,
				User:   u.Clone(),
				Reason: "differs in: " + strings.Join(fields, ", "),
			})
		}
	}

	// Membership pass: emitted after all group creates so references exist.
	mode := MembershipReplace
	if opts.MergeGroups {
		mode = MembershipMerge
	}
	for _, u := range desired.Users() {
		target := stringSet(u.GroupNames)
		cur := current.User(u.Name)
		var have map[string]struct{}
		if cur != nil {
			have = stringSet(cur.GroupNames)
			if opts.MergeGroups {
				for g := range have {
					target[g] = struct{}{}
				}
			}
		}
		if setsEqual(target, have) {
			continue
		}
		plan.add(Change{
			Op:      OpSetMembership,
			Name:    u.Name,
			Members: sortedKeys(target),
			Mode:    mode,
		})
	}

	// Deletion pass: users first so no group is deleted while a user in the
	// same plan still references it.
	if opts.RemoveDeleted {
		for _, u := range current.Users() {
			if !desired.HasUser(u.Name) {
				plan.add(Change{Op: OpDeleteUser, Name: u.Name, Reason: "absent from desired state"})
			}
		}
		for _, g := range current.Groups() {
			if !desired.HasGroup(g.Name) {
				plan.add(Change{Op: OpDeleteGroup, Name: g.Name, Reason: "absent from desired state"})
			}
		}
	}

	return plan, nil
}

// collectImplicitGroups returns the sorted names of groups that users
// reference but that no snapshot defines, when createGroups is enabled.
func collectImplicitGroups(desired, current *model.Snapshot, opts Options) []string {
	if !opts.CreateGroups {
		return nil
	}
	missing := make(map[string]struct{})
	for _, u := range desired.Users() {
		for _, name := range u.GroupNames {
			if desired.HasGroup(name) {
				continue
			}
			if current.HasGroup(name) && !opts.RemoveDeleted {
				continue
			}
			missing[name] = struct{}{}
		}
	}
	return sortedKeys(missing)
}

// checkReferences verifies every group reference resolves to a group that
// will exist in the target after the sync: defined in desired, synthesized
// implicitly, or surviving in current state.
func checkReferences(desired, current *model.Snapshot, implicit []string, opts Options) error {
	implicitSet := stringSet(implicit)
	resolves := func(name string) bool {
		if desired.HasGroup(name) {
			return true
		}
		if _, ok := implicitSet[name]; ok {
			return true
		}
		return current.HasGroup(name) && !opts.RemoveDeleted
	}

	for _, u := range desired.Users() {
		for _, name := range u.GroupNames {
			if !resolves(name) {
				return serrors.NewUnresolvedReference("user", u.Name, name)
			}
		}
	}
	for _, g := range desired.Groups() {
		for _, name := range g.GroupNames {
			if !resolves(name) {
				return serrors.NewUnresolvedReference("group", g.Name, name)
			}
		}
	}
	return nil
}

// checkHierarchy verifies the desired supergroup graph is acyclic. Edges to
// groups that exist only in current state cannot cycle because current
// attributes are not part of the desired graph.
func checkHierarchy(desired *model.Snapshot) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int)

	var path []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			// Close the cycle for the error message.
			cycle := append([]string{}, path...)
			for i, n := range cycle {
				if n == name {
					cycle = cycle[i:]
					break
				}
			}
			return serrors.NewHierarchy(append(cycle, name))
		case done:
			return nil
		}
		state[name] = visiting
		path = append(path, name)
		if g := desired.Group(name); g != nil {
			for _, parent := range g.GroupNames {
				if desired.HasGroup(parent) {
					if err := visit(parent); err != nil {
						return err
					}
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, g := range desired.Groups() {
		if err := visit(g.Name); err != nil {
			return err
		}
	}
	return nil
}

// groupDiffFields lists the comparable group attributes that differ.
// Membership is handled separately and never considered here.
func groupDiffFields(want, have *model.Group) []string {
	var fields []string
	if want.DisplayName != have.DisplayName {
		fields = append(fields, "displayName")
	}
	if want.Description != have.Description {
		fields = append(fields, "description")
	}
	if normalizeVisibility(want.Visibility) != normalizeVisibility(have.Visibility) {
		fields = append(fields, "visibility")
	}
	if !setsEqual(stringSet(want.Privileges), stringSet(have.Privileges)) {
		fields = append(fields, "privileges")
	}
	if !setsEqual(stringSet(want.GroupNames), stringSet(have.GroupNames)) {
		fields = append(fields, "supergroups")
	}
	return fields
}

// userDiffFields lists the comparable non-membership user attributes that
// differ. Passwords are create-only and never trigger an update.
func userDiffFields(want, have *model.User) []string {
	var fields []string
	if want.DisplayName != have.DisplayName {
		fields = append(fields, "displayName")
	}
	if want.Email != have.Email {
		fields = append(fields, "mail")
	}
	if normalizeVisibility(want.Visibility) != normalizeVisibility(have.Visibility) {
		fields = append(fields, "visibility")
	}
	if !mapsEqual(want.Properties, have.Properties) {
		fields = append(fields, "properties")
	}
	return fields
}

func normalizeVisibility(v model.Visibility) model.Visibility {
	if v == "" {
		return model.VisibilityDefault
	}
	return v
}

func stringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
