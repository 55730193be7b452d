package model

import (
	"fmt"
	"strings"
)

// DuplicatePolicy controls what happens when a user or group is added to a
// snapshot under a name that is already present.
type DuplicatePolicy int

const (
	// DuplicateError rejects the addition with an error.
	DuplicateError DuplicatePolicy = iota
	// DuplicateIgnore keeps the existing entry and drops the new one.
	DuplicateIgnore
	// DuplicateOverwrite replaces the existing entry with the new one.
	DuplicateOverwrite
	// DuplicateMerge replaces the entry but carries over the existing group
	// memberships into the new one.
	DuplicateMerge
)

// Snapshot is the UsersAndGroups aggregate: the complete set of users and
// groups read from one source at one point in time. Lookups are by name;
// insertion order is preserved for deterministic output.
type Snapshot struct {
	users  map[string]*User
	groups map[string]*Group

	userOrder  []string
	groupOrder []string

	// id -> name indices, built lazily on first id lookup.
	userIDs  map[string]string
	groupIDs map[string]string
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		users:  make(map[string]*User),
		groups: make(map[string]*Group),
	}
}

func userKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddUser adds a user under its lower-cased login name.
func (s *Snapshot) AddUser(u *User, policy DuplicatePolicy) error {
	if u == nil || strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user has no name")
	}
	key := userKey(u.Name)
	existing, ok := s.users[key]
	if !ok {
		s.users[key] = u
		s.userOrder = append(s.userOrder, key)
		s.userIDs = nil
		return nil
	}

	switch policy {
	case DuplicateError:
		return fmt.Errorf("duplicate user %q", u.Name)
	case DuplicateIgnore:
		return nil
	case DuplicateOverwrite:
		s.users[key] = u
	case DuplicateMerge:
		for _, g := range existing.GroupNames {
			u.AddGroup(g)
		}
		s.users[key] = u
	default:
		return fmt.Errorf("unknown duplicate policy %d", policy)
	}
	s.userIDs = nil
	return nil
}

// User returns the user with the given login name, or nil.
func (s *Snapshot) User(name string) *User {
	return s.users[userKey(name)]
}

// HasUser reports whether a user with the given login name is present.
func (s *Snapshot) HasUser(name string) bool {
	_, ok := s.users[userKey(name)]
	return ok
}

// RemoveUser removes and returns the named user, or nil if absent.
func (s *Snapshot) RemoveUser(name string) *User {
	key := userKey(name)
	u, ok := s.users[key]
	if !ok {
		return nil
	}
	delete(s.users, key)
	for i, k := range s.userOrder {
		if k == key {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
	s.userIDs = nil
	return u
}

// Users returns all users in insertion order.
func (s *Snapshot) Users() []*User {
	out := make([]*User, 0, len(s.userOrder))
	for _, key := range s.userOrder {
		out = append(out, s.users[key])
	}
	return out
}

// UserCount returns the number of users.
func (s *Snapshot) UserCount() int {
	return len(s.users)
}

// AddGroup adds a group under its exact name.
func (s *Snapshot) AddGroup(g *Group, policy DuplicatePolicy) error {
	if g == nil || strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("group has no name")
	}
	key := g.Name
	existing, ok := s.groups[key]
	if !ok {
		s.groups[key] = g
		s.groupOrder = append(s.groupOrder, key)
		s.groupIDs = nil
		return nil
	}

	switch policy {
	case DuplicateError:
		return fmt.Errorf("duplicate group %q", g.Name)
	case DuplicateIgnore:
		return nil
	case DuplicateOverwrite:
		s.groups[key] = g
	case DuplicateMerge:
		for _, p := range g.GroupNames {
			existing.AddGroup(p)
		}
	default:
		return fmt.Errorf("unknown duplicate policy %d", policy)
	}
	s.groupIDs = nil
	return nil
}

// Group returns the group with the given name, or nil.
func (s *Snapshot) Group(name string) *Group {
	return s.groups[name]
}

// HasGroup reports whether a group with the given name is present.
func (s *Snapshot) HasGroup(name string) bool {
	_, ok := s.groups[name]
	return ok
}

// RemoveGroup removes and returns the named group, or nil if absent.
func (s *Snapshot) RemoveGroup(name string) *Group {
	g, ok := s.groups[name]
	if !ok {
		return nil
	}
	delete(s.groups, name)
	for i, k := range s.groupOrder {
		if k == name {
			s.groupOrder = append(s.groupOrder[:i], s.groupOrder[i+1:]...)
			break
		}
	}
	s.groupIDs = nil
	return g
}

// Groups returns all groups in insertion order.
func (s *Snapshot) Groups() []*Group {
	out := make([]*Group, 0, len(s.groupOrder))
	for _, key := range s.groupOrder {
		out = append(out, s.groups[key])
	}
	return out
}

// GroupCount returns the number of groups.
func (s *Snapshot) GroupCount() int {
	return len(s.groups)
}

// UserNameByID resolves a platform user id to a login name. The index is
// built on first use and rebuilt after any mutation.
func (s *Snapshot) UserNameByID(id string) (string, bool) {
	if s.userIDs == nil {
		s.userIDs = make(map[string]string, len(s.users))
		for _, u := range s.users {
			if u.ID != "" {
				s.userIDs[u.ID] = u.Name
			}
		}
	}
	name, ok := s.userIDs[id]
	return name, ok
}

// GroupNameByID resolves a platform group id to a group name.
func (s *Snapshot) GroupNameByID(id string) (string, bool) {
	if s.groupIDs == nil {
		s.groupIDs = make(map[string]string, len(s.groups))
		for _, g := range s.groups {
			if g.ID != "" {
				s.groupIDs[g.ID] = g.Name
			}
		}
	}
	name, ok := s.groupIDs[id]
	return name, ok
}

// Validate checks referential integrity within the snapshot: every group a
// user belongs to and every supergroup a group belongs to must exist. It
// returns one issue string per dangling reference.
func (s *Snapshot) Validate() []string {
	var issues []string
	for _, key := range s.userOrder {
		u := s.users[key]
		for _, g := range u.GroupNames {
			if !s.HasGroup(g) {
				issues = append(issues, fmt.Sprintf("group %q for user %q does not exist", g, u.Name))
			}
		}
	}
	for _, key := range s.groupOrder {
		g := s.groups[key]
		for _, p := range g.GroupNames {
			if !s.HasGroup(p) {
				issues = append(issues, fmt.Sprintf("parent group %q for group %q does not exist", p, g.Name))
			}
		}
	}
	return issues
}
