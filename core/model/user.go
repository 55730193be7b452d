package model

import "strings"

// Visibility controls whether a principal can be seen for sharing.
type Visibility string

const (
	// VisibilityDefault makes the principal visible for sharing.
	VisibilityDefault Visibility = "DEFAULT"
	// VisibilityNonShareable hides the principal from sharing dialogs.
	// The wire value is spelled without the "e" by the platform.
	VisibilityNonShareable Visibility = "NON_SHARABLE"
)

// User represents a platform user.
type User struct {
	// ID is the platform-assigned identifier. Empty for users that have not
	// been created yet; never used as a join key for syncing.
	ID string `json:"id,omitempty"`

	// Name is the login name. It is the stable join key across systems.
	Name string `json:"name"`

	// DisplayName is the name shown in the UI. Defaults to Name.
	DisplayName string `json:"displayName"`

	// Email is the user's mail address.
	Email string `json:"mail,omitempty"`

	// Password is only meaningful when creating a user or when password
	// updates are requested. Never returned by the platform.
	Password string `json:"password,omitempty"`

	// Visibility controls sharing visibility.
	Visibility Visibility `json:"visibility,omitempty"`

	// Properties holds arbitrary adapter-specific attributes that ride along
	// with the user but are not interpreted by the sync engine.
	Properties map[string]string `json:"properties,omitempty"`

	// GroupNames lists the groups this user belongs to, by name.
	GroupNames []string `json:"groupNames"`
}

// NewUser creates a user with the display name defaulted to the login name.
func NewUser(name string) *User {
	name = strings.TrimSpace(name)
	return &User{
		Name:        name,
		DisplayName: name,
		Visibility:  VisibilityDefault,
		GroupNames:  []string{},
	}
}

// AddGroup adds a group membership by name. Duplicates are ignored.
func (u *User) AddGroup(name string) {
	for _, g := range u.GroupNames {
		if g == name {
			return
		}
	}
	u.GroupNames = append(u.GroupNames, name)
}

// HasGroup reports whether the user lists the given group membership.
func (u *User) HasGroup(name string) bool {
	for _, g := range u.GroupNames {
		if g == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.GroupNames = append([]string(nil), u.GroupNames...)
	if u.Properties != nil {
		c.Properties = make(map[string]string, len(u.Properties))
		for k, v := range u.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}
