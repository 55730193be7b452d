package model

import "strings"

// Group privileges understood by the platform. Groups may carry any subset.
const (
	PrivilegeAdministration = "ADMINISTRATION"
	PrivilegeDeveloper      = "DEVELOPER"
	PrivilegeDataManagement = "DATAMANAGEMENT"
	PrivilegeDataUpload     = "USERDATAUPLOADING"
	PrivilegeDataDownload   = "DATADOWNLOADING"
	PrivilegeJobScheduling  = "JOBSCHEDULING"
	PrivilegeShareWithAll   = "SHAREWITHALL"
	PrivilegeBypassRLS      = "BYPASSRLS"
)

// Group represents a platform group. Groups may belong to other groups,
// forming a hierarchy that must stay acyclic.
type Group struct {
	// ID is the platform-assigned identifier, empty until created.
	ID string `json:"id,omitempty"`

	// Name is the unique group name, the stable join key across systems.
	Name string `json:"name"`

	// DisplayName is the name shown in the UI. Defaults to Name.
	DisplayName string `json:"displayName"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// Visibility controls sharing visibility.
	Visibility Visibility `json:"visibility,omitempty"`

	// Privileges is the set of capability tags granted to members.
	Privileges []string `json:"privileges,omitempty"`

	// GroupNames lists the supergroups this group belongs to, by name.
	GroupNames []string `json:"groupNames"`
}

// NewGroup creates a group with the display name defaulted to the group name.
func NewGroup(name string) *Group {
	name = strings.TrimSpace(name)
	return &Group{
		Name:        name,
		DisplayName: name,
		Visibility:  VisibilityDefault,
		GroupNames:  []string{},
	}
}

// AddGroup adds a supergroup by name. Duplicates are ignored.
func (g *Group) AddGroup(name string) {
	for _, p := range g.GroupNames {
		if p == name {
			return
		}
	}
	g.GroupNames = append(g.GroupNames, name)
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.Privileges = append([]string(nil), g.Privileges...)
	c.GroupNames = append([]string(nil), g.GroupNames...)
	return &c
}
