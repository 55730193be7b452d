package model

import (
	"encoding/json"
	"fmt"
)

// Principal type tags used on the wire. Every principal in the flat JSON
// array carries one, which is how users and groups are told apart.
const (
	TypeLocalUser  = "LOCAL_USER"
	TypeLocalGroup = "LOCAL_GROUP"
)

// principalWire is the union of user and group fields plus the type tag.
type principalWire struct {
	PrincipalTypeEnum string `json:"principalTypeEnum"`

	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	Mail        string            `json:"mail,omitempty"`
	Password    string            `json:"password,omitempty"`
	Description string            `json:"description,omitempty"`
	Visibility  Visibility        `json:"visibility,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	GroupNames  []string          `json:"groupNames"`
	Privileges  []string          `json:"privileges,omitempty"`
}

// MarshalPrincipals serializes a snapshot as a flat JSON array of
// principals, users first, then groups, each in insertion order.
func MarshalPrincipals(s *Snapshot) ([]byte, error) {
	principals := make([]principalWire, 0, s.UserCount()+s.GroupCount())

	for _, u := range s.Users() {
		principals = append(principals, principalWire{
			PrincipalTypeEnum: TypeLocalUser,
			ID:                u.ID,
			Name:              u.Name,
			DisplayName:       u.DisplayName,
			Mail:              u.Email,
			Password:          u.Password,
			Visibility:        u.Visibility,
			Properties:        u.Properties,
			GroupNames:        emptyIfNil(u.GroupNames),
		})
	}
	for _, g := range s.Groups() {
		principals = append(principals, principalWire{
			PrincipalTypeEnum: TypeLocalGroup,
			ID:                g.ID,
			Name:              g.Name,
			DisplayName:       g.DisplayName,
			Description:       g.Description,
			Visibility:        g.Visibility,
			Privileges:        g.Privileges,
			GroupNames:        emptyIfNil(g.GroupNames),
		})
	}

	return json.MarshalIndent(principals, "", "  ")
}

// ParsePrincipals parses a flat JSON array of principals into a snapshot.
// Principals with an unknown type tag are rejected.
func ParsePrincipals(data []byte, policy DuplicatePolicy) (*Snapshot, error) {
	var principals []principalWire
	if err := json.Unmarshal(data, &principals); err != nil {
		return nil, fmt.Errorf("parsing principals: %w", err)
	}

	snap := NewSnapshot()
	for i, p := range principals {
		switch p.PrincipalTypeEnum {
		case TypeLocalUser:
			u := NewUser(p.Name)
			u.ID = p.ID
			if p.DisplayName != "" {
				u.DisplayName = p.DisplayName
			}
			u.Email = p.Mail
			u.Password = p.Password
			if p.Visibility != "" {
				u.Visibility = p.Visibility
			}
			u.Properties = p.Properties
			for _, g := range p.GroupNames {
				u.AddGroup(g)
			}
			if err := snap.AddUser(u, policy); err != nil {
				return nil, err
			}
		case TypeLocalGroup:
			g := NewGroup(p.Name)
			g.ID = p.ID
			if p.DisplayName != "" {
				g.DisplayName = p.DisplayName
			}
			g.Description = p.Description
			if p.Visibility != "" {
				g.Visibility = p.Visibility
			}
			g.Privileges = p.Privileges
			for _, parent := range p.GroupNames {
				g.AddGroup(parent)
			}
			if err := snap.AddGroup(g, policy); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("principal %d (%q) has unknown type %q", i, p.Name, p.PrincipalTypeEnum)
		}
	}

	return snap, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
