// Package auth decides who may run which bot commands.
package auth

import "strings"

type Role int

const (
	RoleUser Role = iota
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	}
	return "user"
}

// Roles resolves chat user ids to roles from a static config list. Anyone not
// listed is a regular user.
type Roles struct {
	admins map[string]bool
	owner  string
}

// NewRoles takes the owner id and admin ids, typically from config. The owner
// is implicitly an admin.
func NewRoles(owner string, admins []string) *Roles {
	set := make(map[string]bool, len(admins))
	for _, id := range admins {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return &Roles{admins: set, owner: strings.TrimSpace(owner)}
}

func (r *Roles) Of(userID string) Role {
	if r.owner != "" && userID == r.owner {
		return RoleOwner
	}
	if r.admins[userID] {
		return RoleAdmin
	}
	return RoleUser
}

// CanManageMatches gates match removal and rating rebuilds.
func (r *Roles) CanManageMatches(userID string) bool {
	return r.Of(userID) >= RoleAdmin
}

// CanEditTitle allows admins to edit any title and every player to edit the
// text of a ranked title they currently hold.
func (r *Roles) CanEditTitle(userID string, holderChatID string) bool {
	if r.Of(userID) >= RoleAdmin {
		return true
	}
	return holderChatID != "" && userID == holderChatID
}

// CanGrantCustomTitles gates free-form title grants and revocations.
func (r *Roles) CanGrantCustomTitles(userID string) bool {
	return r.Of(userID) >= RoleAdmin
}
