package resource

import (
	"net/http"
	"slices"
)

// Permission names an action guarded by an ACL.
type Permission string

const (
	PermView   Permission = "view"
	PermEdit   Permission = "edit"
	PermSignup Permission = "signup"
	// PermAll matches every permission.
	PermAll Permission = "*"
)

// Principals every caller carries.
const (
	Everyone      = "system.Everyone"
	Authenticated = "system.Authenticated"
)

// Action is the outcome of a matching ACE.
type Action int

const (
	Allow Action = iota + 1
	Deny
)

// ACE is one access control entry.
type ACE struct {
	Action      Action
	Principal   string
	Permissions []Permission
}

func (a ACE) matches(principals []string, perm Permission) bool {
	if !slices.Contains(principals, a.Principal) {
		return false
	}
	return slices.Contains(a.Permissions, PermAll) || slices.Contains(a.Permissions, perm)
}

// ACL returns the node's own entries. Babies and entries have none and inherit from their user.
func (n Node) ACL() []ACE {
	switch n.Kind {
	case KindRoot:
		return []ACE{
			{Action: Allow, Principal: Everyone, Permissions: []Permission{PermSignup}},
			{Action: Deny, Principal: Everyone, Permissions: []Permission{PermAll}},
		}
	case KindUser:
		return []ACE{
			{Action: Allow, Principal: n.User.Email, Permissions: []Permission{PermView, PermEdit}},
			{Action: Deny, Principal: Everyone, Permissions: []Permission{PermAll}},
		}
	}
	return nil
}

// Principals returns the identities held by a caller authenticated as email. An empty email
// is an anonymous caller.
func Principals(email string) []string {
	if email == "" {
		return []string{Everyone}
	}
	return []string{Everyone, Authenticated, email}
}

// Authorize checks perm against the path's lineage from the context node up to the root. The
// first matching entry decides; a lineage with no match denies.
func Authorize(path Path, principals []string, perm Permission) error {
	for i := len(path.Nodes) - 1; i >= 0; i-- {
		for _, ace := range path.Nodes[i].ACL() {
			if !ace.matches(principals, perm) {
				continue
			}
			if ace.Action == Allow {
				return nil
			}
			return ErrForbidden
		}
	}
	return ErrForbidden
}

// Required returns the permission a method needs on path. Public views report "".
func Required(path Path, method string) Permission {
	if path.Context().Kind == KindRoot {
		switch path.View {
		case "@@signup":
			return PermSignup
		default:
			return ""
		}
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return PermView
	}
	return PermEdit
}

// MethodsFor lists the HTTP methods the API serves on path, ahead of OPTIONS.
func MethodsFor(path Path) []string {
	ctx := path.Context()
	switch ctx.Kind {
	case KindRoot:
		if path.View == "" {
			return []string{http.MethodGet}
		}
		return []string{http.MethodPost}
	case KindUser:
		if path.View == "" {
			return []string{http.MethodGet, http.MethodPut, http.MethodPost}
		}
	case KindBaby:
		switch path.View {
		case "":
			return []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPost}
		case "entries", "@@chart":
			return []string{http.MethodGet}
		}
	case KindEntry:
		if path.View == "" {
			return []string{http.MethodGet, http.MethodPut, http.MethodDelete}
		}
	}
	return nil
}
