// Package identity resolves asserted display names to roles and holds the
// moderation rules derived from them. Names are self-asserted and unverified;
// a role says what the allow-list grants the name, nothing more.
package identity

import "strings"

// Role is the capability level derived from a display name.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// Resolver maps display names to roles against a static admin allow-list.
type Resolver struct {
	admins []string
}

// NewResolver builds a Resolver from the configured admin display names.
func NewResolver(admins []string) *Resolver {
	trimmed := make([]string, 0, len(admins))
	for _, a := range admins {
		if s := strings.TrimSpace(a); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	return &Resolver{admins: trimmed}
}

// Resolve returns the role granted to name. Comparison is case-insensitive,
// matching how the admin list is checked throughout the API.
func (r *Resolver) Resolve(name string) Role {
	name = strings.TrimSpace(name)
	for _, a := range r.admins {
		if strings.EqualFold(a, name) {
			return RoleAdmin
		}
	}
	return RoleGuest
}

// CanDeletePost reports whether requester may delete a post owned by author.
func (r *Resolver) CanDeletePost(requester, author string) bool {
	return r.Resolve(requester) == RoleAdmin || requester == author
}

// CanModerateComment reports whether requester may delete comments.
func (r *Resolver) CanModerateComment(requester string) bool {
	return r.Resolve(requester) == RoleAdmin
}
