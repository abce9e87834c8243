package permission

// Principal is an authenticated identity. It is immutable once issued: a
// re-authentication replaces the principal wholesale rather than mutating it.
type Principal struct {
	ID             string
	DisplayName    string
	Email          string
	Role           Role
	Permissions    Set
	OrganizationID string
}

// NewPrincipal builds a principal, back-filling the permission set from the
// role defaults when the server issued no explicit tags.
func NewPrincipal(id, displayName, email string, role Role, tags []Tag, orgID string) *Principal {
	set := NewSet(tags...)
	if len(set) == 0 {
		set = DefaultTags(role)
	}
	return &Principal{
		ID:             id,
		DisplayName:    displayName,
		Email:          email,
		Role:           role,
		Permissions:    set,
		OrganizationID: orgID,
	}
}

// Allowed reports whether the principal holds the given permission. A nil
// principal is always denied. The admin tag and the admin role are universal
// overrides granting every permission.
func Allowed(p *Principal, tag Tag) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin || p.Permissions.Has(TagAdmin) {
		return true
	}
	return tag.Valid() && p.Permissions.Has(tag)
}

// HasRole reports whether the principal's role matches any of the given
// roles. A nil principal or an empty role list is always false.
func HasRole(p *Principal, roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Allowed is the method form of the package-level evaluator.
func (p *Principal) Allowed(tag Tag) bool { return Allowed(p, tag) }

// HasRole is the method form of the package-level evaluator.
func (p *Principal) HasRole(roles ...Role) bool { return HasRole(p, roles...) }

// Clone returns an independent copy so callers can hold a snapshot without
// aliasing the session's permission set.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Permissions = p.Permissions.Clone()
	return &cp
}
