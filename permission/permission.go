package permission

// Tag is a capability gating a UI action or view. The set of tags is closed;
// unknown strings never grant anything.
type Tag string

const (
	// TagView grants read access to dashboards and inventories.
	TagView Tag = "view"
	// TagScan grants launching inventory scans.
	TagScan Tag = "scan"
	// TagEdit grants mutating missions and inventory records.
	TagEdit Tag = "edit"
	// TagExport grants submitting export jobs and downloading artifacts.
	TagExport Tag = "export"
	// TagUserManagement grants user administration views.
	TagUserManagement Tag = "user_management"
	// TagMissionManagement grants mission administration views.
	TagMissionManagement Tag = "mission_management"
	// TagAdmin is the universal override: a principal holding it passes every
	// permission check.
	TagAdmin Tag = "admin"
)

// Tags lists every valid tag. The slice is ordered for stable iteration in
// tests and diagnostics; callers must not mutate it.
var Tags = []Tag{
	TagView,
	TagScan,
	TagEdit,
	TagExport,
	TagUserManagement,
	TagMissionManagement,
	TagAdmin,
}

// Valid reports whether t belongs to the closed tag set.
func (t Tag) Valid() bool {
	switch t {
	case TagView, TagScan, TagEdit, TagExport,
		TagUserManagement, TagMissionManagement, TagAdmin:
		return true
	}
	return false
}

// Role is the coarse-grained identity classification issued by the server.
type Role string

const (
	// RoleAdmin passes every permission check regardless of explicit tags.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin is the organization-scoped administrative role.
	RoleSuperAdmin Role = "super_admin"
	// RoleAuditorSenior is an exported role constant.
	RoleAuditorSenior Role = "auditor_senior"
	// RoleAuditor is an exported role constant.
	RoleAuditor Role = "auditor"
	// RoleViewerClient is the client-side read-only role.
	RoleViewerClient Role = "viewer_client"
	// RoleViewerInternal is the internal read-only role.
	RoleViewerInternal Role = "viewer_internal"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleAuditorSenior, RoleAuditor,
		RoleViewerClient, RoleViewerInternal:
		return true
	}
	return false
}

// Set is an unordered collection of tags.
type Set map[Tag]struct{}

// NewSet builds a Set from tags, silently dropping invalid ones so a server
// that starts issuing unknown tags cannot widen a principal's capabilities.
func NewSet(tags ...Tag) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		if t.Valid() {
			s[t] = struct{}{}
		}
	}
	return s
}

// Has reports whether the set contains t.
func (s Set) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Slice returns the tags in registration order of the closed set.
func (s Set) Slice() []Tag {
	out := make([]Tag, 0, len(s))
	for _, t := range Tags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// roleDefaults is the single source of truth mapping a role to its implied
// permission set. The server's explicit tags on a principal take precedence;
// these defaults only back-fill principals issued without tags.
var roleDefaults = map[Role][]Tag{
	RoleAdmin:          {TagAdmin},
	RoleSuperAdmin:     {TagView, TagScan, TagEdit, TagExport, TagUserManagement, TagMissionManagement},
	RoleAuditorSenior:  {TagView, TagScan, TagEdit, TagExport, TagMissionManagement},
	RoleAuditor:        {TagView, TagScan, TagEdit, TagExport},
	RoleViewerClient:   {TagView},
	RoleViewerInternal: {TagView, TagExport},
}

// DefaultTags returns the permission set implied by a role. Unknown roles
// imply nothing.
func DefaultTags(r Role) Set {
	return NewSet(roleDefaults[r]...)
}
