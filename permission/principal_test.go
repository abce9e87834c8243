package permission

import "testing"

func TestAllowedNilPrincipal(t *testing.T) {
	for _, tag := range Tags {
		if Allowed(nil, tag) {
			t.Fatalf("nil principal allowed %q", tag)
		}
	}
	if Allowed(nil, Tag("bogus")) {
		t.Fatal("nil principal allowed unknown tag")
	}
}

func TestAllowedAdminOverrides(t *testing.T) {
	byRole := NewPrincipal("u1", "Root", "root@example.com", RoleAdmin, nil, "org1")
	byTag := NewPrincipal("u2", "Ops", "ops@example.com", RoleAuditor, []Tag{TagAdmin}, "org1")

	for _, p := range []*Principal{byRole, byTag} {
		for _, tag := range Tags {
			if !Allowed(p, tag) {
				t.Fatalf("principal %s denied %q despite admin override", p.ID, tag)
			}
		}
	}
}

func TestAllowedExplicitTags(t *testing.T) {
	p := NewPrincipal("u3", "Viewer", "v@example.com", RoleViewerClient, []Tag{TagView, TagExport}, "org1")

	if !Allowed(p, TagView) || !Allowed(p, TagExport) {
		t.Fatal("explicit tags denied")
	}
	if Allowed(p, TagEdit) {
		t.Fatal("unheld tag granted")
	}
	if Allowed(p, Tag("bogus")) {
		t.Fatal("unknown tag granted")
	}
}

func TestAllowedIsReferentiallyTransparent(t *testing.T) {
	p := NewPrincipal("u4", "Aud", "a@example.com", RoleAuditor, nil, "org1")
	first := Allowed(p, TagScan)
	for i := 0; i < 100; i++ {
		if Allowed(p, TagScan) != first {
			t.Fatal("evaluation result changed between identical calls")
		}
	}
}

func TestRoleDefaultsBackfill(t *testing.T) {
	p := NewPrincipal("u5", "Aud", "a@example.com", RoleAuditor, nil, "org1")
	for _, tag := range []Tag{TagView, TagScan, TagEdit, TagExport} {
		if !Allowed(p, tag) {
			t.Fatalf("auditor default set missing %q", tag)
		}
	}
	if Allowed(p, TagUserManagement) {
		t.Fatal("auditor granted user_management")
	}

	// Explicit tags must win over defaults, even when narrower.
	narrow := NewPrincipal("u6", "Aud", "a@example.com", RoleAuditor, []Tag{TagView}, "org1")
	if Allowed(narrow, TagEdit) {
		t.Fatal("explicit tag list widened by role defaults")
	}
}

func TestHasRole(t *testing.T) {
	p := NewPrincipal("u7", "Sen", "s@example.com", RoleAuditorSenior, nil, "org1")

	if HasRole(nil, RoleAdmin) {
		t.Fatal("nil principal matched a role")
	}
	if HasRole(p) {
		t.Fatal("empty role list matched")
	}
	if !HasRole(p, RoleAuditorSenior) {
		t.Fatal("own role not matched")
	}
	if !HasRole(p, RoleAdmin, RoleAuditorSenior) {
		t.Fatal("role list containing own role not matched")
	}
	if HasRole(p, RoleViewerClient, RoleViewerInternal) {
		t.Fatal("foreign roles matched")
	}
}

func TestSetDropsInvalidTags(t *testing.T) {
	s := NewSet(TagView, Tag("made_up"), TagScan)
	if len(s) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(s))
	}
	if s.Has(Tag("made_up")) {
		t.Fatal("invalid tag retained")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewPrincipal("u8", "V", "v@example.com", RoleViewerClient, nil, "org1")
	cp := p.Clone()
	cp.Permissions[TagAdmin] = struct{}{}
	if Allowed(p, TagEdit) {
		t.Fatal("mutating a clone affected the original principal")
	}
}
