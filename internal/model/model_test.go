package model

import "testing"

func TestRole_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleDeveloper, true},
		{RoleAdmin, true},
		{Role(""), false},
		{Role("superuser"), false},
		{Role("Admin"), false},
	}

	for _, tt := range tests {
		if got := tt.role.IsValid(); got != tt.want {
			t.Errorf("Role(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestHTTPMethod_IsValid(t *testing.T) {
	t.Parallel()

	for _, m := range ValidMethods {
		if !m.IsValid() {
			t.Errorf("expected %q to be valid", m)
		}
	}

	for _, m := range []HTTPMethod{"", "get", "HEAD", "OPTIONS"} {
		if m.IsValid() {
			t.Errorf("expected %q to be invalid", m)
		}
	}
}

func TestAPIType_IsValid(t *testing.T) {
	t.Parallel()

	if !APITypePartner.IsValid() {
		t.Error("partner should be a valid API type")
	}
	if APIType("public").IsValid() {
		t.Error("public should not be a valid API type")
	}
}

func TestNotificationType_IsValid(t *testing.T) {
	t.Parallel()

	if !NotificationWarning.IsValid() {
		t.Error("warning should be valid")
	}
	if NotificationType("critical").IsValid() {
		t.Error("critical should not be valid")
	}
}

func TestActor_IsAdmin(t *testing.T) {
	t.Parallel()

	var nilActor *Actor
	if nilActor.IsAdmin() {
		t.Error("nil actor must not be admin")
	}

	u := &User{ID: "u1", Role: RoleAdmin}
	if !u.Actor().IsAdmin() {
		t.Error("admin user should produce admin actor")
	}

	dev := &User{ID: "u2", Role: RoleDeveloper}
	if dev.Actor().IsAdmin() {
		t.Error("developer must not be admin")
	}
}

func TestUser_Summary(t *testing.T) {
	t.Parallel()

	u := &User{ID: "u1", Name: "Ada", Email: "ada@example.com", Password: "secret"}
	ref := u.Summary()

	if ref.ID != "u1" || ref.Name != "Ada" || ref.Email != "ada@example.com" {
		t.Errorf("unexpected summary: %+v", ref)
	}
}
