package models

import "testing"

func TestCanDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role string
		want bool
	}{
		{RoleMember, false},
		{RoleSupervisor, true},
		{RoleAdmin, true},
		{"", false},
	}

	for _, tt := range tests {
		user := &User{Role: tt.role}
		if got := user.CanDecide(); got != tt.want {
			t.Errorf("CanDecide() with role %q = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	t.Parallel()

	for _, role := range []string{RoleMember, RoleSupervisor, RoleAdmin} {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false, want true", role)
		}
	}
	if IsValidRole("owner") {
		t.Error(`IsValidRole("owner") = true, want false`)
	}
}
