package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleMember, true},
		{RoleAdmin, RoleGuest, true},
		{RoleMember, RoleAdmin, false},
		{RoleMember, RoleMember, true},
		{RoleMember, RoleGuest, true},
		{RoleGuest, RoleAdmin, false},
		{RoleGuest, RoleMember, false},
		{RoleGuest, RoleGuest, true},
		// Unknown roles fail-closed.
		{"unknown", RoleGuest, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleGuest, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}
