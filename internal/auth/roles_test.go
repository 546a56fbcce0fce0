package auth

import "testing"

func TestOf(t *testing.T) {
	r := NewRoles("owner-1", []string{"admin-1", " admin-2 ", ""})

	cases := []struct {
		userID string
		want   Role
	}{
		{"owner-1", RoleOwner},
		{"admin-1", RoleAdmin},
		{"admin-2", RoleAdmin},
		{"stranger", RoleUser},
		{"", RoleUser},
	}
	for _, tc := range cases {
		if got := r.Of(tc.userID); got != tc.want {
			t.Errorf("Of(%q) = %v, want %v", tc.userID, got, tc.want)
		}
	}
}

func TestCanEditTitle(t *testing.T) {
	r := NewRoles("owner-1", []string{"admin-1"})
	const holderChat = "holder-chat"

	cases := []struct {
		name         string
		userID       string
		holderChatID string
		want         bool
	}{
		{"admin edits any title", "admin-1", holderChat, true},
		{"owner edits any title", "owner-1", holderChat, true},
		{"holder edits own title", holderChat, holderChat, true},
		{"regular user denied", "stranger", holderChat, false},
		{"holder of another title denied", "other-chat", holderChat, false},
		{"unlinked holder never matches", "stranger", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.CanEditTitle(tc.userID, tc.holderChatID); got != tc.want {
				t.Fatalf("CanEditTitle(%q, %q) = %v, want %v",
					tc.userID, tc.holderChatID, got, tc.want)
			}
		})
	}
}

func TestAdminGates(t *testing.T) {
	r := NewRoles("owner-1", []string{"admin-1"})

	if !r.CanManageMatches("admin-1") || !r.CanManageMatches("owner-1") {
		t.Fatal("admins must manage matches")
	}
	if r.CanManageMatches("stranger") {
		t.Fatal("regular user must not manage matches")
	}
	if !r.CanGrantCustomTitles("owner-1") || r.CanGrantCustomTitles("stranger") {
		t.Fatal("custom title grants are admin-only")
	}
}
