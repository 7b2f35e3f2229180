package identity

import "testing"

func TestResolve(t *testing.T) {
	r := NewResolver([]string{"Arfaa", "Sanny"})

	cases := []struct {
		name string
		want Role
	}{
		{"Arfaa", RoleAdmin},
		{"Sanny", RoleAdmin},
		{"sanny", RoleAdmin}, // allow-list match is case-insensitive
		{" Sanny ", RoleAdmin},
		{"Guest", RoleGuest},
		{"", RoleGuest},
	}
	for _, c := range cases {
		if got := r.Resolve(c.name); got != c.want {
			t.Errorf("Resolve(%q): got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestNewResolverDropsBlankEntries(t *testing.T) {
	r := NewResolver([]string{"", "  ", "Sanny"})
	if got := r.Resolve(""); got != RoleGuest {
		t.Errorf("empty name resolved to %q, want guest", got)
	}
	if got := r.Resolve("Sanny"); got != RoleAdmin {
		t.Errorf("Sanny resolved to %q, want admin", got)
	}
}

func TestCanDeletePost(t *testing.T) {
	r := NewResolver([]string{"Sanny"})

	if !r.CanDeletePost("Sanny", "Bob") {
		t.Error("admin should be able to delete any post")
	}
	if !r.CanDeletePost("Bob", "Bob") {
		t.Error("author should be able to delete own post")
	}
	if r.CanDeletePost("Carol", "Bob") {
		t.Error("unrelated guest must not delete someone else's post")
	}
}

func TestCanModerateComment(t *testing.T) {
	r := NewResolver([]string{"Sanny"})

	if !r.CanModerateComment("Sanny") {
		t.Error("admin should moderate comments")
	}
	if r.CanModerateComment("Bob") {
		t.Error("guest must not moderate comments, even on own post")
	}
}
