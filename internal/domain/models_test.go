package domain

import "testing"

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{Username: "alice"}, "alice"},
		{User{Username: "alice", FirstName: "Alice", LastName: "Smith"}, "alice"},
		{User{FirstName: "Alice", LastName: "Smith"}, "Alice Smith"},
		{User{FirstName: "Alice"}, "Alice"},
		{User{LastName: "Smith"}, "Smith"},
	}
	for _, c := range cases {
		if got := c.user.DisplayName(); got != c.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", c.user, got, c.want)
		}
	}
}

func TestMentionPrefixesUsername(t *testing.T) {
	if got := (User{Username: "alice"}).Mention(); got != "@alice" {
		t.Fatalf("Mention with username = %q, want %q", got, "@alice")
	}
	// No username means nothing to @-mention; fall back to the plain name.
	if got := (User{FirstName: "Alice", LastName: "Smith"}).Mention(); got != "Alice Smith" {
		t.Fatalf("Mention without username = %q, want %q", got, "Alice Smith")
	}
}
