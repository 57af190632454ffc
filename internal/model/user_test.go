package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("SGullin", "S. Gullin", "sg@example.org", true)
	require.NoError(t, err)

	assert.Equal(t, "sgullin", u.Username, "usernames are lowercased")
	assert.Equal(t, "S. Gullin", u.RealName)
	assert.Equal(t, "sg@example.org", u.Email)
	assert.True(t, u.IsAdmin)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Zero(t, u.ID())
}

func TestNewUser_UsernameRules(t *testing.T) {
	cases := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"minimum length", "abc", false},
		{"maximum length", "abcdefghijkl", false},
		{"too short", "ab", true},
		{"too long", "abcdefghijklm", true},
		{"whitespace", "a user", true},
		{"tab", "a\tuser", true},
		{"non-ascii", "påsktomte", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUser(tc.username, "Real Name", "a@b.c", false)
			if tc.wantErr {
				var malformed *MalformedInputError
				require.ErrorAs(t, err, &malformed)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewUser_EmailRules(t *testing.T) {
	cases := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"plain address", "user@example.org", false},
		{"subdomain", "user@mail.example.org", false},
		{"missing at", "user.example.org", true},
		{"dot before at", "user.name@example", true},
		{"no domain", "user@example", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUser("someone", "Real Name", tc.email, false)
			if tc.wantErr {
				var malformed *MalformedInputError
				require.ErrorAs(t, err, &malformed)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewUser_RealNameLength(t *testing.T) {
	_, err := NewUser("someone", "ab", "a@b.c", false)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
}
