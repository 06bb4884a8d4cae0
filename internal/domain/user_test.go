package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"user", RoleUser, true},
		{"admin", RoleAdmin, true},
		{" admin ", RoleAdmin, true},
		{"Admin", Role("Admin"), false},
		{"root", Role("root"), false},
		{"", Role(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUser_HasRole(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	user := &User{Role: RoleUser}

	assert.True(t, user.HasRole(), "empty role set admits everyone")
	assert.True(t, admin.HasRole(RoleAdmin))
	assert.False(t, user.HasRole(RoleAdmin))
	assert.True(t, user.HasRole(RoleAdmin, RoleUser))
	assert.True(t, admin.IsAdmin())
	assert.False(t, user.IsAdmin())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}

func TestTimestamps(t *testing.T) {
	var ts Timestamps
	ts.InitTimestamps()

	assert.False(t, ts.CreatedAt.IsZero())
	assert.Equal(t, ts.CreatedAt, ts.UpdatedAt)
	assert.Zero(t, ts.CreatedAt.Nanosecond()%1e6, "timestamps are truncated to milliseconds")

	before := ts.UpdatedAt
	ts.Touch()
	assert.False(t, ts.UpdatedAt.Before(before))
}
