package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfile(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	p, err := NewProfile("u-1", "  Ada@Example.com ", RoleCustomer, now)

	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, RoleCustomer, p.Role)
	assert.Nil(t, p.FullName)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestNewProfile_Invalid(t *testing.T) {
	now := time.Now()

	_, err := NewProfile("", "a@b.io", RoleCustomer, now)
	assert.EqualError(t, err, "user ID is required")

	_, err = NewProfile("u-1", "", RoleCustomer, now)
	assert.EqualError(t, err, "email is required")

	_, err = NewProfile("u-1", "a@b.io", Role("agent"), now)
	assert.EqualError(t, err, "invalid role: agent")
}

func TestRole(t *testing.T) {
	r, err := NewRole("admin")
	require.NoError(t, err)
	assert.True(t, r.IsAdmin())
	assert.Equal(t, "/admin", r.HomePath())
	assert.Equal(t, "/customer", RoleCustomer.HomePath())

	_, err = NewRole("root")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	name := "Ada Lovelace"
	p := &Profile{Email: "ada@example.com"}
	assert.Equal(t, "ada@example.com", p.DisplayName())

	p.FullName = &name
	assert.Equal(t, "Ada Lovelace", p.DisplayName())
}

func TestIndexByID(t *testing.T) {
	idx := IndexByID([]*Profile{{ID: "a"}, {ID: "b"}})
	assert.Len(t, idx, 2)
	assert.Equal(t, "b", idx["b"].ID)
}
