package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shrinex/bastion/authc"
)

var mockInfo = authc.NewAuthenticationInfo(authc.KindUsername, "mockUd")

type mockRealm struct {
}

func (r *mockRealm) LoadRoles(ctx context.Context, info authc.AuthenticationInfo) ([]Role, error) {
	return []Role{role("a"), role("b"), role("c")}, nil
}

func (r *mockRealm) LoadAuthorities(ctx context.Context, info authc.AuthenticationInfo) ([]Authority, error) {
	return []Authority{authority("create"), authority("read"), authority("write"), authority("user:*")}, nil
}

type brokenRealm struct {
}

func (r *brokenRealm) LoadRoles(context.Context, authc.AuthenticationInfo) ([]Role, error) {
	return nil, errors.New("broken")
}

func (r *brokenRealm) LoadAuthorities(context.Context, authc.AuthenticationInfo) ([]Authority, error) {
	return nil, errors.New("broken")
}

func TestHasRole(t *testing.T) {
	azer := NewAuthorizer(&mockRealm{})

	assert.True(t, azer.HasRole(context.Background(), mockInfo, role("a")))
	assert.False(t, azer.HasRole(context.Background(), mockInfo, role("d")))
	assert.False(t, azer.HasRole(context.Background(), nil, role("a")))
}

func TestHasRoleSkipsBrokenRealm(t *testing.T) {
	azer := NewAuthorizer(&brokenRealm{}, &mockRealm{})

	assert.True(t, azer.HasRole(context.Background(), mockInfo, role("a")))
	assert.True(t, azer.HasAuthority(context.Background(), mockInfo, authority("read")))
}

func TestHasAnyRole(t *testing.T) {
	azer := NewAuthorizer(&mockRealm{})

	assert.True(t, azer.HasAnyRole(context.Background(), mockInfo, role("a"), role("c")))
	assert.True(t, azer.HasAnyRole(context.Background(), mockInfo, role("b"), role("d")))
	assert.False(t, azer.HasAnyRole(context.Background(), mockInfo, role("e"), role("f")))
}

func TestHasAllRole(t *testing.T) {
	azer := NewAuthorizer(&mockRealm{})

	assert.True(t, azer.HasAllRole(context.Background(), mockInfo, role("a"), role("c")))
	assert.False(t, azer.HasAllRole(context.Background(), mockInfo, role("b"), role("d")))
	assert.False(t, azer.HasAllRole(context.Background(), mockInfo, role("e"), role("f")))
}

func TestHasAuthority(t *testing.T) {
	azer := NewAuthorizer(&mockRealm{})

	assert.True(t, azer.HasAuthority(context.Background(), mockInfo, authority("create")))
	assert.False(t, azer.HasAuthority(context.Background(), mockInfo, authority("delete")))
}

func TestHasAnyAuthority(t *testing.T) {
	azer := NewAuthorizer(&mockRealm{})

	assert.True(t, azer.HasAnyAuthority(context.Background(), mockInfo, authority("create"), authority("delete")))
	assert.False(t, azer.HasAnyAuthority(context.Background(), mockInfo, authority("delete"), authority("clear")))
}

func TestHasAllAuthority(t *testing.T) {
	azer := NewAuthorizer(&mockRealm{})

	assert.True(t, azer.HasAllAuthority(context.Background(), mockInfo, authority("create"), authority("write")))
	assert.False(t, azer.HasAllAuthority(context.Background(), mockInfo, authority("read"), authority("delete")))
}

func TestWildcardAuthority(t *testing.T) {
	assert.True(t, authority("user:*").Implies(authority("user:read")))
	assert.True(t, authority("user:*").Implies(authority("user:read:self")))
	assert.False(t, authority("user:*").Implies(authority("order:read")))
	assert.True(t, authority("user:read").Implies(authority("user:read")))
	assert.False(t, authority("user:read").Implies(authority("user")))
	assert.False(t, authority("user").Implies(authority("user:read")))
}
