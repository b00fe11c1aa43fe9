package authz

import (
	"context"

	"github.com/shrinex/bastion/authc"
)

type (
	Role interface {
		Desc() string
		Implies(Role) bool
	}

	Authority interface {
		Desc() string
		Implies(Authority) bool
	}

	// Realm loads the roles and authorities granted to an authenticated account
	Realm interface {
		LoadRoles(context.Context, authc.AuthenticationInfo) ([]Role, error)
		LoadAuthorities(context.Context, authc.AuthenticationInfo) ([]Authority, error)
	}

	Authorizer interface {
		HasRole(context.Context, authc.AuthenticationInfo, Role) bool
		HasAnyRole(context.Context, authc.AuthenticationInfo, ...Role) bool
		HasAllRole(context.Context, authc.AuthenticationInfo, ...Role) bool

		HasAuthority(context.Context, authc.AuthenticationInfo, Authority) bool
		HasAnyAuthority(context.Context, authc.AuthenticationInfo, ...Authority) bool
		HasAllAuthority(context.Context, authc.AuthenticationInfo, ...Authority) bool
	}
)
