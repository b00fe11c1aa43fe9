package authz

import (
	"context"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/internal/logger"
)

type (
	// authorizer grants a role or authority if any realm grants it.
	// A realm failing to load its grants is skipped.
	authorizer struct {
		realms []Realm
	}
)

var _ Authorizer = (*authorizer)(nil)

func NewAuthorizer(realms ...Realm) Authorizer {
	return &authorizer{realms: append([]Realm(nil), realms...)}
}

func (z *authorizer) HasRole(ctx context.Context, info authc.AuthenticationInfo, role Role) bool {
	if info == nil {
		return false
	}

	for _, r := range z.realms {
		roles, err := r.LoadRoles(ctx, info)
		if err != nil {
			logger.Warn("failed to load roles", logger.KeyPrincipal, info.Principal(), logger.KeyError, err)
			continue
		}

		for _, v := range roles {
			if v.Implies(role) {
				return true
			}
		}
	}

	return false
}

func (z *authorizer) HasAnyRole(ctx context.Context, info authc.AuthenticationInfo, roles ...Role) bool {
	for _, role := range roles {
		if z.HasRole(ctx, info, role) {
			return true
		}
	}

	return false
}

func (z *authorizer) HasAllRole(ctx context.Context, info authc.AuthenticationInfo, roles ...Role) bool {
	for _, role := range roles {
		if !z.HasRole(ctx, info, role) {
			return false
		}
	}

	return true
}

func (z *authorizer) HasAuthority(ctx context.Context, info authc.AuthenticationInfo, authority Authority) bool {
	if info == nil {
		return false
	}

	for _, r := range z.realms {
		authorities, err := r.LoadAuthorities(ctx, info)
		if err != nil {
			logger.Warn("failed to load authorities", logger.KeyPrincipal, info.Principal(), logger.KeyError, err)
			continue
		}

		for _, v := range authorities {
			if v.Implies(authority) {
				return true
			}
		}
	}

	return false
}

func (z *authorizer) HasAnyAuthority(ctx context.Context, info authc.AuthenticationInfo, authorities ...Authority) bool {
	for _, authority := range authorities {
		if z.HasAuthority(ctx, info, authority) {
			return true
		}
	}

	return false
}

func (z *authorizer) HasAllAuthority(ctx context.Context, info authc.AuthenticationInfo, authorities ...Authority) bool {
	for _, authority := range authorities {
		if !z.HasAuthority(ctx, info, authority) {
			return false
		}
	}

	return true
}
