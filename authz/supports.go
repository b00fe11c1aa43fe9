package authz

import "strings"

type (
	role string

	// authority supports wildcard parts, e.g. "user:*" implies "user:read"
	authority string
)

var _ Role = (*role)(nil)

func NewRole(name string) Role {
	return role(name)
}

func (r role) Desc() string {
	return string(r)
}

func (r role) Implies(role Role) bool {
	return r.Desc() == role.Desc()
}

var _ Authority = (*authority)(nil)

func NewAuthority(name string) Authority {
	return authority(name)
}

func (a authority) Desc() string {
	return string(a)
}

func (a authority) Implies(other Authority) bool {
	granted := strings.Split(a.Desc(), ":")
	wanted := strings.Split(other.Desc(), ":")

	for i, part := range granted {
		if part == "*" {
			return true
		}
		if i >= len(wanted) || part != wanted[i] {
			return false
		}
	}

	return len(granted) == len(wanted)
}
