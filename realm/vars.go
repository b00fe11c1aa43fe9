package realm

import "errors"

const (
	// KindRole is the principal kind carrying role names
	KindRole = "role"
	// KindAuthority is the principal kind carrying authority names
	KindAuthority = "authority"
)

var (
	ErrIncorrectCredentials = errors.New("realm: incorrect credentials")
	ErrDuplicateAccount     = errors.New("realm: account already exists")
	ErrInvalidBearer        = errors.New("realm: invalid bearer token")
)
