package security

import "errors"

var (
	ErrIncompleteBuilder = errors.New("security: authenticator, authorizer and repository are required")
)
