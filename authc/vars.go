package authc

import (
	"errors"
	"fmt"
)

const (
	ModeSingle = "single"
	ModeMulti  = "multi"

	KindUsername = "username"
	KindSubject  = "subject"
)

var (
	ErrInvalidToken = errors.New("authc: invalid token")
	// ErrNoRealms is a configuration error, raised before any realm is touched
	ErrNoRealms = errors.New("authc: no realms configured")
	// ErrUnsupportedToken is raised when the single configured realm can not handle a token
	ErrUnsupportedToken = errors.New("authc: unsupported token")
	// ErrUnknownAccount means the submitted token does not resolve to any account
	ErrUnknownAccount = errors.New("authc: unknown account")
	// ErrAuthenticationFailed is the verdict of a strategy rejecting a multi-realm attempt
	ErrAuthenticationFailed = errors.New("authc: authentication failed")
	ErrUnauthenticated      = errors.New("authc: unauthenticated")
	// ErrStopAttempts may be returned by Strategy.AfterAttempt to end the scan
	// early without failing, the remaining realms are not consulted
	ErrStopAttempts = errors.New("authc: stop attempts")
)

// RealmError is a fault raised by a realm during a multi-realm attempt
type RealmError struct {
	Realm string
	Err   error
}

func (e *RealmError) Error() string {
	return fmt.Sprintf("realm %q: %v", e.Realm, e.Err)
}

func (e *RealmError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of token, which is its concrete type
func KindOf(token Token) string {
	return fmt.Sprintf("%T", token)
}
