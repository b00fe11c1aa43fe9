package session

import (
	"errors"
	"time"
)

var (
	nowFunc = time.Now

	ErrStopped   = errors.New("session: stopped")
	ErrKickedOut = errors.New("session: kicked out")
)

const (
	// PlatformKey holds the platform a session was created for
	PlatformKey = "__platformKey"
	// PrincipalsKey holds the principals of the authenticated account
	PrincipalsKey = "__principalsKey"
	// KickedOutKey marks a session replaced by a newer login
	KickedOutKey = "__kickedOutKey"

	DefaultPlatform = "universal"
)
