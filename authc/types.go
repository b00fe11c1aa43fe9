package authc

import (
	"context"
	"time"
)

type (
	// A Token is a consolidation of an account's principals and
	// supporting credentials submitted by a user during an authentication attempt.
	// Its kind is its concrete type, see KindOf.
	Token interface {
		// Principal being authenticated
		Principal() string
		// Credentials that prove the identity of the Principal
		Credentials() string
	}

	// Principal is a single identifying attribute of an account,
	// e.g. {Kind: "username", Value: "archer"}
	Principal struct {
		Kind  string `json:"kind" yaml:"kind"`
		Value string `json:"value" yaml:"value"`
	}

	// AuthenticationInfo is the identity record produced by realms
	AuthenticationInfo interface {
		// Principal returns the primary principal value, empty if none
		Principal() string
		// Principals returns every principal in the order they were added
		Principals() []Principal
		// Credentials returns the credential evidence backing the principals
		Credentials() []string
	}

	// A Realm is a pluggable identity source
	Realm interface {
		// Name identifies the realm in logs, metrics and errors
		Name() string
		// Supports returns true if the specified Token can be handled by this Realm, false otherwise
		Supports(Token) bool
		// LoadAuthenticationInfo returns the account information for the specified token.
		// A nil info with a nil error means the account is unknown to this realm.
		LoadAuthenticationInfo(context.Context, Token) (AuthenticationInfo, error)
	}

	// LogoutAware allowing cleanup logic to be executed during
	// logout of a previously authenticated user
	LogoutAware interface {
		// Logout triggered when a user logs out of the system
		Logout(context.Context, AuthenticationInfo)
	}

	// An Authenticator is responsible for authenticating accounts in an application
	Authenticator interface {
		// Authenticate a user based on the submitted Token
		Authenticate(context.Context, Token) (AuthenticationInfo, error)
	}

	// Strategy decides what a successful multi-realm attempt means.
	// Strategies are shared by concurrent attempts and must not keep per-attempt state.
	Strategy interface {
		// BeforeAttempt is called before a supporting realm is consulted.
		// A non-nil error aborts the whole authentication attempt.
		BeforeAttempt(context.Context, Realm, Token) error
		// AfterAttempt is called with the outcome of a single realm.
		// A non-nil error aborts the whole authentication attempt.
		AfterAttempt(context.Context, Realm, Token, Attempt) error
		// AfterAllAttempts renders the final verdict once every realm was consulted.
		AfterAllAttempts(context.Context, Token, AuthenticationInfo, []Attempt) error
	}

	// InfoFactory creates the aggregate info of a multi-realm attempt
	InfoFactory func(Token) AuthenticationInfo

	// Merger folds the info of a single realm into the aggregate.
	// It is paired with InfoFactory: a custom aggregate needs a custom Merger.
	Merger func(aggregate AuthenticationInfo, single AuthenticationInfo)

	// Metrics observes authentication outcomes. A nil Metrics disables recording.
	Metrics interface {
		// ObserveAuthentication records a finished Authenticate call
		ObserveAuthentication(mode string, duration time.Duration, err error)
		// ObserveRealmAttempt records one consulted realm of a multi-realm attempt
		ObserveRealmAttempt(realm string, attempt Attempt)
	}
)
