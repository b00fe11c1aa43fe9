package authc

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type (
	allSuccessful struct{}

	atLeastOneSuccessful struct{}

	firstSuccessful struct {
		atLeastOneSuccessful
	}
)

var (
	_ Strategy = (*allSuccessful)(nil)
	_ Strategy = (*atLeastOneSuccessful)(nil)
	_ Strategy = (*firstSuccessful)(nil)
)

// AllSuccessful requires every realm supporting the token to authenticate it.
// The first unsuccessful realm aborts the attempt.
func AllSuccessful() Strategy {
	return allSuccessful{}
}

// AtLeastOneSuccessful consults every supporting realm and succeeds when at
// least one of them authenticated the token.
func AtLeastOneSuccessful() Strategy {
	return atLeastOneSuccessful{}
}

// FirstSuccessful behaves like AtLeastOneSuccessful but stops consulting
// realms once one of them authenticated the token.
func FirstSuccessful() Strategy {
	return firstSuccessful{}
}

// StrategyByName resolves "all", "atleastone" or "first"
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all", "allsuccessful":
		return AllSuccessful(), nil
	case "atleastone", "atleastonesuccessful":
		return AtLeastOneSuccessful(), nil
	case "first", "firstsuccessful":
		return FirstSuccessful(), nil
	default:
		return nil, fmt.Errorf("authc: unknown strategy %q", name)
	}
}

func (allSuccessful) BeforeAttempt(context.Context, Realm, Token) error {
	return nil
}

func (allSuccessful) AfterAttempt(_ context.Context, realm Realm, token Token, a Attempt) error {
	if a.Err != nil {
		return fmt.Errorf("%w: realm %q failed: %w", ErrAuthenticationFailed, realm.Name(), a.Err)
	}

	if a.Info == nil {
		return fmt.Errorf("%w: realm %q: %w for %s", ErrAuthenticationFailed, realm.Name(), ErrUnknownAccount, KindOf(token))
	}

	return nil
}

func (allSuccessful) AfterAllAttempts(_ context.Context, token Token, _ AuthenticationInfo, attempts []Attempt) error {
	if len(attempts) == 0 {
		return fmt.Errorf("%w: no realm supports tokens of type %s", ErrAuthenticationFailed, KindOf(token))
	}

	return nil
}

func (atLeastOneSuccessful) BeforeAttempt(context.Context, Realm, Token) error {
	return nil
}

func (atLeastOneSuccessful) AfterAttempt(context.Context, Realm, Token, Attempt) error {
	return nil
}

func (atLeastOneSuccessful) AfterAllAttempts(_ context.Context, token Token, _ AuthenticationInfo, attempts []Attempt) error {
	faults := make([]error, 0)
	for _, a := range attempts {
		if a.Succeeded() {
			return nil
		}
		if a.Err != nil {
			faults = append(faults, a.Err)
		}
	}

	err := fmt.Errorf("%w: none of %d realm(s) authenticated %s", ErrAuthenticationFailed, len(attempts), KindOf(token))
	if len(faults) == 0 {
		return err
	}

	return errors.Join(append([]error{err}, faults...)...)
}

func (firstSuccessful) AfterAttempt(_ context.Context, _ Realm, _ Token, a Attempt) error {
	if a.Succeeded() {
		return ErrStopAttempts
	}

	return nil
}
