package authc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name string
		want Strategy
	}{
		{name: "", want: AllSuccessful()},
		{name: "all", want: AllSuccessful()},
		{name: "AtLeastOne", want: AtLeastOneSuccessful()},
		{name: " first ", want: FirstSuccessful()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StrategyByName(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := StrategyByName("majority")
	assert.Error(t, err)
}

func TestAllSuccessfulAfterAttempt(t *testing.T) {
	s := AllSuccessful()
	realm := newMockRealm("r1")
	tk := NewBearerToken("x")

	assert.NoError(t, s.AfterAttempt(context.TODO(), realm, tk, Attempt{Realm: "r1", Info: NewAuthenticationInfo("user", "a")}))
	assert.ErrorIs(t, s.AfterAttempt(context.TODO(), realm, tk, Attempt{Realm: "r1"}), ErrUnknownAccount)

	fault := &RealmError{Realm: "r1", Err: errBackend}
	assert.ErrorIs(t, s.AfterAttempt(context.TODO(), realm, tk, Attempt{Realm: "r1", Err: fault}), errBackend)
}

func TestAtLeastOneAfterAllAttempts(t *testing.T) {
	s := AtLeastOneSuccessful()
	tk := NewBearerToken("x")

	err := s.AfterAllAttempts(context.TODO(), tk, &SimpleAuthenticationInfo{}, nil)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	err = s.AfterAllAttempts(context.TODO(), tk, &SimpleAuthenticationInfo{}, []Attempt{
		{Realm: "r1", Err: &RealmError{Realm: "r1", Err: errBackend}},
		{Realm: "r2", Info: NewAuthenticationInfo("user", "a")},
	})
	assert.NoError(t, err)
}

func TestFirstSuccessfulSignalsStop(t *testing.T) {
	s := FirstSuccessful()
	tk := NewBearerToken("x")

	err := s.AfterAttempt(context.TODO(), newMockRealm("r1"), tk, Attempt{Info: NewAuthenticationInfo("user", "a")})
	assert.True(t, errors.Is(err, ErrStopAttempts))
	assert.NoError(t, s.AfterAttempt(context.TODO(), newMockRealm("r1"), tk, Attempt{}))
}

func TestRealmErrorUnwraps(t *testing.T) {
	err := &RealmError{Realm: "ldap", Err: errBackend}
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, err.Error(), "ldap")
}
