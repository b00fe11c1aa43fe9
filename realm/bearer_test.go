package realm

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/authz"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestBearerRealmAuthenticates(t *testing.T) {
	r := NewBearerRealm("jwt", BearerConfig{Key: testKey, Issuer: "bastion"})

	raw, err := r.Issue("alice", time.Minute, "admin")
	require.NoError(t, err)

	info, err := r.LoadAuthenticationInfo(context.TODO(), authc.NewBearerToken(raw))
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Principal())

	azer := authz.NewAuthorizer(r)
	assert.True(t, azer.HasRole(context.TODO(), info, authz.NewRole("admin")))
}

func TestBearerRealmRejectsExpired(t *testing.T) {
	r := NewBearerRealm("jwt", BearerConfig{Key: testKey})

	raw, err := r.Issue("alice", -time.Minute)
	require.NoError(t, err)

	_, err = r.LoadAuthenticationInfo(context.TODO(), authc.NewBearerToken(raw))
	assert.ErrorIs(t, err, ErrInvalidBearer)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestBearerRealmRejectsWrongIssuer(t *testing.T) {
	issuer := NewBearerRealm("a", BearerConfig{Key: testKey, Issuer: "other"})
	r := NewBearerRealm("jwt", BearerConfig{Key: testKey, Issuer: "bastion"})

	raw, err := issuer.Issue("alice", time.Minute)
	require.NoError(t, err)

	_, err = r.LoadAuthenticationInfo(context.TODO(), authc.NewBearerToken(raw))
	assert.ErrorIs(t, err, ErrInvalidBearer)
}

func TestBearerRealmRejectsForeignKey(t *testing.T) {
	issuer := NewBearerRealm("a", BearerConfig{Key: []byte("another-secret-another-secret-00")})
	r := NewBearerRealm("jwt", BearerConfig{Key: testKey})

	raw, err := issuer.Issue("alice", time.Minute)
	require.NoError(t, err)

	_, err = r.LoadAuthenticationInfo(context.TODO(), authc.NewBearerToken(raw))
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestBearerRealmWithoutSubjectIsUnknown(t *testing.T) {
	r := NewBearerRealm("jwt", BearerConfig{Key: testKey})

	raw, err := r.Issue("", time.Minute)
	require.NoError(t, err)

	info, err := r.LoadAuthenticationInfo(context.TODO(), authc.NewBearerToken(raw))
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestMixedRealmsAtLeastOne(t *testing.T) {
	memory := NewMemoryRealm("memory")
	memory.SetCost(bcrypt.MinCost)
	require.NoError(t, memory.AddAccount("alice", "123456"))
	bearer := NewBearerRealm("jwt", BearerConfig{Key: testKey})

	ac := authc.NewAuthenticator([]authc.Realm{memory, bearer},
		authc.WithStrategy(authc.AtLeastOneSuccessful()))

	info, err := ac.Authenticate(context.TODO(), authc.NewUsernamePasswordToken("alice", "123456"))
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Principal())

	raw, err := bearer.Issue("bob", time.Minute)
	require.NoError(t, err)
	info, err = ac.Authenticate(context.TODO(), authc.NewBearerToken(raw))
	require.NoError(t, err)
	assert.Equal(t, []authc.Principal{{Kind: authc.KindSubject, Value: "bob"}}, info.Principals())

	_, err = ac.Authenticate(context.TODO(), authc.NewBearerToken("garbage"))
	assert.ErrorIs(t, err, authc.ErrAuthenticationFailed)
	assert.ErrorIs(t, err, ErrInvalidBearer)
}
