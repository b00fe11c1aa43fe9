package authc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDeduplicates(t *testing.T) {
	aggregate := NewAuthenticationInfo(KindUsername, "archer", "c1")
	aggregate.Merge(NewAuthenticationInfo(KindUsername, "archer", "c1", "c2"))

	assert.Equal(t, []Principal{{Kind: KindUsername, Value: "archer"}}, aggregate.Principals())
	assert.Equal(t, []string{"c1", "c2"}, aggregate.Credentials())
}

func TestMergeKeepsSameValueOfDifferentKind(t *testing.T) {
	aggregate := NewAuthenticationInfo(KindUsername, "archer")
	aggregate.Merge(NewAuthenticationInfo(KindSubject, "archer"))

	assert.Len(t, aggregate.Principals(), 2)
	assert.Equal(t, []string{"archer"}, aggregate.PrincipalsOf(KindSubject))
}

func TestMergeIsOrderInsensitiveForDisjointSets(t *testing.T) {
	a := NewAuthenticationInfo("user", "alice", "pw")
	b := NewAuthenticationInfo("group", "admins", "cert")

	ab := &SimpleAuthenticationInfo{}
	ab.Merge(a)
	ab.Merge(b)

	ba := &SimpleAuthenticationInfo{}
	ba.Merge(b)
	ba.Merge(a)

	assert.ElementsMatch(t, ab.Principals(), ba.Principals())
	assert.ElementsMatch(t, ab.Credentials(), ba.Credentials())
}

func TestMergeNil(t *testing.T) {
	aggregate := &SimpleAuthenticationInfo{}
	aggregate.Merge(nil)

	assert.True(t, aggregate.Empty())
	assert.Empty(t, aggregate.Principal())
}

func TestNilInfoIsSafe(t *testing.T) {
	var info *SimpleAuthenticationInfo

	assert.NotPanics(t, func() {
		assert.Empty(t, info.Principal())
		assert.Empty(t, info.Principals())
		assert.Empty(t, info.Credentials())
		assert.Empty(t, info.PrincipalsOf("user"))
		assert.True(t, info.Empty())
		info.Merge(NewAuthenticationInfo("user", "alice"))
	})

	aggregate := &SimpleAuthenticationInfo{}
	assert.NotPanics(t, func() { MergeSimple(aggregate, info) })
	assert.True(t, aggregate.Empty())
}

func TestPrincipalsReturnsCopy(t *testing.T) {
	info := NewAuthenticationInfo("user", "alice")
	principals := info.Principals()
	principals[0].Value = "mallory"

	assert.Equal(t, "alice", info.Principal())
}

func TestTokenStringMasksCredentials(t *testing.T) {
	assert.NotContains(t, NewUsernamePasswordToken("archer", "s3cret").(*UsernamePasswordToken).String(), "s3cret")
	assert.NotContains(t, NewBearerToken("abc.def").(*BearerToken).String(), "abc.def")
	assert.Equal(t, "*authc.UsernamePasswordToken", KindOf(NewUsernamePasswordToken("a", "b")))
}
