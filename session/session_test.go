package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrinex/bastion/codec"
)

func freezeTime(t *testing.T, at time.Time) *time.Time {
	now := at
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = time.Now })
	return &now
}

func TestNewSession(t *testing.T) {
	nowTime := *freezeTime(t, time.Unix(0, 0))

	ctx := context.TODO()
	key := uuid.NewString()
	ss := NewSession(key, codec.JSON)

	assert.Equal(t, key, ss.Token())

	startTime, err := ss.StartTime(ctx)
	assert.NoError(t, err)
	assert.Equal(t, nowTime, startTime)

	lastAccessTime, err := ss.LastAccessTime(ctx)
	assert.NoError(t, err)
	assert.Equal(t, nowTime, lastAccessTime)

	keys, err := ss.AttributeKeys(ctx)
	assert.NoError(t, err)
	assert.Empty(t, keys)

	timeout, err := ss.Timeout(ctx)
	assert.NoError(t, err)
	assert.Zero(t, timeout)
}

func TestAttributes(t *testing.T) {
	for name, c := range map[string]codec.Codec{"json": codec.JSON, "yaml": codec.YAML} {
		t.Run(name, func(t *testing.T) {
			ctx := context.TODO()
			ss := NewSession(uuid.NewString(), c)

			require.NoError(t, ss.SetAttribute(ctx, "name", "archer"))
			require.NoError(t, ss.SetAttribute(ctx, "admin", true))
			require.NoError(t, ss.SetAttribute(ctx, "age", 42))

			name, found, err := ss.AttributeAsString(ctx, "name")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "archer", name)

			admin, found, err := ss.AttributeAsBool(ctx, "admin")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.True(t, admin)

			age, found, err := ss.AttributeAsInt(ctx, "age")
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, int64(42), age)

			keys, err := ss.AttributeKeys(ctx)
			assert.NoError(t, err)
			assert.Equal(t, []string{"admin", "age", "name"}, keys)
		})
	}
}

func TestGetAttrWhenNotExists(t *testing.T) {
	ss := NewSession(uuid.NewString(), codec.JSON)

	value, found, err := ss.AttributeAsString(context.TODO(), "key")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestSetNilRemovesAttr(t *testing.T) {
	ctx := context.TODO()
	ss := NewSession(uuid.NewString(), codec.JSON)

	_ = ss.SetAttribute(ctx, "key", "value")
	require.NoError(t, ss.SetAttribute(ctx, "key", nil))

	_, found, err := ss.AttributeAsString(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestExpiredByTimeout(t *testing.T) {
	now := freezeTime(t, time.Unix(0, 0))
	ctx := context.TODO()

	ss := NewSession(uuid.NewString(), codec.JSON)
	ss.SetTimeout(10 * time.Minute)

	expired, err := ss.Expired(ctx)
	assert.NoError(t, err)
	assert.False(t, expired)

	*now = now.Add(11 * time.Minute)
	expired, err = ss.Expired(ctx)
	assert.NoError(t, err)
	assert.True(t, expired)
}

func TestTouchDefersIdleTimeout(t *testing.T) {
	now := freezeTime(t, time.Unix(0, 0))
	ctx := context.TODO()

	ss := NewSession(uuid.NewString(), codec.JSON)
	ss.SetTimeout(time.Hour)
	ss.SetIdleTimeout(time.Minute)

	*now = now.Add(50 * time.Second)
	require.NoError(t, ss.Touch(ctx))

	*now = now.Add(50 * time.Second)
	expired, _ := ss.Expired(ctx)
	assert.False(t, expired)

	*now = now.Add(2 * time.Minute)
	expired, _ = ss.Expired(ctx)
	assert.True(t, expired)
}

func TestZeroTimeoutNeverExpires(t *testing.T) {
	now := freezeTime(t, time.Unix(0, 0))
	ss := NewSession(uuid.NewString(), codec.JSON)

	*now = now.Add(24 * 365 * time.Hour)
	expired, err := ss.Expired(context.TODO())
	assert.NoError(t, err)
	assert.False(t, expired)
}

func TestStop(t *testing.T) {
	ctx := context.TODO()
	ss := NewSession(uuid.NewString(), codec.JSON)

	require.NoError(t, ss.Stop(ctx))
	require.NoError(t, ss.Stop(ctx))

	expired, err := ss.Expired(ctx)
	assert.NoError(t, err)
	assert.True(t, expired)

	assert.ErrorIs(t, ss.SetAttribute(ctx, "key", "value"), ErrStopped)
	_, err = ss.StartTime(ctx)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestKickOut(t *testing.T) {
	ctx := context.TODO()
	ss := NewSession(uuid.NewString(), codec.JSON)

	require.NoError(t, ss.KickOut(ctx))

	expired, err := ss.Expired(ctx)
	assert.NoError(t, err)
	assert.True(t, expired)

	_, _, err = ss.AttributeAsString(ctx, PlatformKey)
	assert.ErrorIs(t, err, ErrKickedOut)
}

func TestCopyIsDetached(t *testing.T) {
	ctx := context.TODO()
	src := NewSession(uuid.NewString(), codec.JSON)
	_ = src.SetAttribute(ctx, "key", "value")

	cp := NewSessionCopy(src)
	_ = cp.SetAttribute(ctx, "key", "other")

	value, _, _ := src.AttributeAsString(ctx, "key")
	assert.Equal(t, "value", value)
	assert.Equal(t, src.Token(), cp.Token())
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ss := NewSession(uuid.NewString(), codec.JSON)
	assert.ErrorIs(t, ss.SetAttribute(ctx, "key", "value"), context.Canceled)
}
