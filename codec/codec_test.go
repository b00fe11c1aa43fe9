package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrinex/bastion/authc"
)

type profile struct {
	Username   string            `json:"username" yaml:"username"`
	Principals []authc.Principal `json:"principals" yaml:"principals"`
	Admin      bool              `json:"admin" yaml:"admin"`
}

var mockProfile = profile{
	Username: "archer",
	Principals: []authc.Principal{
		{Kind: authc.KindUsername, Value: "archer"},
		{Kind: "role", Value: "admin"},
	},
	Admin: true,
}

func TestCodecs(t *testing.T) {
	for name, c := range map[string]Codec{"json": JSON, "yaml": YAML} {
		t.Run(name, func(t *testing.T) {
			data, err := c.Encode(mockProfile)
			require.NoError(t, err)

			var got profile
			require.NoError(t, c.Decode(data, &got))
			assert.Equal(t, mockProfile, got)
		})
	}
}

func TestJSONEncodesCompactly(t *testing.T) {
	data, err := JSON.Encode(map[string]int{"a": 1})
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, data)
}

func TestDecodeGarbage(t *testing.T) {
	var got profile
	assert.Error(t, JSON.Decode("{", &got))
	assert.Error(t, YAML.Decode("username: [", &got))
}

func TestByName(t *testing.T) {
	assert.Equal(t, YAML, ByName("yaml"))
	assert.Equal(t, YAML, ByName("yml"))
	assert.Equal(t, JSON, ByName("json"))
	assert.Equal(t, JSON, ByName(""))
}
